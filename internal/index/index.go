package index

import (
	"go.uber.org/zap"

	"github.com/TronnusSaur/dashboard-evidencia/internal/schema"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

const (
	rowSkippedMissingIdentityMessageConstant = "summary row skipped: missing company or contract identifier"
	rowSkippedDuplicateMessageConstant       = "summary row skipped: duplicate contract"
	totalMismatchMessageConstant             = "summary row total does not match category counts; using category sum"
	globalTotalMismatchMessageConstant       = "global total does not match contract rows; using contract rows"
	indexBuiltMessageConstant                = "summary index built"
	logFieldRowIndexConstant                 = "row_index"
	logFieldCompanyConstant                  = "company"
	logFieldContractConstant                 = "contract"
	logFieldReportedTotalConstant            = "reported_total"
	logFieldComputedTotalConstant            = "computed_total"
	logFieldStatusConstant                   = "status"
	logFieldCompanyCountConstant             = "company_count"
	logFieldContractCountConstant            = "contract_count"
	logFieldStatusCountConstant              = "status_count"
)

// ContractSummary holds the omission counts of one contract. It is never mutated after Build.
type ContractSummary struct {
	Company        string
	ContractID     string
	TotalOmissions int
	Compliant      int

	statuses []string
	counts   map[string]int
}

// Count returns the omissions recorded for a raw status.
func (summary ContractSummary) Count(rawStatus string) int {
	return summary.counts[rawStatus]
}

// Statuses returns the raw statuses present in the contract row, in row order.
func (summary ContractSummary) Statuses() []string {
	return append([]string(nil), summary.statuses...)
}

// NewContractSummary assembles a summary from ordered category counts, deriving the total from them.
func NewContractSummary(company string, contractID string, categories []schema.CategoryCount) ContractSummary {
	summary := ContractSummary{
		Company:    company,
		ContractID: contractID,
		counts:     make(map[string]int, len(categories)),
	}
	for _, category := range categories {
		if _, exists := summary.counts[category.Status]; !exists {
			summary.statuses = append(summary.statuses, category.Status)
		}
		summary.counts[category.Status] += category.Count
		summary.TotalOmissions += category.Count
	}
	return summary
}

// Index is the company → contract hierarchy built from one summary input.
type Index struct {
	taxonomy     *taxonomy.Taxonomy
	companies    []string
	contracts    map[string][]string
	summaries    map[contractKey]ContractSummary
	ordered      []contractKey
	globalTotals map[string]int
}

type contractKey struct {
	company  string
	contract string
}

// Build constructs the index. Rows without identifiers or duplicated contracts are skipped and logged.
func Build(input SummaryInput, registry *taxonomy.Taxonomy, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = taxonomy.New(taxonomy.DefaultRules())
	}

	built := &Index{
		taxonomy:     registry,
		contracts:    make(map[string][]string),
		summaries:    make(map[contractKey]ContractSummary),
		globalTotals: make(map[string]int),
	}

	for rowIndex, rawRow := range input.Rows {
		row := schema.NormalizeSummaryRow(rawRow)

		omissions := make([]schema.CategoryCount, 0, len(row.Categories))
		compliant := 0
		for _, category := range row.Categories {
			if registry.Observe(category.Status).Excluded {
				compliant += category.Count
				continue
			}
			omissions = append(omissions, category)
		}

		if !row.HasIdentity() {
			logger.Warn(rowSkippedMissingIdentityMessageConstant,
				zap.Int(logFieldRowIndexConstant, rowIndex),
				zap.String(logFieldCompanyConstant, row.Company),
				zap.String(logFieldContractConstant, row.ContractID),
			)
			continue
		}

		key := contractKey{company: row.Company, contract: row.ContractID}
		if _, duplicate := built.summaries[key]; duplicate {
			logger.Warn(rowSkippedDuplicateMessageConstant,
				zap.Int(logFieldRowIndexConstant, rowIndex),
				zap.String(logFieldCompanyConstant, row.Company),
				zap.String(logFieldContractConstant, row.ContractID),
			)
			continue
		}

		summary := NewContractSummary(row.Company, row.ContractID, omissions)
		summary.Compliant = compliant
		if row.TotalPresent && row.TotalOmissions != summary.TotalOmissions {
			logger.Warn(totalMismatchMessageConstant,
				zap.String(logFieldCompanyConstant, row.Company),
				zap.String(logFieldContractConstant, row.ContractID),
				zap.Int(logFieldReportedTotalConstant, row.TotalOmissions),
				zap.Int(logFieldComputedTotalConstant, summary.TotalOmissions),
			)
		}

		if _, knownCompany := built.contracts[row.Company]; !knownCompany {
			built.companies = append(built.companies, row.Company)
		}
		built.contracts[row.Company] = append(built.contracts[row.Company], row.ContractID)
		built.summaries[key] = summary
		built.ordered = append(built.ordered, key)

		for _, status := range summary.statuses {
			built.globalTotals[status] += summary.counts[status]
		}
	}

	if input.GlobalTotalsPresent {
		built.reconcileGlobalTotals(input.GlobalTotals, logger)
	}

	logger.Debug(indexBuiltMessageConstant,
		zap.Int(logFieldCompanyCountConstant, len(built.companies)),
		zap.Int(logFieldContractCountConstant, len(built.ordered)),
		zap.Int(logFieldStatusCountConstant, registry.Len()),
	)

	return built
}

func (built *Index) reconcileGlobalTotals(suppliedTotals schema.RawRow, logger *zap.Logger) {
	for _, field := range suppliedTotals {
		classification := built.taxonomy.Observe(field.Key)
		if classification.Excluded {
			continue
		}
		suppliedCount := schema.ParseCount(field.Value)
		computedCount := built.globalTotals[classification.Status]
		if suppliedCount != computedCount {
			logger.Warn(globalTotalMismatchMessageConstant,
				zap.String(logFieldStatusConstant, classification.Status),
				zap.Int(logFieldReportedTotalConstant, suppliedCount),
				zap.Int(logFieldComputedTotalConstant, computedCount),
			)
		}
	}
}

// Taxonomy returns the category registry the index was built with.
func (built *Index) Taxonomy() *taxonomy.Taxonomy {
	return built.taxonomy
}

// Companies returns company names in first-seen order.
func (built *Index) Companies() []string {
	return append([]string(nil), built.companies...)
}

// HasCompany reports whether the company appears in the summary input.
func (built *Index) HasCompany(company string) bool {
	_, found := built.contracts[company]
	return found
}

// ContractsOf returns the contract IDs of a company in first-seen order. Unknown companies yield nil.
func (built *Index) ContractsOf(company string) []string {
	return append([]string(nil), built.contracts[company]...)
}

// SummaryOf returns the summary of one contract.
func (built *Index) SummaryOf(company string, contractID string) (ContractSummary, bool) {
	summary, found := built.summaries[contractKey{company: company, contract: contractID}]
	return summary, found
}

// Summaries returns every contract summary in input order.
func (built *Index) Summaries() []ContractSummary {
	summaries := make([]ContractSummary, 0, len(built.ordered))
	for _, key := range built.ordered {
		summaries = append(summaries, built.summaries[key])
	}
	return summaries
}

// GlobalTotals returns omissions per raw status across all contracts.
func (built *Index) GlobalTotals() map[string]int {
	totals := make(map[string]int, len(built.globalTotals))
	for status, count := range built.globalTotals {
		totals[status] = count
	}
	return totals
}
