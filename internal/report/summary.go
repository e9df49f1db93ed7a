package report

import (
	"sort"

	"github.com/TronnusSaur/dashboard-evidencia/internal/aggregate"
	"github.com/TronnusSaur/dashboard-evidencia/internal/index"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

// Summary table headers.
const (
	CategoryColumnConstant   = "Categoría de Error"
	FolioCountColumnConstant = "Total de Folios"
	ImpactColumnConstant     = "Impacto %"
	CompanyColumnConstant    = "Empresa"
	TotalColumnConstant      = "Total"
)

// SummaryIndex is the read-only view of the index the global summary needs.
type SummaryIndex interface {
	Companies() []string
	Summaries() []index.ContractSummary
	GlobalTotals() map[string]int
	Taxonomy() *taxonomy.Taxonomy
}

// CategoryShare is one row of the global category table.
type CategoryShare struct {
	Category string  `json:"category" yaml:"category"`
	Count    int     `json:"count" yaml:"count"`
	Percent  float64 `json:"percent" yaml:"percent"`
}

// CompanyRow is one row of the per-company breakdown. Cells align with CompanyBreakdown.Columns.
// A composite omission is counted under every stage it names, so the cells may sum to more than
// Total; Overlap holds the difference.
type CompanyRow struct {
	Company string `json:"company" yaml:"company"`
	Cells   []int  `json:"cells" yaml:"cells"`
	Total   int    `json:"total" yaml:"total"`
	Overlap int    `json:"overlap" yaml:"overlap"`
}

// CompanyBreakdown is the per-company table sorted by descending total.
type CompanyBreakdown struct {
	Columns []string     `json:"columns" yaml:"columns"`
	Rows    []CompanyRow `json:"rows" yaml:"rows"`
}

// GlobalSummaryReport is the fleet-wide rollup.
type GlobalSummaryReport struct {
	TotalOmissions int              `json:"total_omissions" yaml:"total_omissions"`
	Categories     []CategoryShare  `json:"categories" yaml:"categories"`
	Breakdown      CompanyBreakdown `json:"breakdown" yaml:"breakdown"`
}

// CategoryColumns returns the category table headers.
func CategoryColumns() []string {
	return []string{CategoryColumnConstant, FolioCountColumnConstant, ImpactColumnConstant}
}

// GlobalSummary builds the category share table and the per-company breakdown.
func GlobalSummary(summaryIndex SummaryIndex) GlobalSummaryReport {
	registry := summaryIndex.Taxonomy()
	globalTotals := summaryIndex.GlobalTotals()

	report := GlobalSummaryReport{}
	presentStatuses := make([]string, 0, len(globalTotals))
	for _, status := range registry.Statuses() {
		if _, present := globalTotals[status]; !present {
			continue
		}
		if registry.Classify(status).Excluded {
			continue
		}
		presentStatuses = append(presentStatuses, status)
		report.TotalOmissions += globalTotals[status]
	}

	report.Categories = make([]CategoryShare, 0, len(presentStatuses))
	for _, status := range presentStatuses {
		report.Categories = append(report.Categories, CategoryShare{
			Category: status,
			Count:    globalTotals[status],
			Percent:  aggregate.Percentage(globalTotals[status], report.TotalOmissions),
		})
	}

	report.Breakdown = companyBreakdown(summaryIndex, registry, presentStatuses)
	return report
}

func companyBreakdown(summaryIndex SummaryIndex, registry *taxonomy.Taxonomy, statuses []string) CompanyBreakdown {
	columnPositions := make(map[string]int)
	breakdown := CompanyBreakdown{}
	statusColumns := make(map[string][]int, len(statuses))
	for _, status := range statuses {
		for _, label := range registry.Decompose(status) {
			position, known := columnPositions[label]
			if !known {
				position = len(breakdown.Columns)
				columnPositions[label] = position
				breakdown.Columns = append(breakdown.Columns, label)
			}
			statusColumns[status] = append(statusColumns[status], position)
		}
	}

	companies := summaryIndex.Companies()
	rowPositions := make(map[string]int, len(companies))
	breakdown.Rows = make([]CompanyRow, 0, len(companies))
	for _, company := range companies {
		rowPositions[company] = len(breakdown.Rows)
		breakdown.Rows = append(breakdown.Rows, CompanyRow{
			Company: company,
			Cells:   make([]int, len(breakdown.Columns)),
		})
	}

	for _, summary := range summaryIndex.Summaries() {
		row := &breakdown.Rows[rowPositions[summary.Company]]
		for _, status := range summary.Statuses() {
			count := summary.Count(status)
			row.Total += count
			for _, position := range statusColumns[status] {
				row.Cells[position] += count
			}
		}
	}

	for rowIndex := range breakdown.Rows {
		cellSum := 0
		for _, cell := range breakdown.Rows[rowIndex].Cells {
			cellSum += cell
		}
		breakdown.Rows[rowIndex].Overlap = cellSum - breakdown.Rows[rowIndex].Total
	}

	sort.SliceStable(breakdown.Rows, func(left int, right int) bool {
		return breakdown.Rows[left].Total > breakdown.Rows[right].Total
	})
	return breakdown
}

// Header returns the breakdown headers: company, one column per label, then the total.
func (breakdown CompanyBreakdown) Header() []string {
	header := make([]string, 0, len(breakdown.Columns)+2)
	header = append(header, CompanyColumnConstant)
	header = append(header, breakdown.Columns...)
	return append(header, TotalColumnConstant)
}
