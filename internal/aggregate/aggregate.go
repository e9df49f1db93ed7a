// Package aggregate derives chart series and KPI rollups from the summary index
// and the current selection.
//
// Every function here is pure: the same index and filter state always produce
// the same output, and nothing is cached between calls.
package aggregate

import (
	"fmt"
	"math"

	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
	"github.com/TronnusSaur/dashboard-evidencia/internal/index"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

const (
	contractBarLabelTemplateConstant = "Contrato %s"
)

// SummaryIndex is the read-only view of the index the aggregations need.
type SummaryIndex interface {
	Summaries() []index.ContractSummary
	Taxonomy() *taxonomy.Taxonomy
}

// BarKind tells the renderer what a bar stands for.
type BarKind string

// Bar kinds.
const (
	BarKindCategory BarKind = "category"
	BarKindContract BarKind = "contract"
)

// Slice is one pie-chart segment.
type Slice struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// Bar is one bar-chart entry.
type Bar struct {
	Name  string  `json:"name" yaml:"name"`
	Value int     `json:"value" yaml:"value"`
	Kind  BarKind `json:"kind" yaml:"kind"`
}

// ScopedSummaries returns the contract summaries selected by company and contract.
func ScopedSummaries(summaryIndex SummaryIndex, state filter.State) []index.ContractSummary {
	company := state.Company()
	contract := state.Contract()

	allSummaries := summaryIndex.Summaries()
	if company == filter.All {
		return allSummaries
	}

	scoped := make([]index.ContractSummary, 0, len(allSummaries))
	for _, summary := range allSummaries {
		if summary.Company != company {
			continue
		}
		if contract != filter.All && summary.ContractID != contract {
			continue
		}
		scoped = append(scoped, summary)
	}
	return scoped
}

// CategoryTotals sums omissions per condensed category over the given summaries.
func CategoryTotals(registry *taxonomy.Taxonomy, summaries []index.ContractSummary) map[string]int {
	totals := make(map[string]int)
	for _, summary := range summaries {
		for _, status := range summary.Statuses() {
			classification := registry.Classify(status)
			if classification.Excluded {
				continue
			}
			totals[classification.Category] += summary.Count(status)
		}
	}
	return totals
}

// PieSeries returns the non-zero condensed-category totals of the selection in discovery order.
func PieSeries(summaryIndex SummaryIndex, state filter.State) []Slice {
	registry := summaryIndex.Taxonomy()
	totals := CategoryTotals(registry, ScopedSummaries(summaryIndex, state))

	slices := make([]Slice, 0, len(totals))
	for _, category := range registry.Categories() {
		value := totals[category]
		if value <= 0 {
			continue
		}
		slices = append(slices, Slice{Name: category, Value: value})
	}
	return slices
}

// BarSeries picks one of three policies by scope: a contract's category breakdown,
// one bar per contract of a company, or category totals across every contract.
func BarSeries(summaryIndex SummaryIndex, state filter.State) []Bar {
	switch state.Scope() {
	case filter.ScopeCompany:
		scoped := ScopedSummaries(summaryIndex, state)
		bars := make([]Bar, 0, len(scoped))
		for _, summary := range scoped {
			bars = append(bars, Bar{
				Name:  fmt.Sprintf(contractBarLabelTemplateConstant, summary.ContractID),
				Value: summary.TotalOmissions,
				Kind:  BarKindContract,
			})
		}
		return bars
	case filter.ScopeContract:
		return categoryBars(summaryIndex.Taxonomy(), ScopedSummaries(summaryIndex, state))
	default:
		return categoryBars(summaryIndex.Taxonomy(), summaryIndex.Summaries())
	}
}

func categoryBars(registry *taxonomy.Taxonomy, summaries []index.ContractSummary) []Bar {
	totals := CategoryTotals(registry, summaries)
	categories := registry.Categories()
	bars := make([]Bar, 0, len(categories))
	for _, category := range categories {
		bars = append(bars, Bar{Name: category, Value: totals[category], Kind: BarKindCategory})
	}
	return bars
}

// Percentage returns part as a share of total, rounded to one decimal. A zero total yields zero.
func Percentage(part int, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
