package report

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
)

// ErrNothingToExport reports that a company or contract is selected but no detail rows match.
var ErrNothingToExport = errors.New("no detail records match the current selection")

// DetailExport is the payload handed to document encoders.
type DetailExport struct {
	ID          string                  `json:"id" yaml:"id"`
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	Scope       filter.ScopeDescription `json:"scope" yaml:"scope"`
	TotalFolios int                     `json:"total_folios" yaml:"total_folios"`
	Columns     []string                `json:"columns" yaml:"columns"`
	Rows        []DetailRow             `json:"rows" yaml:"rows"`
	Summary     *GlobalSummaryReport    `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// BuildDetailExport assembles the export payload for a selection. A company or contract scope without rows
// yields ErrNothingToExport; the global scope always succeeds and carries the global summary.
func BuildDetailExport(state filter.State, rows []DetailRow, summaryIndex SummaryIndex, generatedAt time.Time) (DetailExport, error) {
	if state.Scope() != filter.ScopeGlobal && len(rows) == 0 {
		return DetailExport{}, ErrNothingToExport
	}

	payload := DetailExport{
		ID:          uuid.NewString(),
		GeneratedAt: generatedAt,
		Scope:       state.Describe(),
		TotalFolios: len(rows),
		Columns:     DetailColumns(),
		Rows:        append([]DetailRow{}, rows...),
	}
	if state.Scope() == filter.ScopeGlobal && summaryIndex != nil {
		summary := GlobalSummary(summaryIndex)
		payload.Summary = &summary
	}
	return payload, nil
}
