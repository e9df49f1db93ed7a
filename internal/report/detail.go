package report

import (
	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
	"github.com/TronnusSaur/dashboard-evidencia/internal/schema"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

// Detail table headers.
const (
	FolioColumnConstant        = "Folio"
	StatusColumnConstant       = "Estado de Error"
	StreetColumnConstant       = "Ubicación (Calle)"
	DistrictColumnConstant     = "Delegación"
	NeighborhoodColumnConstant = "Colonia"
)

// DetailColumns returns the detail table headers in cell order.
func DetailColumns() []string {
	return []string{
		FolioColumnConstant,
		StatusColumnConstant,
		StreetColumnConstant,
		DistrictColumnConstant,
		NeighborhoodColumnConstant,
	}
}

// DetailRow is one folio of the detail table.
type DetailRow struct {
	Folio        string `json:"folio" yaml:"folio"`
	Status       string `json:"status" yaml:"status"`
	Street       string `json:"street" yaml:"street"`
	District     string `json:"district" yaml:"district"`
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
}

// Cells returns the row values in DetailColumns order.
func (row DetailRow) Cells() []string {
	return []string{row.Folio, row.Status, row.Street, row.District, row.Neighborhood}
}

// DetailRows keeps the records whose status is not excluded and whose condensed category passes the
// category restriction of state. Statuses not yet registered are observed first. Record order is preserved.
func DetailRows(records []schema.AuditRecord, state filter.State, registry *taxonomy.Taxonomy) []DetailRow {
	rows := make([]DetailRow, 0, len(records))
	for _, record := range records {
		classification := registry.Observe(record.Status)
		if classification.Excluded {
			continue
		}
		if !state.HasCategory(classification.Category) {
			continue
		}
		rows = append(rows, DetailRow{
			Folio:        record.Folio,
			Status:       record.Status,
			Street:       record.Street,
			District:     record.District,
			Neighborhood: record.Neighborhood,
		})
	}
	return rows
}
