package schema

import "strings"

// NotSpecifiedValue marks a canonical field that was absent or blank in the source record.
const NotSpecifiedValue = "N/A"

// AuditRecord is one audit finding for a single folio.
type AuditRecord struct {
	Folio        string `mapstructure:"folio" json:"folio" yaml:"folio"`
	Status       string `mapstructure:"status" json:"status" yaml:"status"`
	Street       string `mapstructure:"street" json:"street" yaml:"street"`
	District     string `mapstructure:"district" json:"district" yaml:"district"`
	Neighborhood string `mapstructure:"neighborhood" json:"neighborhood" yaml:"neighborhood"`
}

// Field is a single key/value pair of a raw input row.
type Field struct {
	Key   string
	Value any
}

// RawRow is an input row whose key order is significant.
type RawRow []Field

// Lookup returns the first value whose key matches name case-insensitively.
func (row RawRow) Lookup(name string) (any, bool) {
	for _, field := range row {
		if strings.EqualFold(strings.TrimSpace(field.Key), name) {
			return field.Value, true
		}
	}
	return nil, false
}

// CategoryCount pairs a raw status label with the number of folios recorded under it.
type CategoryCount struct {
	Status string
	Count  int
}

// SummaryRow is the canonical form of one contract row of the summary input.
type SummaryRow struct {
	Company        string
	ContractID     string
	TotalOmissions int
	TotalPresent   bool
	Categories     []CategoryCount
}

// HasIdentity reports whether the row names both a company and a contract.
func (row SummaryRow) HasIdentity() bool {
	return len(row.Company) > 0 && len(row.ContractID) > 0
}
