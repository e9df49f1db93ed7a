package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	canonicalFolioFieldConstant        = "folio"
	canonicalStatusFieldConstant       = "status"
	canonicalStreetFieldConstant       = "street"
	canonicalDistrictFieldConstant     = "district"
	canonicalNeighborhoodFieldConstant = "neighborhood"
)

type fieldAliases struct {
	canonical string
	names     []string
}

// recordFieldAliases lists source spellings per canonical field, most recent generation first.
var recordFieldAliases = []fieldAliases{
	{canonical: canonicalFolioFieldConstant, names: []string{"folio", "no_folio", "numero_folio"}},
	{canonical: canonicalStatusFieldConstant, names: []string{"RESULTADO_AUDITORIA", "Error", "estatus", "status", "estado"}},
	{canonical: canonicalStreetFieldConstant, names: []string{"calle", "ubicacion", "ubicación", "street"}},
	{canonical: canonicalDistrictFieldConstant, names: []string{"delegacion", "delegación", "district"}},
	{canonical: canonicalNeighborhoodFieldConstant, names: []string{"colonia", "neighborhood"}},
}

var (
	companyFieldAliases  = []string{"EMPRESA_RAIZ_MASTER", "empresa_raiz", "empresa", "company"}
	contractFieldAliases = []string{"ID", "id_contrato", "contrato", "contract"}
	totalFieldAliases    = []string{"TOTAL_OMISIONES", "total_omisiones", "total"}
)

// NormalizeRecord converts a raw detail record into an AuditRecord.
// Key matching is case-insensitive and absent or blank fields become NotSpecifiedValue.
func NormalizeRecord(raw map[string]any) AuditRecord {
	loweredFields := make(map[string]any, len(raw))
	for key, value := range raw {
		loweredKey := strings.ToLower(strings.TrimSpace(key))
		if _, exists := loweredFields[loweredKey]; exists {
			continue
		}
		loweredFields[loweredKey] = value
	}

	canonicalFields := make(map[string]any, len(recordFieldAliases))
	for _, aliases := range recordFieldAliases {
		for _, name := range aliases.names {
			value, found := loweredFields[strings.ToLower(name)]
			if !found || len(stringifyValue(value)) == 0 {
				continue
			}
			canonicalFields[aliases.canonical] = value
			break
		}
	}

	var record AuditRecord
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &record,
	})
	if decoderError != nil || decoder.Decode(canonicalFields) != nil {
		record = AuditRecord{
			Folio:        stringifyValue(canonicalFields[canonicalFolioFieldConstant]),
			Status:       stringifyValue(canonicalFields[canonicalStatusFieldConstant]),
			Street:       stringifyValue(canonicalFields[canonicalStreetFieldConstant]),
			District:     stringifyValue(canonicalFields[canonicalDistrictFieldConstant]),
			Neighborhood: stringifyValue(canonicalFields[canonicalNeighborhoodFieldConstant]),
		}
	}

	record.Folio = orNotSpecified(record.Folio)
	record.Status = orNotSpecified(record.Status)
	record.Street = orNotSpecified(record.Street)
	record.District = orNotSpecified(record.District)
	record.Neighborhood = orNotSpecified(record.Neighborhood)
	return record
}

// NormalizeRecords applies NormalizeRecord to every element, preserving order.
func NormalizeRecords(raw []map[string]any) []AuditRecord {
	records := make([]AuditRecord, 0, len(raw))
	for _, rawRecord := range raw {
		records = append(records, NormalizeRecord(rawRecord))
	}
	return records
}

// NormalizeSummaryRow converts a raw summary row into a SummaryRow.
// Every key that is not an identity or total field is treated as a raw status column.
func NormalizeSummaryRow(raw RawRow) SummaryRow {
	row := SummaryRow{
		Company:    lookupText(raw, companyFieldAliases),
		ContractID: lookupText(raw, contractFieldAliases),
	}

	if totalValue, found := lookupValue(raw, totalFieldAliases); found {
		row.TotalOmissions = ParseCount(totalValue)
		row.TotalPresent = true
	}

	for _, field := range raw {
		key := strings.TrimSpace(field.Key)
		if isIdentityKey(key) {
			continue
		}
		row.Categories = append(row.Categories, CategoryCount{
			Status: key,
			Count:  ParseCount(field.Value),
		})
	}
	return row
}

// ParseCount reads a count from a loosely typed value. Non-numeric, negative, or absent values count as zero.
// Booleans are not counts.
func ParseCount(value any) int {
	switch typedValue := value.(type) {
	case nil, bool:
		return 0
	case string:
		value = strings.TrimSpace(typedValue)
	}
	var number float64
	if decodeError := mapstructure.WeakDecode(value, &number); decodeError != nil {
		return 0
	}
	if math.IsNaN(number) || number <= 0 {
		return 0
	}
	return int(math.Round(number))
}

func lookupValue(raw RawRow, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if value, found := raw.Lookup(alias); found {
			return value, true
		}
	}
	return nil, false
}

func lookupText(raw RawRow, aliases []string) string {
	value, found := lookupValue(raw, aliases)
	if !found {
		return ""
	}
	return stringifyValue(value)
}

func isIdentityKey(key string) bool {
	for _, aliasGroup := range [][]string{companyFieldAliases, contractFieldAliases, totalFieldAliases} {
		for _, alias := range aliasGroup {
			if strings.EqualFold(key, alias) {
				return true
			}
		}
	}
	return false
}

func stringifyValue(value any) string {
	if value == nil {
		return ""
	}
	var text string
	if decodeError := mapstructure.WeakDecode(value, &text); decodeError != nil {
		text = fmt.Sprint(value)
	}
	return strings.TrimSpace(text)
}

func orNotSpecified(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return NotSpecifiedValue
	}
	return trimmed
}
