package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TronnusSaur/dashboard-evidencia/internal/report"
)

const (
	jsonIndentConstant             = "  "
	yamlIndentConstant             = 2
	percentPrecisionConstant       = 1
	timestampLayoutConstant        = "2006-01-02 15:04:05"
	encodeErrorTemplateConstant    = "failed to encode %s export: %w"
	companyLabelConstant           = "Empresa"
	contractLabelConstant          = "Contrato"
	categoriesLabelConstant        = "Errores"
	totalFoliosLabelConstant       = "Total de folios"
	reportDateLabelConstant        = "Fecha de reporte"
	summaryGeneratedLabelConstant  = "Generado el"
	totalOmissionsLabelConstant    = "Total de omisiones"
	documentFormatTemplateConstant = "format %q cannot encode documents (expected json or yaml)"
)

// SummaryDocument is the encoded form of a stand-alone global summary.
type SummaryDocument struct {
	GeneratedAt time.Time                  `json:"generated_at" yaml:"generated_at"`
	Summary     report.GlobalSummaryReport `json:"summary" yaml:"summary"`
}

// WriteDetail encodes a detail export in the requested format.
func WriteDetail(writer io.Writer, format Format, payload report.DetailExport) error {
	var encodeError error
	switch format {
	case FormatCSV:
		encodeError = writeDetailCSV(writer, payload)
	case FormatJSON:
		encodeError = writeJSON(writer, payload)
	case FormatYAML:
		encodeError = writeYAML(writer, payload)
	case FormatXLSX:
		encodeError = writeDetailWorkbook(writer, payload)
	default:
		encodeError = unsupportedFormatError(string(format))
	}
	if encodeError != nil {
		return fmt.Errorf(encodeErrorTemplateConstant, format, encodeError)
	}
	return nil
}

// WriteSummary encodes a global summary in the requested format.
func WriteSummary(writer io.Writer, format Format, generatedAt time.Time, summary report.GlobalSummaryReport) error {
	document := SummaryDocument{GeneratedAt: generatedAt, Summary: summary}

	var encodeError error
	switch format {
	case FormatCSV:
		encodeError = writeSummaryCSV(writer, summary)
	case FormatJSON:
		encodeError = writeJSON(writer, document)
	case FormatYAML:
		encodeError = writeYAML(writer, document)
	case FormatXLSX:
		encodeError = writeSummaryWorkbook(writer, document)
	default:
		encodeError = unsupportedFormatError(string(format))
	}
	if encodeError != nil {
		return fmt.Errorf(encodeErrorTemplateConstant, format, encodeError)
	}
	return nil
}

func writeJSON(writer io.Writer, value any) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndentConstant)
	return encoder.Encode(value)
}

func writeYAML(writer io.Writer, value any) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(yamlIndentConstant)
	if encodeError := encoder.Encode(value); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}

func writeDetailCSV(writer io.Writer, payload report.DetailExport) error {
	csvWriter := csv.NewWriter(writer)
	records := append(scopeRecords(payload), []string{}, payload.Columns)
	for _, row := range payload.Rows {
		records = append(records, row.Cells())
	}
	for _, record := range records {
		if writeError := csvWriter.Write(record); writeError != nil {
			return writeError
		}
	}
	if payload.Summary != nil {
		if writeError := csvWriter.Write([]string{}); writeError != nil {
			return writeError
		}
		if writeError := writeSummaryRecords(csvWriter, *payload.Summary); writeError != nil {
			return writeError
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// scopeRecords is the header block that precedes a detail table.
func scopeRecords(payload report.DetailExport) [][]string {
	return [][]string{
		{companyLabelConstant, payload.Scope.Company},
		{contractLabelConstant, payload.Scope.Contract},
		{categoriesLabelConstant, payload.Scope.CategoryLabel()},
		{totalFoliosLabelConstant, strconv.Itoa(payload.TotalFolios)},
		{reportDateLabelConstant, payload.GeneratedAt.Format(timestampLayoutConstant)},
	}
}

func writeSummaryCSV(writer io.Writer, summary report.GlobalSummaryReport) error {
	csvWriter := csv.NewWriter(writer)
	if writeError := writeSummaryRecords(csvWriter, summary); writeError != nil {
		return writeError
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func writeSummaryRecords(csvWriter *csv.Writer, summary report.GlobalSummaryReport) error {
	records := [][]string{report.CategoryColumns()}
	for _, share := range summary.Categories {
		records = append(records, []string{share.Category, strconv.Itoa(share.Count), formatPercent(share.Percent)})
	}
	records = append(records, []string{})
	records = append(records, summary.Breakdown.Header())
	for _, row := range summary.Breakdown.Rows {
		records = append(records, breakdownCells(row))
	}
	for _, record := range records {
		if writeError := csvWriter.Write(record); writeError != nil {
			return writeError
		}
	}
	return nil
}

func breakdownCells(row report.CompanyRow) []string {
	cells := make([]string, 0, len(row.Cells)+2)
	cells = append(cells, row.Company)
	for _, cell := range row.Cells {
		cells = append(cells, strconv.Itoa(cell))
	}
	return append(cells, strconv.Itoa(row.Total))
}

func formatPercent(percent float64) string {
	return strconv.FormatFloat(percent, 'f', percentPrecisionConstant, 64) + "%"
}

// WriteDocument encodes an arbitrary value as JSON or YAML. Tabular formats are rejected.
func WriteDocument(writer io.Writer, format Format, value any) error {
	switch format {
	case FormatJSON:
		return writeJSON(writer, value)
	case FormatYAML:
		return writeYAML(writer, value)
	default:
		return fmt.Errorf(documentFormatTemplateConstant, format)
	}
}
