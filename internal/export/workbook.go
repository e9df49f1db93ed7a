package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/TronnusSaur/dashboard-evidencia/internal/report"
)

const (
	defaultSheetNameConstant   = "Sheet1"
	detailSheetNameConstant    = "Reporte"
	totalsSheetNameConstant    = "Totales"
	breakdownSheetNameConstant = "Desglose"
	firstColumnConstant        = 1
	firstRowConstant           = 1
	detailColumnWidthConstant  = 24
	detailFirstColumnConstant  = "A"
	detailLastColumnConstant   = "E"
)

type sheetWriter struct {
	workbook *excelize.File
	sheet    string
	row      int
}

func newSheetWriter(workbook *excelize.File, sheet string) *sheetWriter {
	return &sheetWriter{workbook: workbook, sheet: sheet, row: firstRowConstant}
}

func (writer *sheetWriter) appendRow(values ...any) error {
	cell, cellError := excelize.CoordinatesToCellName(firstColumnConstant, writer.row)
	if cellError != nil {
		return cellError
	}
	writer.row++
	if len(values) == 0 {
		return nil
	}
	return writer.workbook.SetSheetRow(writer.sheet, cell, &values)
}

func writeDetailWorkbook(output io.Writer, payload report.DetailExport) error {
	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	if renameError := workbook.SetSheetName(defaultSheetNameConstant, detailSheetNameConstant); renameError != nil {
		return renameError
	}

	sheet := newSheetWriter(workbook, detailSheetNameConstant)
	contextRows := [][]any{
		{companyLabelConstant, payload.Scope.Company},
		{contractLabelConstant, payload.Scope.Contract},
		{categoriesLabelConstant, payload.Scope.CategoryLabel()},
		{totalFoliosLabelConstant, payload.TotalFolios},
		{reportDateLabelConstant, payload.GeneratedAt.Format(timestampLayoutConstant)},
		{},
		stringsToValues(payload.Columns),
	}
	for _, row := range payload.Rows {
		contextRows = append(contextRows, stringsToValues(row.Cells()))
	}
	for _, values := range contextRows {
		if appendError := sheet.appendRow(values...); appendError != nil {
			return appendError
		}
	}
	if widthError := workbook.SetColWidth(detailSheetNameConstant, detailFirstColumnConstant, detailLastColumnConstant, detailColumnWidthConstant); widthError != nil {
		return widthError
	}

	if payload.Summary != nil {
		if summaryError := appendSummarySheets(workbook, *payload.Summary); summaryError != nil {
			return summaryError
		}
	}
	return workbook.Write(output)
}

func writeSummaryWorkbook(output io.Writer, document SummaryDocument) error {
	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	if renameError := workbook.SetSheetName(defaultSheetNameConstant, totalsSheetNameConstant); renameError != nil {
		return renameError
	}
	if summaryError := fillSummarySheets(workbook, document.Summary); summaryError != nil {
		return summaryError
	}

	totals := &sheetWriter{workbook: workbook, sheet: totalsSheetNameConstant, row: len(document.Summary.Categories) + 3}
	if appendError := totals.appendRow(summaryGeneratedLabelConstant, document.GeneratedAt.Format(timestampLayoutConstant)); appendError != nil {
		return appendError
	}
	return workbook.Write(output)
}

func appendSummarySheets(workbook *excelize.File, summary report.GlobalSummaryReport) error {
	if _, sheetError := workbook.NewSheet(totalsSheetNameConstant); sheetError != nil {
		return sheetError
	}
	return fillSummarySheets(workbook, summary)
}

func fillSummarySheets(workbook *excelize.File, summary report.GlobalSummaryReport) error {
	totals := newSheetWriter(workbook, totalsSheetNameConstant)
	if appendError := totals.appendRow(stringsToValues(report.CategoryColumns())...); appendError != nil {
		return appendError
	}
	for _, share := range summary.Categories {
		if appendError := totals.appendRow(share.Category, share.Count, share.Percent); appendError != nil {
			return appendError
		}
	}
	if appendError := totals.appendRow(totalOmissionsLabelConstant, summary.TotalOmissions); appendError != nil {
		return appendError
	}

	if _, sheetError := workbook.NewSheet(breakdownSheetNameConstant); sheetError != nil {
		return sheetError
	}
	breakdown := newSheetWriter(workbook, breakdownSheetNameConstant)
	if appendError := breakdown.appendRow(stringsToValues(summary.Breakdown.Header())...); appendError != nil {
		return appendError
	}
	for _, row := range summary.Breakdown.Rows {
		values := make([]any, 0, len(row.Cells)+2)
		values = append(values, row.Company)
		for _, cell := range row.Cells {
			values = append(values, cell)
		}
		values = append(values, row.Total)
		if appendError := breakdown.appendRow(values...); appendError != nil {
			return appendError
		}
	}
	return nil
}

func stringsToValues(values []string) []any {
	converted := make([]any, 0, len(values))
	for _, value := range values {
		converted = append(converted, value)
	}
	return converted
}
