package index

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TronnusSaur/dashboard-evidencia/internal/schema"
)

const (
	summaryDecodeErrorTemplateConstant     = "failed to decode summary input: %w"
	summaryOpenErrorTemplateConstant       = "failed to open summary input: %w"
	summaryRowDecodeErrorTemplateConstant  = "failed to decode summary row %d: %w"
	summaryTotalsDecodeErrorTemplate       = "failed to decode global totals: %w"
	summaryUnsupportedShapeMessageConstant = "summary input must be a list of rows or a mapping with a summary section"
)

var (
	summarySectionNames      = []string{"summary", "resumen", "resumen_data"}
	globalTotalsSectionNames = []string{"global_totals", "totales_globales", "totals"}
)

// SummaryInput is the raw summary document: contract rows plus an optional global totals mapping.
type SummaryInput struct {
	Rows                []schema.RawRow
	GlobalTotals        schema.RawRow
	GlobalTotalsPresent bool
}

// ReadSummaryFile opens and parses a JSON or YAML summary document.
func ReadSummaryFile(filePath string) (SummaryInput, error) {
	file, openError := os.Open(filePath)
	if openError != nil {
		return SummaryInput{}, fmt.Errorf(summaryOpenErrorTemplateConstant, openError)
	}
	defer file.Close()

	return ReadSummaryInput(file)
}

// ReadSummaryInput parses a JSON or YAML summary document, keeping the key order of every row.
// The document is either a bare list of rows or a mapping with summary and global_totals sections.
func ReadSummaryInput(reader io.Reader) (SummaryInput, error) {
	var document yaml.Node
	if decodeError := yaml.NewDecoder(reader).Decode(&document); decodeError != nil {
		if errors.Is(decodeError, io.EOF) {
			return SummaryInput{}, nil
		}
		return SummaryInput{}, fmt.Errorf(summaryDecodeErrorTemplateConstant, decodeError)
	}

	root := &document
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		rows, rowsError := decodeRows(root)
		return SummaryInput{Rows: rows}, rowsError
	case yaml.MappingNode:
		return decodeSections(root)
	default:
		return SummaryInput{}, errors.New(summaryUnsupportedShapeMessageConstant)
	}
}

func decodeSections(root *yaml.Node) (SummaryInput, error) {
	var input SummaryInput

	rowsNode := findSection(root, summarySectionNames)
	if rowsNode == nil || rowsNode.Kind != yaml.SequenceNode {
		return SummaryInput{}, errors.New(summaryUnsupportedShapeMessageConstant)
	}
	rows, rowsError := decodeRows(rowsNode)
	if rowsError != nil {
		return SummaryInput{}, rowsError
	}
	input.Rows = rows

	if totalsNode := findSection(root, globalTotalsSectionNames); totalsNode != nil && totalsNode.Kind == yaml.MappingNode {
		totals, totalsError := decodeMapping(totalsNode)
		if totalsError != nil {
			return SummaryInput{}, fmt.Errorf(summaryTotalsDecodeErrorTemplate, totalsError)
		}
		input.GlobalTotals = totals
		input.GlobalTotalsPresent = true
	}

	return input, nil
}

func findSection(root *yaml.Node, names []string) *yaml.Node {
	for contentIndex := 0; contentIndex+1 < len(root.Content); contentIndex += 2 {
		key := strings.TrimSpace(root.Content[contentIndex].Value)
		for _, name := range names {
			if strings.EqualFold(key, name) {
				return root.Content[contentIndex+1]
			}
		}
	}
	return nil
}

func decodeRows(sequence *yaml.Node) ([]schema.RawRow, error) {
	rows := make([]schema.RawRow, 0, len(sequence.Content))
	for rowIndex, rowNode := range sequence.Content {
		if rowNode.Kind != yaml.MappingNode {
			rows = append(rows, schema.RawRow{})
			continue
		}
		row, rowError := decodeMapping(rowNode)
		if rowError != nil {
			return nil, fmt.Errorf(summaryRowDecodeErrorTemplateConstant, rowIndex, rowError)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeMapping(mapping *yaml.Node) (schema.RawRow, error) {
	row := make(schema.RawRow, 0, len(mapping.Content)/2)
	for contentIndex := 0; contentIndex+1 < len(mapping.Content); contentIndex += 2 {
		var value any
		if decodeError := mapping.Content[contentIndex+1].Decode(&value); decodeError != nil {
			return nil, decodeError
		}
		row = append(row, schema.Field{Key: mapping.Content[contentIndex].Value, Value: value})
	}
	return row, nil
}
