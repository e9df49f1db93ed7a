// Package export encodes report payloads into document formats.
package export

import (
	"fmt"
	"strings"
)

// Format identifies an export encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

const (
	unsupportedFormatTemplateConstant = "unsupported export format %q (expected one of %s)"
	formatSeparatorConstant           = ", "
)

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatYAML, FormatXLSX}
}

// FormatNames lists the supported formats as strings.
func FormatNames() []string {
	formats := Formats()
	names := make([]string, 0, len(formats))
	for _, format := range formats {
		names = append(names, string(format))
	}
	return names
}

// ParseFormat resolves a format name case-insensitively. "yml" is accepted for YAML.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "yml" {
		return FormatYAML, nil
	}
	for _, format := range Formats() {
		if string(format) == normalized {
			return format, nil
		}
	}
	return "", unsupportedFormatError(value)
}

func unsupportedFormatError(value string) error {
	return fmt.Errorf(unsupportedFormatTemplateConstant, value, strings.Join(FormatNames(), formatSeparatorConstant))
}

// Extension returns the file extension of the format without the leading dot.
func (format Format) Extension() string {
	return string(format)
}
