package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	detailFileTemplateConstant           = "Reporte_Evidencia_%s_%d.%s"
	summaryFileTemplateConstant          = "Resumen_General_Auditoria_%d.%s"
	companyPrefixLengthConstant          = 5
	exportDirectoryErrorTemplateConstant = "failed to create export directory %s: %w"
	exportFileErrorTemplateConstant      = "failed to write export file %s: %w"
	exportDirectoryPermissions           = 0o755
)

// DetailFileName names a detail export after the first characters of the company and the generation time.
func DetailFileName(company string, format Format, generatedAt time.Time) string {
	return fmt.Sprintf(detailFileTemplateConstant, companyPrefix(company), generatedAt.UnixMilli(), format.Extension())
}

// SummaryFileName names a global summary export after the generation time.
func SummaryFileName(format Format, generatedAt time.Time) string {
	return fmt.Sprintf(summaryFileTemplateConstant, generatedAt.UnixMilli(), format.Extension())
}

func companyPrefix(company string) string {
	prefix := make([]rune, 0, companyPrefixLengthConstant)
	for _, character := range strings.TrimSpace(company) {
		if len(prefix) == companyPrefixLengthConstant {
			break
		}
		if unicode.IsLetter(character) || unicode.IsDigit(character) {
			prefix = append(prefix, character)
			continue
		}
		prefix = append(prefix, '_')
	}
	return string(prefix)
}

// WriteFile creates directory if needed and writes the file produced by write into it.
// It returns the path of the written file.
func WriteFile(directory string, name string, write func(io.Writer) error) (string, error) {
	if mkdirError := os.MkdirAll(directory, exportDirectoryPermissions); mkdirError != nil {
		return "", fmt.Errorf(exportDirectoryErrorTemplateConstant, directory, mkdirError)
	}

	filePath := filepath.Join(directory, name)
	file, createError := os.Create(filePath)
	if createError != nil {
		return "", fmt.Errorf(exportFileErrorTemplateConstant, filePath, createError)
	}
	if writeError := write(file); writeError != nil {
		_ = file.Close()
		return "", fmt.Errorf(exportFileErrorTemplateConstant, filePath, writeError)
	}
	if closeError := file.Close(); closeError != nil {
		return "", fmt.Errorf(exportFileErrorTemplateConstant, filePath, closeError)
	}
	return filePath, nil
}
