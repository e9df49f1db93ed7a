package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TronnusSaur/dashboard-evidencia/internal/schema"
)

const (
	keySeparatorConstant              = "_"
	detailDecodeErrorTemplateConstant = "failed to decode detail records %s: %w"
	detailReadErrorTemplateConstant   = "failed to read detail records %s: %w"
	invalidKeyTemplateConstant        = "invalid detail key %q"
)

// ErrSourceNotFound reports that no detail data exists for a key.
var ErrSourceNotFound = fmt.Errorf("detail records not found: %w", fs.ErrNotExist)

var detailFileExtensions = []string{".json", ".yaml", ".yml"}

// Source fetches the raw detail records stored under one company/contract key.
type Source interface {
	Fetch(executionContext context.Context, key string) ([]schema.AuditRecord, error)
}

// Key builds the detail key of a contract.
func Key(company string, contractID string) string {
	return company + keySeparatorConstant + contractID
}

// DirectorySource reads detail records from <directory>/<key>.json (or .yaml/.yml).
type DirectorySource struct {
	directory string
}

// NewDirectorySource constructs a source rooted at directory.
func NewDirectorySource(directory string) *DirectorySource {
	return &DirectorySource{directory: directory}
}

// Fetch reads and normalizes the records of key. A missing file yields ErrSourceNotFound.
func (source *DirectorySource) Fetch(executionContext context.Context, key string) ([]schema.AuditRecord, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	if !validKey(key) {
		return nil, fmt.Errorf(invalidKeyTemplateConstant, key)
	}

	for _, extension := range detailFileExtensions {
		filePath := filepath.Join(source.directory, key+extension)
		content, readError := os.ReadFile(filePath)
		if errors.Is(readError, fs.ErrNotExist) {
			continue
		}
		if readError != nil {
			return nil, fmt.Errorf(detailReadErrorTemplateConstant, filePath, readError)
		}
		return decodeDetailRecords(filePath, content)
	}

	return nil, ErrSourceNotFound
}

func decodeDetailRecords(filePath string, content []byte) ([]schema.AuditRecord, error) {
	var rawRecords []map[string]any
	if decodeError := yaml.Unmarshal(content, &rawRecords); decodeError != nil {
		var wrapper struct {
			Records []map[string]any `yaml:"records"`
		}
		if wrapperError := yaml.Unmarshal(content, &wrapper); wrapperError != nil {
			return nil, fmt.Errorf(detailDecodeErrorTemplateConstant, filePath, decodeError)
		}
		rawRecords = wrapper.Records
	}
	return schema.NormalizeRecords(rawRecords), nil
}

func validKey(key string) bool {
	if len(strings.TrimSpace(key)) == 0 {
		return false
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return false
	}
	return true
}

// MemorySource serves detail records from memory, keyed like DirectorySource.
type MemorySource map[string][]schema.AuditRecord

// Fetch returns a copy of the records stored under key.
func (source MemorySource) Fetch(executionContext context.Context, key string) ([]schema.AuditRecord, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	records, found := source[key]
	if !found {
		return nil, ErrSourceNotFound
	}
	return append([]schema.AuditRecord(nil), records...), nil
}
