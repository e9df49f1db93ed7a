package dashboard

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/TronnusSaur/dashboard-evidencia/internal/index"
	"github.com/TronnusSaur/dashboard-evidencia/internal/loader"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

const (
	summaryLoadErrorTemplateConstant = "unable to load summary %s: %w"
	sessionOpenedMessageConstant     = "dashboard session opened"
	logFieldSummaryFileConstant      = "summary_file"
	logFieldRecordsDirectoryConstant = "records_directory"
	logFieldCompanyCountConstant     = "company_count"
)

// SessionOpener builds a session from configuration.
type SessionOpener func(configuration Configuration, logger *zap.Logger, registerer prometheus.Registerer) (*Session, error)

// Open reads the summary document, builds the index, and attaches a directory-backed loader.
func Open(configuration Configuration, logger *zap.Logger, registerer prometheus.Registerer) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sanitized := configuration.Sanitize()

	summaryInput, readError := index.ReadSummaryFile(sanitized.Data.SummaryFile)
	if readError != nil {
		return nil, fmt.Errorf(summaryLoadErrorTemplateConstant, sanitized.Data.SummaryFile, readError)
	}

	summaryIndex := index.Build(summaryInput, taxonomy.New(sanitized.Taxonomy), logger)
	recordLoader := loader.New(
		loader.NewDirectorySource(sanitized.Data.RecordsDirectory),
		summaryIndex,
		loader.WithLogger(logger),
		loader.WithMetrics(loader.NewMetrics(registerer)),
		loader.WithMaxConcurrency(sanitized.Loader.MaxConcurrency),
	)

	logger.Info(sessionOpenedMessageConstant,
		zap.String(logFieldSummaryFileConstant, sanitized.Data.SummaryFile),
		zap.String(logFieldRecordsDirectoryConstant, sanitized.Data.RecordsDirectory),
		zap.Int(logFieldCompanyCountConstant, len(summaryIndex.Companies())),
	)

	return NewSession(summaryIndex, recordLoader,
		WithSessionLogger(logger),
		WithKPIRules(sanitized.KPI.Rules),
	), nil
}
