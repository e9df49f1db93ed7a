package dashboard

import (
	"strings"

	"github.com/TronnusSaur/dashboard-evidencia/internal/aggregate"
	"github.com/TronnusSaur/dashboard-evidencia/internal/export"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
	pathutils "github.com/TronnusSaur/dashboard-evidencia/internal/utils/path"
)

var dashboardConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	defaultSummaryFileConstant        = "data/resumen.json"
	defaultRecordsDirectoryConstant   = "data/detalle"
	defaultExportDirectoryConstant    = "reportes"
	defaultMaxConcurrencyConstant     = 8
	dataSummaryFileKeyConstant        = "data.summary_file"
	dataRecordsDirectoryKeyConstant   = "data.records_directory"
	taxonomyComplianceKeyConstant     = "taxonomy.compliance_status"
	taxonomyCompositeLabelKeyConstant = "taxonomy.composite_label"
	taxonomyConjunctionKeyConstant    = "taxonomy.conjunction_markers"
	taxonomyStageKeywordsKeyConstant  = "taxonomy.stage_keywords"
	loaderMaxConcurrencyKeyConstant   = "loader.max_concurrency"
	exportDirectoryKeyConstant        = "export.directory"
	exportFormatKeyConstant           = "export.format"
)

// Configuration aggregates the settings of the dashboard commands.
type Configuration struct {
	Data     DataConfiguration   `mapstructure:"data"`
	Taxonomy taxonomy.Rules      `mapstructure:"taxonomy"`
	KPI      KPIConfiguration    `mapstructure:"kpi"`
	Loader   LoaderConfiguration `mapstructure:"loader"`
	Export   ExportConfiguration `mapstructure:"export"`
}

// DataConfiguration locates the summary document and the per-contract detail files.
type DataConfiguration struct {
	SummaryFile      string `mapstructure:"summary_file"`
	RecordsDirectory string `mapstructure:"records_directory"`
}

// KPIConfiguration lists the KPI buckets in match order.
type KPIConfiguration struct {
	Rules []aggregate.KPIRule `mapstructure:"rules"`
}

// LoaderConfiguration bounds detail fetching.
type LoaderConfiguration struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// ExportConfiguration controls where and how exports are written.
type ExportConfiguration struct {
	Directory string `mapstructure:"directory"`
	Format    string `mapstructure:"format"`
}

// DefaultConfiguration returns baseline values for the dashboard commands.
func DefaultConfiguration() Configuration {
	return Configuration{
		Data: DataConfiguration{
			SummaryFile:      defaultSummaryFileConstant,
			RecordsDirectory: defaultRecordsDirectoryConstant,
		},
		Taxonomy: taxonomy.DefaultRules(),
		KPI:      KPIConfiguration{Rules: aggregate.DefaultKPIRules()},
		Loader:   LoaderConfiguration{MaxConcurrency: defaultMaxConcurrencyConstant},
		Export: ExportConfiguration{
			Directory: defaultExportDirectoryConstant,
			Format:    string(export.FormatXLSX),
		},
	}
}

// DefaultConfigurationValues returns the scalar defaults keyed for the configuration loader.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		dataSummaryFileKeyConstant:        defaults.Data.SummaryFile,
		dataRecordsDirectoryKeyConstant:   defaults.Data.RecordsDirectory,
		taxonomyComplianceKeyConstant:     defaults.Taxonomy.ComplianceStatus,
		taxonomyCompositeLabelKeyConstant: defaults.Taxonomy.CompositeLabel,
		taxonomyConjunctionKeyConstant:    defaults.Taxonomy.ConjunctionMarkers,
		taxonomyStageKeywordsKeyConstant:  defaults.Taxonomy.StageKeywords,
		loaderMaxConcurrencyKeyConstant:   defaults.Loader.MaxConcurrency,
		exportDirectoryKeyConstant:        defaults.Export.Directory,
		exportFormatKeyConstant:           defaults.Export.Format,
	}
}

// Sanitize trims configured values, expands home-relative paths, and restores defaults for blank entries.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Data.SummaryFile = sanitizePath(configuration.Data.SummaryFile, defaults.Data.SummaryFile)
	sanitized.Data.RecordsDirectory = sanitizePath(configuration.Data.RecordsDirectory, defaults.Data.RecordsDirectory)
	sanitized.Taxonomy = configuration.Taxonomy.Sanitize()
	sanitized.KPI.Rules = aggregate.SanitizeKPIRules(configuration.KPI.Rules)
	if sanitized.Loader.MaxConcurrency <= 0 {
		sanitized.Loader.MaxConcurrency = defaults.Loader.MaxConcurrency
	}
	sanitized.Export.Directory = sanitizePath(configuration.Export.Directory, defaults.Export.Directory)
	sanitized.Export.Format = strings.ToLower(strings.TrimSpace(configuration.Export.Format))
	if len(sanitized.Export.Format) == 0 {
		sanitized.Export.Format = defaults.Export.Format
	}

	return sanitized
}

func sanitizePath(candidatePath string, fallback string) string {
	expanded := dashboardConfigurationHomeDirectoryExpander.Expand(candidatePath)
	if len(expanded) == 0 {
		return fallback
	}
	return expanded
}
