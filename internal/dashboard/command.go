package dashboard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TronnusSaur/dashboard-evidencia/internal/export"
	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
	"github.com/TronnusSaur/dashboard-evidencia/internal/report"
	"github.com/TronnusSaur/dashboard-evidencia/internal/utils/flags"
)

const (
	viewCommandUseConstant                    = "dashboard"
	viewCommandShortDescriptionConstant       = "Print chart series, KPIs, and detail rows for a selection"
	viewCommandLongDescriptionConstant        = "dashboard loads the summary index, applies the company, contract, and category selection, and prints the pie, bar, KPI, and detail data as JSON or YAML."
	exportCommandUseConstant                  = "export"
	exportCommandShortDescriptionConstant     = "Export the detail report of a selection"
	exportCommandLongDescriptionConstant      = "export writes the detail rows of the selection, with the selection description as header context, to a CSV, JSON, YAML, or XLSX file. A global selection also carries the fleet-wide summary."
	summaryCommandUseConstant                 = "summary-report"
	summaryCommandShortDescriptionConstant    = "Export the fleet-wide audit summary"
	summaryCommandLongDescriptionConstant     = "summary-report writes the category share table and the per-company breakdown to a CSV, JSON, YAML, or XLSX file."
	categoriesCommandUseConstant              = "categories"
	categoriesCommandShortDescriptionConstant = "List raw statuses and their condensed categories"
	categoriesCommandLongDescriptionConstant  = "categories prints every raw status discovered in the summary input together with its classification."
	summaryFileFlagNameConstant               = "summary-file"
	summaryFileFlagUsageConstant              = "Summary document (JSON or YAML)"
	recordsDirectoryFlagNameConstant          = "records-dir"
	recordsDirectoryFlagUsageConstant         = "Directory holding <company>_<contract> detail files"
	outputDirectoryFlagNameConstant           = "output-dir"
	outputDirectoryFlagUsageConstant          = "Directory receiving export files"
	documentFormatUsageConstant               = "Output encoding."
	exportFormatUsageConstant                 = "Export encoding."
	unexpectedArgumentsErrorMessageConstant   = "command does not accept positional arguments"
	contractWithoutCompanyErrorMessage        = "--contract requires --company"
	sessionOpenErrorTemplateConstant          = "unable to open dashboard session: %w"
	nothingToExportMessageConstant            = "No records to export for the current selection."
	exportWrittenTemplateConstant             = "%s\n"
	exportSkippedMessageConstant              = "export skipped: nothing to export"
	exportWrittenMessageConstant              = "export written"
	loaderMetricsMessageConstant              = "loader metrics"
	logFieldPathConstant                      = "path"
	logFieldFormatConstant                    = "format"
	logFieldMetricConstant                    = "metric"
	logFieldValueConstant                     = "value"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current dashboard configuration.
type ConfigurationProvider func() Configuration

// CommandDependencies carries the collaborators shared by every dashboard command.
type CommandDependencies struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	SessionOpener         SessionOpener
}

type dataFlagValues struct {
	summaryFile      string
	recordsDirectory string
}

func bindDataFlags(command *cobra.Command) *dataFlagValues {
	values := &dataFlagValues{}
	command.Flags().StringVar(&values.summaryFile, summaryFileFlagNameConstant, "", summaryFileFlagUsageConstant)
	command.Flags().StringVar(&values.recordsDirectory, recordsDirectoryFlagNameConstant, "", recordsDirectoryFlagUsageConstant)
	return values
}

func (dependencies CommandDependencies) resolveLogger() *zap.Logger {
	if dependencies.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := dependencies.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (dependencies CommandDependencies) resolveConfiguration(command *cobra.Command, dataFlags *dataFlagValues) Configuration {
	configuration := DefaultConfiguration()
	if dependencies.ConfigurationProvider != nil {
		configuration = dependencies.ConfigurationProvider()
	}
	if command.Flags().Changed(summaryFileFlagNameConstant) {
		configuration.Data.SummaryFile = dataFlags.summaryFile
	}
	if command.Flags().Changed(recordsDirectoryFlagNameConstant) {
		configuration.Data.RecordsDirectory = dataFlags.recordsDirectory
	}
	return configuration.Sanitize()
}

func (dependencies CommandDependencies) openSession(configuration Configuration, logger *zap.Logger, registry *prometheus.Registry) (*Session, error) {
	opener := dependencies.SessionOpener
	if opener == nil {
		opener = Open
	}
	session, openError := opener(configuration, logger, registry)
	if openError != nil {
		return nil, fmt.Errorf(sessionOpenErrorTemplateConstant, openError)
	}
	return session, nil
}

func applySelection(session *Session, selection *flags.SelectionFlagValues) error {
	company := strings.TrimSpace(selection.Company)
	contract := strings.TrimSpace(selection.Contract)
	companySelected := len(company) > 0 && !strings.EqualFold(company, filter.All)
	contractSelected := len(contract) > 0 && !strings.EqualFold(contract, filter.All)

	if contractSelected && !companySelected {
		return errors.New(contractWithoutCompanyErrorMessage)
	}
	if companySelected {
		if _, selectError := session.SelectCompany(company); selectError != nil {
			return selectError
		}
	}
	if contractSelected {
		if _, selectError := session.SelectContract(contract); selectError != nil {
			return selectError
		}
	}
	for _, category := range selection.Categories {
		session.ToggleCategory(strings.TrimSpace(category))
	}
	return nil
}

func logLoaderMetrics(logger *zap.Logger, registry *prometheus.Registry) {
	families, gatherError := registry.Gather()
	if gatherError != nil {
		return
	}
	for _, family := range families {
		total := 0.0
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		logger.Debug(loaderMetricsMessageConstant,
			zap.String(logFieldMetricConstant, family.GetName()),
			zap.Float64(logFieldValueConstant, total),
		)
	}
}

func rejectArguments(arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}
	return nil
}

func documentFormats() []string {
	return []string{string(export.FormatJSON), string(export.FormatYAML)}
}

// ViewCommandBuilder assembles the dashboard command.
type ViewCommandBuilder struct {
	CommandDependencies
}

// Build constructs the dashboard command.
func (builder *ViewCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   viewCommandUseConstant,
		Short: viewCommandShortDescriptionConstant,
		Long:  viewCommandLongDescriptionConstant,
	}
	selection := flags.BindSelectionFlags(command, flags.SelectionFlagValues{Company: filter.All, Contract: filter.All})
	format := flags.BindFormatFlag(command, string(export.FormatYAML), documentFormats(), documentFormatUsageConstant)
	dataFlags := bindDataFlags(command)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		if argumentsError := rejectArguments(arguments); argumentsError != nil {
			return argumentsError
		}
		outputFormat, formatError := export.ParseFormat(*format)
		if formatError != nil {
			return formatError
		}

		logger := builder.resolveLogger()
		registry := prometheus.NewRegistry()
		session, openError := builder.openSession(builder.resolveConfiguration(command, dataFlags), logger, registry)
		if openError != nil {
			return openError
		}
		if selectionError := applySelection(session, selection); selectionError != nil {
			return selectionError
		}

		view, viewError := session.View(command.Context())
		if viewError != nil {
			return viewError
		}
		logLoaderMetrics(logger, registry)
		return export.WriteDocument(command.OutOrStdout(), outputFormat, view)
	}

	return command, nil
}

// ExportCommandBuilder assembles the export command.
type ExportCommandBuilder struct {
	CommandDependencies
}

// Build constructs the export command.
func (builder *ExportCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   exportCommandUseConstant,
		Short: exportCommandShortDescriptionConstant,
		Long:  exportCommandLongDescriptionConstant,
	}
	selection := flags.BindSelectionFlags(command, flags.SelectionFlagValues{Company: filter.All, Contract: filter.All})
	format := flags.BindFormatFlag(command, "", export.FormatNames(), exportFormatUsageConstant)
	dataFlags := bindDataFlags(command)
	outputDirectory := command.Flags().String(outputDirectoryFlagNameConstant, "", outputDirectoryFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		if argumentsError := rejectArguments(arguments); argumentsError != nil {
			return argumentsError
		}

		logger := builder.resolveLogger()
		configuration := builder.resolveConfiguration(command, dataFlags)
		outputFormat, formatError := resolveExportFormat(command, *format, configuration)
		if formatError != nil {
			return formatError
		}
		directory := resolveOutputDirectory(command, *outputDirectory, configuration)

		registry := prometheus.NewRegistry()
		session, openError := builder.openSession(configuration, logger, registry)
		if openError != nil {
			return openError
		}
		if selectionError := applySelection(session, selection); selectionError != nil {
			return selectionError
		}

		payload, exportError := session.Export(command.Context())
		if errors.Is(exportError, report.ErrNothingToExport) {
			logger.Info(exportSkippedMessageConstant)
			_, printError := fmt.Fprintln(command.OutOrStdout(), nothingToExportMessageConstant)
			return printError
		}
		if exportError != nil {
			return exportError
		}
		logLoaderMetrics(logger, registry)

		fileName := export.DetailFileName(payload.Scope.Company, outputFormat, payload.GeneratedAt)
		filePath, writeError := export.WriteFile(directory, fileName, func(writer io.Writer) error {
			return export.WriteDetail(writer, outputFormat, payload)
		})
		if writeError != nil {
			return writeError
		}
		logger.Info(exportWrittenMessageConstant, zap.String(logFieldPathConstant, filePath), zap.String(logFieldFormatConstant, string(outputFormat)))
		_, printError := fmt.Fprintf(command.OutOrStdout(), exportWrittenTemplateConstant, filePath)
		return printError
	}

	return command, nil
}

// SummaryCommandBuilder assembles the summary-report command.
type SummaryCommandBuilder struct {
	CommandDependencies
}

// Build constructs the summary-report command.
func (builder *SummaryCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   summaryCommandUseConstant,
		Short: summaryCommandShortDescriptionConstant,
		Long:  summaryCommandLongDescriptionConstant,
	}
	format := flags.BindFormatFlag(command, "", export.FormatNames(), exportFormatUsageConstant)
	dataFlags := bindDataFlags(command)
	outputDirectory := command.Flags().String(outputDirectoryFlagNameConstant, "", outputDirectoryFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		if argumentsError := rejectArguments(arguments); argumentsError != nil {
			return argumentsError
		}

		logger := builder.resolveLogger()
		configuration := builder.resolveConfiguration(command, dataFlags)
		outputFormat, formatError := resolveExportFormat(command, *format, configuration)
		if formatError != nil {
			return formatError
		}
		directory := resolveOutputDirectory(command, *outputDirectory, configuration)

		session, openError := builder.openSession(configuration, logger, prometheus.NewRegistry())
		if openError != nil {
			return openError
		}

		generatedAt := session.Now()
		summary := session.Summary()
		filePath, writeError := export.WriteFile(directory, export.SummaryFileName(outputFormat, generatedAt), func(writer io.Writer) error {
			return export.WriteSummary(writer, outputFormat, generatedAt, summary)
		})
		if writeError != nil {
			return writeError
		}
		logger.Info(exportWrittenMessageConstant, zap.String(logFieldPathConstant, filePath), zap.String(logFieldFormatConstant, string(outputFormat)))
		_, printError := fmt.Fprintf(command.OutOrStdout(), exportWrittenTemplateConstant, filePath)
		return printError
	}

	return command, nil
}

// CategoryEntry describes how one raw status is classified.
type CategoryEntry struct {
	Status    string   `json:"status" yaml:"status"`
	Category  string   `json:"category,omitempty" yaml:"category,omitempty"`
	Excluded  bool     `json:"excluded" yaml:"excluded"`
	Composite bool     `json:"composite" yaml:"composite"`
	Stages    []string `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// CategoryListing is the output of the categories command.
type CategoryListing struct {
	Statuses   []CategoryEntry `json:"statuses" yaml:"statuses"`
	Categories []string        `json:"categories" yaml:"categories"`
}

// Categories lists every raw status of the session taxonomy in discovery order.
func (session *Session) Categories() CategoryListing {
	registry := session.summaryIndex.Taxonomy()
	listing := CategoryListing{Categories: registry.Categories()}
	for _, status := range registry.Statuses() {
		classification := registry.Classify(status)
		entry := CategoryEntry{
			Status:    classification.Status,
			Category:  classification.Category,
			Excluded:  classification.Excluded,
			Composite: classification.Composite,
		}
		if classification.Composite {
			entry.Stages = registry.Decompose(status)
		}
		listing.Statuses = append(listing.Statuses, entry)
	}
	return listing
}

// CategoriesCommandBuilder assembles the categories command.
type CategoriesCommandBuilder struct {
	CommandDependencies
}

// Build constructs the categories command.
func (builder *CategoriesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   categoriesCommandUseConstant,
		Short: categoriesCommandShortDescriptionConstant,
		Long:  categoriesCommandLongDescriptionConstant,
	}
	format := flags.BindFormatFlag(command, string(export.FormatYAML), documentFormats(), documentFormatUsageConstant)
	dataFlags := bindDataFlags(command)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		if argumentsError := rejectArguments(arguments); argumentsError != nil {
			return argumentsError
		}
		outputFormat, formatError := export.ParseFormat(*format)
		if formatError != nil {
			return formatError
		}

		session, openError := builder.openSession(builder.resolveConfiguration(command, dataFlags), builder.resolveLogger(), prometheus.NewRegistry())
		if openError != nil {
			return openError
		}
		return export.WriteDocument(command.OutOrStdout(), outputFormat, session.Categories())
	}

	return command, nil
}

func resolveExportFormat(command *cobra.Command, flagValue string, configuration Configuration) (export.Format, error) {
	if command.Flags().Changed(flags.FormatFlagName) {
		return export.ParseFormat(flagValue)
	}
	return export.ParseFormat(configuration.Export.Format)
}

func resolveOutputDirectory(command *cobra.Command, flagValue string, configuration Configuration) string {
	if command.Flags().Changed(outputDirectoryFlagNameConstant) && len(strings.TrimSpace(flagValue)) > 0 {
		return dashboardConfigurationHomeDirectoryExpander.Expand(flagValue)
	}
	return configuration.Export.Directory
}
