package index_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TronnusSaur/dashboard-evidencia/internal/index"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

const (
	acmeBetaSummaryDocumentConstant = `{
  "summary": [
    {"EMPRESA_RAIZ_MASTER": "Acme", "ID": 1, "TOTAL_OMISIONES": 10, "SIN CARPETA": 4, "FALTA: FINAL": 6},
    {"EMPRESA_RAIZ_MASTER": "Acme", "ID": 2, "TOTAL_OMISIONES": 3, "SIN CARPETA": 1, "CARPETA VACÍA": 2, "OK": 40},
    {"EMPRESA_RAIZ_MASTER": "Beta", "ID": 3, "TOTAL_OMISIONES": 5, "FALTA FOTO INICIAL + FINAL": 5},
    {"ID": 4, "SIN CARPETA": 9},
    {"EMPRESA_RAIZ_MASTER": "Acme", "ID": 1, "SIN CARPETA": 99}
  ],
  "global_totals": {"SIN CARPETA": 5, "FALTA: FINAL": 6, "CARPETA VACÍA": 2, "FALTA FOTO INICIAL + FINAL": 5, "EVIDENCIA INCOMPLETA": 0}
}`
)

func buildAcmeBetaIndex(testInstance *testing.T, logger *zap.Logger) *index.Index {
	testInstance.Helper()
	input, readError := index.ReadSummaryInput(strings.NewReader(acmeBetaSummaryDocumentConstant))
	require.NoError(testInstance, readError)
	return index.Build(input, taxonomy.New(taxonomy.DefaultRules()), logger)
}

func TestBuildGroupsContractsByCompany(testInstance *testing.T) {
	built := buildAcmeBetaIndex(testInstance, zap.NewNop())

	require.Equal(testInstance, []string{"Acme", "Beta"}, built.Companies())
	require.Equal(testInstance, []string{"1", "2"}, built.ContractsOf("Acme"))
	require.Equal(testInstance, []string{"3"}, built.ContractsOf("Beta"))
	require.Empty(testInstance, built.ContractsOf("Gamma"))
	require.True(testInstance, built.HasCompany("Beta"))
	require.False(testInstance, built.HasCompany("Gamma"))

	summary, found := built.SummaryOf("Acme", "2")
	require.True(testInstance, found)
	require.Equal(testInstance, 3, summary.TotalOmissions)
	require.Equal(testInstance, 40, summary.Compliant)
	require.Equal(testInstance, []string{"SIN CARPETA", "CARPETA VACÍA"}, summary.Statuses())

	_, missing := built.SummaryOf("Beta", "1")
	require.False(testInstance, missing)
}

func TestBuildKeepsTotalsEqualToCategorySums(testInstance *testing.T) {
	built := buildAcmeBetaIndex(testInstance, zap.NewNop())

	for _, summary := range built.Summaries() {
		categorySum := 0
		for _, status := range summary.Statuses() {
			categorySum += summary.Count(status)
		}
		require.Equal(testInstance, categorySum, summary.TotalOmissions)
	}
}

func TestBuildFirstDuplicateWins(testInstance *testing.T) {
	built := buildAcmeBetaIndex(testInstance, zap.NewNop())

	summary, found := built.SummaryOf("Acme", "1")
	require.True(testInstance, found)
	require.Equal(testInstance, 4, summary.Count("SIN CARPETA"))
	require.Len(testInstance, built.Summaries(), 3)
}

func TestBuildLogsDataQualityIssues(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	buildAcmeBetaIndex(testInstance, zap.New(observedCore))

	messages := make([]string, 0, observedLogs.Len())
	for _, entry := range observedLogs.All() {
		messages = append(messages, entry.Message)
	}
	require.Contains(testInstance, messages, "summary row skipped: missing company or contract identifier")
	require.Contains(testInstance, messages, "summary row skipped: duplicate contract")
	require.NotContains(testInstance, messages, "global total does not match contract rows; using contract rows")
}

func TestBuildObservesRowAndGlobalCategories(testInstance *testing.T) {
	built := buildAcmeBetaIndex(testInstance, zap.NewNop())

	require.Equal(testInstance, []string{
		"SIN CARPETA",
		"FALTA: FINAL",
		"CARPETA VACÍA",
		"OK",
		"FALTA FOTO INICIAL + FINAL",
		"EVIDENCIA INCOMPLETA",
	}, built.Taxonomy().Statuses())
	require.Equal(testInstance, map[string]int{
		"SIN CARPETA":                5,
		"FALTA: FINAL":               6,
		"CARPETA VACÍA":              2,
		"FALTA FOTO INICIAL + FINAL": 5,
	}, built.GlobalTotals())
}

func TestBuildReportsGlobalTotalMismatch(testInstance *testing.T) {
	input, readError := index.ReadSummaryInput(strings.NewReader(`
summary:
  - empresa: Acme
    contrato: "7"
    SIN CARPETA: 2
global_totals:
  SIN CARPETA: 3
`))
	require.NoError(testInstance, readError)

	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	built := index.Build(input, taxonomy.New(taxonomy.DefaultRules()), zap.New(observedCore))

	require.Equal(testInstance, 2, built.GlobalTotals()["SIN CARPETA"])
	require.Equal(testInstance, 1, observedLogs.FilterMessage("global total does not match contract rows; using contract rows").Len())
}

func TestReadSummaryInputShapes(testInstance *testing.T) {
	bareList, bareListError := index.ReadSummaryInput(strings.NewReader(`[{"EMPRESA_RAIZ_MASTER": "Acme", "ID": "1", "B": 1, "A": 2}]`))
	require.NoError(testInstance, bareListError)
	require.Len(testInstance, bareList.Rows, 1)
	require.False(testInstance, bareList.GlobalTotalsPresent)
	require.Equal(testInstance, "B", bareList.Rows[0][2].Key)
	require.Equal(testInstance, "A", bareList.Rows[0][3].Key)

	empty, emptyError := index.ReadSummaryInput(strings.NewReader(""))
	require.NoError(testInstance, emptyError)
	require.Empty(testInstance, empty.Rows)

	_, scalarError := index.ReadSummaryInput(strings.NewReader(`"just text"`))
	require.Error(testInstance, scalarError)

	_, missingSectionError := index.ReadSummaryInput(strings.NewReader(`{"global_totals": {"A": 1}}`))
	require.Error(testInstance, missingSectionError)
}
