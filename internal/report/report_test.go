package report_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
	"github.com/TronnusSaur/dashboard-evidencia/internal/index"
	"github.com/TronnusSaur/dashboard-evidencia/internal/report"
	"github.com/TronnusSaur/dashboard-evidencia/internal/schema"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

const (
	percentToleranceConstant = 0.5
)

func summaryRow(company string, contract string, categories ...schema.Field) schema.RawRow {
	row := schema.RawRow{
		{Key: "EMPRESA_RAIZ_MASTER", Value: company},
		{Key: "ID", Value: contract},
	}
	return append(row, categories...)
}

func fleetIndex() *index.Index {
	return index.Build(index.SummaryInput{Rows: []schema.RawRow{
		summaryRow("Acme", "1",
			schema.Field{Key: "SIN CARPETA", Value: 4},
			schema.Field{Key: "FALTA FOTO FINAL", Value: 6},
			schema.Field{Key: "OK", Value: 30},
		),
		summaryRow("Acme", "2",
			schema.Field{Key: "CARPETA VACÍA", Value: 2},
			schema.Field{Key: "FALTA FOTO INICIAL + FINAL", Value: 3},
			schema.Field{Key: "FALTA FOTO FINAL", Value: 0},
		),
		summaryRow("Beta", "3",
			schema.Field{Key: "SIN CARPETA", Value: 1},
			schema.Field{Key: "FALTA FOTO PROCESO + FINAL", Value: 2},
			schema.Field{Key: "REVISIÓN PENDIENTE", Value: 5},
		),
	}}, taxonomy.New(taxonomy.DefaultRules()), zap.NewNop())
}

func TestDetailRows(testInstance *testing.T) {
	records := []schema.AuditRecord{
		{Folio: "1", Status: "SIN CARPETA", Street: "Hidalgo", District: "Centro", Neighborhood: "La Merced"},
		{Folio: "2", Status: "OK", Street: "Juárez", District: "Centro", Neighborhood: "Santa Clara"},
		{Folio: "3", Status: "FALTA FOTO INICIAL + PROCESO", Street: schema.NotSpecifiedValue, District: "Norte", Neighborhood: "Sauces"},
		{Folio: "4", Status: "ESTADO NUEVO", Street: "Morelos", District: "Sur", Neighborhood: "Centro"},
	}

	testCases := []struct {
		name           string
		state          filter.State
		expectedFolios []string
	}{
		{
			name:           "no category restriction drops only the compliance status",
			state:          filter.NewState().SelectCompany("Acme"),
			expectedFolios: []string{"1", "3", "4"},
		},
		{
			name:           "composite records match the condensed category",
			state:          filter.NewState().SelectCompany("Acme").ToggleCategory(taxonomy.DefaultCompositeLabel),
			expectedFolios: []string{"3"},
		},
		{
			name:           "unseen statuses are filterable by their own label",
			state:          filter.NewState().SelectCompany("Acme").ToggleCategory("ESTADO NUEVO").ToggleCategory("SIN CARPETA"),
			expectedFolios: []string{"1", "4"},
		},
		{
			name:           "compliance category selects nothing",
			state:          filter.NewState().SelectCompany("Acme").ToggleCategory("OK"),
			expectedFolios: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			registry := taxonomy.New(taxonomy.DefaultRules())
			rows := report.DetailRows(records, testCase.state, registry)

			folios := make([]string, 0, len(rows))
			for _, row := range rows {
				folios = append(folios, row.Folio)
			}
			require.Equal(subTest, testCase.expectedFolios, folios)
			require.Contains(subTest, registry.Statuses(), "ESTADO NUEVO")
		})
	}
}

func TestDetailRowCellsFollowColumns(testInstance *testing.T) {
	row := report.DetailRow{Folio: "9", Status: "SIN CARPETA", Street: "Hidalgo", District: "Centro", Neighborhood: "La Merced"}
	require.Len(testInstance, row.Cells(), len(report.DetailColumns()))
	require.Equal(testInstance, []string{"9", "SIN CARPETA", "Hidalgo", "Centro", "La Merced"}, row.Cells())
	require.Equal(testInstance, []string{"Folio", "Estado de Error", "Ubicación (Calle)", "Delegación", "Colonia"}, report.DetailColumns())
}

func TestGlobalSummaryCategoryShares(testInstance *testing.T) {
	summary := report.GlobalSummary(fleetIndex())

	require.Equal(testInstance, 23, summary.TotalOmissions)
	require.Equal(testInstance, []report.CategoryShare{
		{Category: "SIN CARPETA", Count: 5, Percent: 21.7},
		{Category: "FALTA FOTO FINAL", Count: 6, Percent: 26.1},
		{Category: "CARPETA VACÍA", Count: 2, Percent: 8.7},
		{Category: "FALTA FOTO INICIAL + FINAL", Count: 3, Percent: 13.0},
		{Category: "FALTA FOTO PROCESO + FINAL", Count: 2, Percent: 8.7},
		{Category: "REVISIÓN PENDIENTE", Count: 5, Percent: 21.7},
	}, summary.Categories)

	percentSum := 0.0
	for _, share := range summary.Categories {
		percentSum += share.Percent
	}
	require.InDelta(testInstance, 100.0, percentSum, percentToleranceConstant)
}

func TestGlobalSummaryCompanyBreakdown(testInstance *testing.T) {
	breakdown := report.GlobalSummary(fleetIndex()).Breakdown

	require.Equal(testInstance, []string{
		"SIN CARPETA", "FALTA FOTO FINAL", "CARPETA VACÍA", "INICIAL", "PROCESO", "REVISIÓN PENDIENTE",
	}, breakdown.Columns)
	require.Equal(testInstance, []report.CompanyRow{
		{Company: "Acme", Cells: []int{4, 9, 2, 3, 0, 0}, Total: 15, Overlap: 3},
		{Company: "Beta", Cells: []int{1, 2, 0, 0, 2, 5}, Total: 8, Overlap: 2},
	}, breakdown.Rows)
	require.Equal(testInstance, "Empresa", breakdown.Header()[0])
	require.Equal(testInstance, "Total", breakdown.Header()[len(breakdown.Header())-1])
	require.Len(testInstance, breakdown.Header(), len(breakdown.Columns)+2)
}

func TestGlobalSummaryCompositeJoinsPrimitiveColumns(testInstance *testing.T) {
	built := index.Build(index.SummaryInput{Rows: []schema.RawRow{
		summaryRow("Acme", "1",
			schema.Field{Key: "FALTA: INICIAL", Value: 1},
			schema.Field{Key: "FALTA: FINAL", Value: 6},
			schema.Field{Key: "FALTA: INICIAL + FINAL", Value: 2},
		),
	}}, taxonomy.New(taxonomy.DefaultRules()), zap.NewNop())

	breakdown := report.GlobalSummary(built).Breakdown
	require.Equal(testInstance, []string{"FALTA: INICIAL", "FALTA: FINAL"}, breakdown.Columns)
	require.Equal(testInstance, []report.CompanyRow{
		{Company: "Acme", Cells: []int{3, 8}, Total: 9, Overlap: 2},
	}, breakdown.Rows)
}

func TestGlobalSummaryOrdering(testInstance *testing.T) {
	built := index.Build(index.SummaryInput{Rows: []schema.RawRow{
		summaryRow("Gamma", "1", schema.Field{Key: "SIN CARPETA", Value: 2}),
		summaryRow("Delta", "1", schema.Field{Key: "SIN CARPETA", Value: 9}),
		summaryRow("Epsilon", "1", schema.Field{Key: "SIN CARPETA", Value: 2}),
	}}, taxonomy.New(taxonomy.DefaultRules()), zap.NewNop())

	rows := report.GlobalSummary(built).Breakdown.Rows
	companies := make([]string, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, row.Company)
	}
	require.Equal(testInstance, []string{"Delta", "Gamma", "Epsilon"}, companies)
}

func TestGlobalSummaryZeroTotal(testInstance *testing.T) {
	built := index.Build(index.SummaryInput{Rows: []schema.RawRow{
		summaryRow("Acme", "1", schema.Field{Key: "SIN CARPETA", Value: 0}, schema.Field{Key: "OK", Value: 12}),
		summaryRow("Acme", "2", schema.Field{Key: "FALTA FOTO FINAL", Value: "n/a"}),
	}}, taxonomy.New(taxonomy.DefaultRules()), zap.NewNop())

	summary := report.GlobalSummary(built)
	require.Zero(testInstance, summary.TotalOmissions)
	require.Len(testInstance, summary.Categories, 2)
	for _, share := range summary.Categories {
		require.Zero(testInstance, share.Percent)
	}
	require.Equal(testInstance, []report.CompanyRow{
		{Company: "Acme", Cells: []int{0, 0}, Total: 0, Overlap: 0},
	}, summary.Breakdown.Rows)
}

func TestBuildDetailExport(testInstance *testing.T) {
	built := fleetIndex()
	generatedAt := time.Date(2024, time.March, 4, 10, 30, 0, 0, time.UTC)
	rows := []report.DetailRow{{Folio: "1", Status: "SIN CARPETA", Street: "Hidalgo", District: "Centro", Neighborhood: "La Merced"}}

	testCases := []struct {
		name            string
		state           filter.State
		rows            []report.DetailRow
		expectedError   error
		expectedScope   filter.ScopeDescription
		expectedSummary bool
	}{
		{
			name:          "company scope without rows has nothing to export",
			state:         filter.NewState().SelectCompany("Acme"),
			expectedError: report.ErrNothingToExport,
		},
		{
			name:          "contract scope without rows has nothing to export",
			state:         filter.NewState().SelectCompany("Acme").SelectContract("2"),
			expectedError: report.ErrNothingToExport,
		},
		{
			name:            "global scope succeeds without rows",
			state:           filter.NewState(),
			expectedScope:   filter.ScopeDescription{Company: "Todas", Contract: "General", Categories: []string{"Todos los tipos"}},
			expectedSummary: true,
		},
		{
			name:          "contract scope with rows",
			state:         filter.NewState().SelectCompany("Acme").SelectContract("1").ToggleCategory("SIN CARPETA"),
			rows:          rows,
			expectedScope: filter.ScopeDescription{Company: "Acme", Contract: "1", Categories: []string{"SIN CARPETA"}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			payload, buildError := report.BuildDetailExport(testCase.state, testCase.rows, built, generatedAt)
			if testCase.expectedError != nil {
				require.ErrorIs(subTest, buildError, testCase.expectedError)
				return
			}
			require.NoError(subTest, buildError)

			_, parseError := uuid.Parse(payload.ID)
			require.NoError(subTest, parseError)
			require.Equal(subTest, generatedAt, payload.GeneratedAt)
			require.Equal(subTest, testCase.expectedScope, payload.Scope)
			require.Equal(subTest, len(testCase.rows), payload.TotalFolios)
			require.Equal(subTest, report.DetailColumns(), payload.Columns)
			require.Equal(subTest, testCase.expectedSummary, payload.Summary != nil)
			if payload.Summary != nil {
				require.Equal(subTest, 23, payload.Summary.TotalOmissions)
			}
		})
	}
}
