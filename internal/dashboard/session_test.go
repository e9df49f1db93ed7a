package dashboard_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TronnusSaur/dashboard-evidencia/internal/aggregate"
	"github.com/TronnusSaur/dashboard-evidencia/internal/dashboard"
	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
	"github.com/TronnusSaur/dashboard-evidencia/internal/index"
	"github.com/TronnusSaur/dashboard-evidencia/internal/loader"
	"github.com/TronnusSaur/dashboard-evidencia/internal/report"
	"github.com/TronnusSaur/dashboard-evidencia/internal/schema"
	"github.com/TronnusSaur/dashboard-evidencia/internal/taxonomy"
)

const (
	sessionSummaryDocumentConstant = `{
  "summary": [
    {"EMPRESA_RAIZ_MASTER": "Acme", "ID": 1, "SIN CARPETA": 2, "FALTA FOTO FINAL": 1, "OK": 10},
    {"EMPRESA_RAIZ_MASTER": "Acme", "ID": 2, "CARPETA VACÍA": 1},
    {"EMPRESA_RAIZ_MASTER": "Beta", "ID": 3, "FALTA FOTO INICIAL + FINAL": 4}
  ]
}`
	sessionTestTimeout = 5 * time.Second
)

var sessionClockInstant = time.Date(2024, time.March, 4, 10, 30, 0, 0, time.UTC)

func sessionRecords() loader.MemorySource {
	return loader.MemorySource{
		"Acme_1": {
			{Folio: "A-1", Status: "SIN CARPETA", Street: "Hidalgo", District: "Centro", Neighborhood: "Norte"},
			{Folio: "A-2", Status: "SIN CARPETA", Street: "Juárez", District: "Centro", Neighborhood: "Sur"},
			{Folio: "A-3", Status: "FALTA FOTO FINAL", Street: "Morelos", District: "Oriente", Neighborhood: "Este"},
			{Folio: "A-4", Status: "OK", Street: "Allende", District: "Oriente", Neighborhood: "Este"},
		},
		"Acme_2": {
			{Folio: "A-5", Status: "CARPETA VACÍA", Street: "Madero", District: "Poniente", Neighborhood: "Oeste"},
		},
	}
}

func buildSessionIndex(testInstance *testing.T) *index.Index {
	testInstance.Helper()
	input, readError := index.ReadSummaryInput(strings.NewReader(sessionSummaryDocumentConstant))
	require.NoError(testInstance, readError)
	return index.Build(input, taxonomy.New(taxonomy.DefaultRules()), zap.NewNop())
}

func newTestSession(testInstance *testing.T, source loader.Source) *dashboard.Session {
	testInstance.Helper()
	summaryIndex := buildSessionIndex(testInstance)
	return dashboard.NewSession(
		summaryIndex,
		loader.New(source, summaryIndex),
		dashboard.WithClock(func() time.Time { return sessionClockInstant }),
	)
}

func folios(rows []report.DetailRow) []string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.Folio)
	}
	return values
}

func TestSessionSelectionTransitions(testInstance *testing.T) {
	testCases := []struct {
		name             string
		apply            func(session *dashboard.Session) error
		expectedCompany  string
		expectedContract string
		expectedError    error
	}{
		{
			name: "known company",
			apply: func(session *dashboard.Session) error {
				_, selectError := session.SelectCompany("Acme")
				return selectError
			},
			expectedCompany:  "Acme",
			expectedContract: filter.All,
		},
		{
			name: "unknown company keeps selection",
			apply: func(session *dashboard.Session) error {
				_, selectError := session.SelectCompany("Gamma")
				return selectError
			},
			expectedCompany:  filter.All,
			expectedContract: filter.All,
			expectedError:    dashboard.ErrUnknownSelection,
		},
		{
			name: "known contract",
			apply: func(session *dashboard.Session) error {
				if _, selectError := session.SelectCompany("Acme"); selectError != nil {
					return selectError
				}
				_, selectError := session.SelectContract("2")
				return selectError
			},
			expectedCompany:  "Acme",
			expectedContract: "2",
		},
		{
			name: "contract of another company",
			apply: func(session *dashboard.Session) error {
				if _, selectError := session.SelectCompany("Acme"); selectError != nil {
					return selectError
				}
				_, selectError := session.SelectContract("3")
				return selectError
			},
			expectedCompany:  "Acme",
			expectedContract: filter.All,
			expectedError:    dashboard.ErrUnknownSelection,
		},
		{
			name: "contract without company is ignored",
			apply: func(session *dashboard.Session) error {
				_, selectError := session.SelectContract("1")
				return selectError
			},
			expectedCompany:  filter.All,
			expectedContract: filter.All,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			session := newTestSession(subTest, sessionRecords())
			applyError := testCase.apply(session)
			if testCase.expectedError != nil {
				require.ErrorIs(subTest, applyError, testCase.expectedError)
			} else {
				require.NoError(subTest, applyError)
			}
			require.Equal(subTest, testCase.expectedCompany, session.State().Company())
			require.Equal(subTest, testCase.expectedContract, session.State().Contract())
		})
	}
}

func TestSessionViewForCompany(testInstance *testing.T) {
	session := newTestSession(testInstance, sessionRecords())
	_, selectError := session.SelectCompany("Acme")
	require.NoError(testInstance, selectError)

	view, viewError := session.View(context.Background())
	require.NoError(testInstance, viewError)

	require.Equal(testInstance, filter.ScopeDescription{
		Company:    "Acme",
		Contract:   filter.GeneralContract,
		Categories: []string{filter.AllCategoriesLabel},
	}, view.Scope)
	require.Equal(testInstance, []string{filter.All, "Acme", "Beta"}, view.Companies)
	require.Equal(testInstance, []string{filter.All, "1", "2"}, view.Contracts)
	require.Equal(testInstance, []string{"A-1", "A-2", "A-3", "A-5"}, folios(view.Rows))
	require.Equal(testInstance, []aggregate.Slice{
		{Name: "SIN CARPETA", Value: 2},
		{Name: "FALTA FOTO FINAL", Value: 1},
		{Name: "CARPETA VACÍA", Value: 1},
	}, view.Pie)
	require.Equal(testInstance, 4, view.KPI.TotalOmissions)
	require.Equal(testInstance, 10, view.KPI.Compliant)
	require.Equal(testInstance, filter.All, view.Categories[0])
	require.NotContains(testInstance, view.Categories, taxonomy.DefaultComplianceStatus)
}

func TestSessionViewAppliesCategoryRestriction(testInstance *testing.T) {
	session := newTestSession(testInstance, sessionRecords())
	_, selectError := session.SelectCompany("Acme")
	require.NoError(testInstance, selectError)
	session.ToggleCategory("SIN CARPETA")

	view, viewError := session.View(context.Background())
	require.NoError(testInstance, viewError)
	require.Equal(testInstance, []string{"A-1", "A-2"}, folios(view.Rows))
	require.Equal(testInstance, []string{"SIN CARPETA"}, view.Scope.Categories)

	session.ToggleCategory(filter.All)
	cleared, clearedError := session.View(context.Background())
	require.NoError(testInstance, clearedError)
	require.Len(testInstance, cleared.Rows, 4)
}

func TestSessionGlobalViewHasNoRows(testInstance *testing.T) {
	session := newTestSession(testInstance, sessionRecords())

	view, viewError := session.View(context.Background())
	require.NoError(testInstance, viewError)
	require.Empty(testInstance, view.Rows)
	require.Equal(testInstance, []string{filter.All}, view.Contracts)
	require.Equal(testInstance, 8, view.KPI.TotalOmissions)
}

func TestSessionExport(testInstance *testing.T) {
	testCases := []struct {
		name            string
		company         string
		contract        string
		expectedFolios  []string
		expectedSummary bool
		expectedError   error
	}{
		{
			name:            "global scope carries summary",
			company:         filter.All,
			contract:        filter.All,
			expectedFolios:  []string{},
			expectedSummary: true,
		},
		{
			name:           "single contract",
			company:        "Acme",
			contract:       "1",
			expectedFolios: []string{"A-1", "A-2", "A-3"},
		},
		{
			name:          "company without detail records",
			company:       "Beta",
			contract:      filter.All,
			expectedError: report.ErrNothingToExport,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			session := newTestSession(subTest, sessionRecords())
			_, companyError := session.SelectCompany(testCase.company)
			require.NoError(subTest, companyError)
			_, contractError := session.SelectContract(testCase.contract)
			require.NoError(subTest, contractError)

			payload, exportError := session.Export(context.Background())
			if testCase.expectedError != nil {
				require.ErrorIs(subTest, exportError, testCase.expectedError)
				return
			}
			require.NoError(subTest, exportError)
			require.Equal(subTest, testCase.expectedFolios, folios(payload.Rows))
			require.Equal(subTest, len(testCase.expectedFolios), payload.TotalFolios)
			require.Equal(subTest, sessionClockInstant, payload.GeneratedAt)
			require.Equal(subTest, testCase.expectedSummary, payload.Summary != nil)
			require.NotEmpty(subTest, payload.ID)
		})
	}
}

type gatedSource struct {
	records loader.MemorySource
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (source *gatedSource) Fetch(executionContext context.Context, key string) ([]schema.AuditRecord, error) {
	source.once.Do(func() { close(source.started) })
	<-source.release
	return source.records.Fetch(executionContext, key)
}

func TestSessionViewDiscardsResultsAfterSelectionChange(testInstance *testing.T) {
	source := &gatedSource{
		records: sessionRecords(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	session := newTestSession(testInstance, source)
	_, selectError := session.SelectCompany("Acme")
	require.NoError(testInstance, selectError)

	viewErrors := make(chan error, 1)
	go func() {
		_, viewError := session.View(context.Background())
		viewErrors <- viewError
	}()

	select {
	case <-source.started:
	case <-time.After(sessionTestTimeout):
		testInstance.Fatal("detail fetch never started")
	}
	_, betaError := session.SelectCompany("Beta")
	require.NoError(testInstance, betaError)
	close(source.release)

	select {
	case viewError := <-viewErrors:
		require.ErrorIs(testInstance, viewError, loader.ErrSuperseded)
	case <-time.After(sessionTestTimeout):
		testInstance.Fatal("view never completed")
	}
	require.Equal(testInstance, "Beta", session.State().Company())
}

func TestSessionCategoriesListing(testInstance *testing.T) {
	session := newTestSession(testInstance, sessionRecords())

	listing := session.Categories()
	require.Equal(testInstance, []string{"SIN CARPETA", "FALTA FOTO FINAL", "CARPETA VACÍA", taxonomy.DefaultCompositeLabel}, listing.Categories)
	require.Len(testInstance, listing.Statuses, 5)

	byStatus := make(map[string]dashboard.CategoryEntry, len(listing.Statuses))
	for _, entry := range listing.Statuses {
		byStatus[entry.Status] = entry
	}
	require.True(testInstance, byStatus["OK"].Excluded)
	require.Empty(testInstance, byStatus["OK"].Category)
	require.True(testInstance, byStatus["FALTA FOTO INICIAL + FINAL"].Composite)
	require.Equal(testInstance, []string{"INICIAL", "FALTA FOTO FINAL"}, byStatus["FALTA FOTO INICIAL + FINAL"].Stages)
	require.Equal(testInstance, "SIN CARPETA", byStatus["SIN CARPETA"].Category)
}
