package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TronnusSaur/dashboard-evidencia/internal/aggregate"
	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
	"github.com/TronnusSaur/dashboard-evidencia/internal/index"
	"github.com/TronnusSaur/dashboard-evidencia/internal/loader"
	"github.com/TronnusSaur/dashboard-evidencia/internal/report"
)

const (
	unknownCompanyTemplateConstant  = "unknown company %q: %w"
	unknownContractTemplateConstant = "unknown contract %q for company %q: %w"
	selectionChangedMessageConstant = "selection changed"
	viewSupersededMessageConstant   = "view discarded: selection changed while loading"
	logFieldScopeConstant           = "scope"
	logFieldCompanyConstant         = "company"
	logFieldContractConstant        = "contract"
	logFieldCategoriesConstant      = "categories"
)

// ErrUnknownSelection reports a company or contract that is not present in the summary index.
var ErrUnknownSelection = errors.New("selection not found in summary index")

// View is everything the rendering layer needs for one selection.
type View struct {
	Scope      filter.ScopeDescription `json:"scope" yaml:"scope"`
	Companies  []string                `json:"companies" yaml:"companies"`
	Contracts  []string                `json:"contracts" yaml:"contracts"`
	Categories []string                `json:"categories" yaml:"categories"`
	Pie        []aggregate.Slice       `json:"pie" yaml:"pie"`
	Bars       []aggregate.Bar         `json:"bars" yaml:"bars"`
	KPI        aggregate.KPI           `json:"kpi" yaml:"kpi"`
	Rows       []report.DetailRow      `json:"rows" yaml:"rows"`
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(session *Session) {
		if logger != nil {
			session.logger = logger
		}
	}
}

// WithKPIRules sets the KPI bucket rules.
func WithKPIRules(rules []aggregate.KPIRule) SessionOption {
	return func(session *Session) {
		session.kpiRules = aggregate.SanitizeKPIRules(rules)
	}
}

// WithClock overrides the time source used to stamp exports.
func WithClock(clock func() time.Time) SessionOption {
	return func(session *Session) {
		if clock != nil {
			session.clock = clock
		}
	}
}

// Session owns the selection for one dashboard consumer. Selection changes are serialized;
// detail loading runs outside the lock and stale results are discarded.
type Session struct {
	summaryIndex *index.Index
	recordLoader *loader.Loader
	kpiRules     []aggregate.KPIRule
	logger       *zap.Logger
	clock        func() time.Time

	mutex sync.Mutex
	state filter.State
}

// NewSession starts a session at the unrestricted selection.
func NewSession(summaryIndex *index.Index, recordLoader *loader.Loader, options ...SessionOption) *Session {
	session := &Session{
		summaryIndex: summaryIndex,
		recordLoader: recordLoader,
		kpiRules:     aggregate.DefaultKPIRules(),
		logger:       zap.NewNop(),
		clock:        time.Now,
		state:        filter.NewState(),
	}
	for _, option := range options {
		option(session)
	}
	return session
}

// Index returns the summary index backing the session.
func (session *Session) Index() *index.Index {
	return session.summaryIndex
}

// State returns the current selection.
func (session *Session) State() filter.State {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.state
}

// SelectCompany selects a company, or every company for All. Unknown companies are rejected.
func (session *Session) SelectCompany(company string) (filter.State, error) {
	next := filter.NewState().SelectCompany(company)
	if next.Company() != filter.All && !session.summaryIndex.HasCompany(next.Company()) {
		return session.State(), fmt.Errorf(unknownCompanyTemplateConstant, company, ErrUnknownSelection)
	}
	return session.apply(func(current filter.State) filter.State {
		return current.SelectCompany(company)
	}), nil
}

// SelectContract selects a contract of the current company. It is ignored while no company is selected.
func (session *Session) SelectContract(contractID string) (filter.State, error) {
	current := session.State()
	next := current.SelectContract(contractID)
	if next.Scope() == filter.ScopeContract {
		if _, found := session.summaryIndex.SummaryOf(next.Company(), next.Contract()); !found {
			return current, fmt.Errorf(unknownContractTemplateConstant, contractID, next.Company(), ErrUnknownSelection)
		}
	}
	return session.apply(func(current filter.State) filter.State {
		return current.SelectContract(contractID)
	}), nil
}

// ToggleCategory flips a condensed category in the category restriction.
func (session *Session) ToggleCategory(category string) filter.State {
	return session.apply(func(current filter.State) filter.State {
		return current.ToggleCategory(category)
	})
}

func (session *Session) apply(transition func(filter.State) filter.State) filter.State {
	session.mutex.Lock()
	previous := session.state
	session.state = transition(session.state)
	next := session.state
	session.mutex.Unlock()

	if !previous.SameScope(next) {
		session.recordLoader.Supersede()
	}
	session.logger.Debug(selectionChangedMessageConstant,
		zap.String(logFieldScopeConstant, next.Scope().String()),
		zap.String(logFieldCompanyConstant, next.Company()),
		zap.String(logFieldContractConstant, next.Contract()),
		zap.Strings(logFieldCategoriesConstant, next.Categories()),
	)
	return next
}

// View loads the detail records of the current selection and derives every chart series from it.
// If the selection scope changes while loading, loader.ErrSuperseded is returned.
func (session *Session) View(executionContext context.Context) (View, error) {
	state, rows, loadError := session.detailRows(executionContext)
	if loadError != nil {
		return View{}, loadError
	}

	return View{
		Scope:      state.Describe(),
		Companies:  filter.CompanyChoices(session.summaryIndex),
		Contracts:  state.ContractChoices(session.summaryIndex),
		Categories: session.CategoryChoices(),
		Pie:        aggregate.PieSeries(session.summaryIndex, state),
		Bars:       aggregate.BarSeries(session.summaryIndex, state),
		KPI:        aggregate.KPIRollup(session.summaryIndex, state, session.kpiRules),
		Rows:       rows,
	}, nil
}

// CategoryChoices returns All followed by the condensed categories discovered so far.
func (session *Session) CategoryChoices() []string {
	return append([]string{filter.All}, session.summaryIndex.Taxonomy().Categories()...)
}

// Export assembles the detail export of the current selection. A company or contract selection
// without matching rows yields report.ErrNothingToExport.
func (session *Session) Export(executionContext context.Context) (report.DetailExport, error) {
	state, rows, loadError := session.detailRows(executionContext)
	if loadError != nil {
		return report.DetailExport{}, loadError
	}
	return report.BuildDetailExport(state, rows, session.summaryIndex, session.clock())
}

// Summary builds the fleet-wide summary report.
func (session *Session) Summary() report.GlobalSummaryReport {
	return report.GlobalSummary(session.summaryIndex)
}

// Now returns the session clock reading.
func (session *Session) Now() time.Time {
	return session.clock()
}

func (session *Session) detailRows(executionContext context.Context) (filter.State, []report.DetailRow, error) {
	issued := session.State()
	result, fetchError := session.recordLoader.Fetch(executionContext, issued)
	if fetchError != nil {
		return filter.State{}, nil, fetchError
	}

	current := session.State()
	if !current.SameScope(result.Selection) {
		session.logger.Debug(viewSupersededMessageConstant,
			zap.String(logFieldCompanyConstant, current.Company()),
			zap.String(logFieldContractConstant, current.Contract()),
		)
		return filter.State{}, nil, loader.ErrSuperseded
	}

	rows := report.DetailRows(result.Records, current, session.summaryIndex.Taxonomy())
	return current, rows, nil
}
