// Package loader fetches per-contract detail records on demand.
//
// Loading is tolerant: a contract whose source is missing or unreadable
// contributes an empty list instead of failing the request. Fetch tags every
// request with a generation so that a result arriving after a newer selection
// was issued is discarded.
package loader

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
	"github.com/TronnusSaur/dashboard-evidencia/internal/schema"
)

const (
	defaultMaxConcurrencyConstant = 8
	sourceMissingMessageConstant  = "detail records missing; treating contract as empty"
	sourceFailedMessageConstant   = "detail records unreadable; treating contract as empty"
	resultSupersededMessage       = "detail result discarded: newer selection issued"
	logFieldKeyConstant           = "key"
	logFieldGenerationConstant    = "generation"
	logFieldLatestConstant        = "latest_generation"
)

// ErrSuperseded reports that a newer selection was issued while the fetch was in flight.
var ErrSuperseded = errors.New("detail request superseded by a newer selection")

// ContractLister resolves the contracts of a company.
type ContractLister interface {
	ContractsOf(company string) []string
}

// Result is the outcome of a tagged fetch.
type Result struct {
	Selection  filter.State
	Generation uint64
	Records    []schema.AuditRecord
}

// Option customizes a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(loader *Loader) {
		if logger != nil {
			loader.logger = logger
		}
	}
}

// WithMetrics attaches fetch counters.
func WithMetrics(metrics *Metrics) Option {
	return func(loader *Loader) {
		loader.metrics = metrics
	}
}

// WithMaxConcurrency bounds the number of contract fetches in flight for LoadAll.
func WithMaxConcurrency(limit int) Option {
	return func(loader *Loader) {
		if limit > 0 {
			loader.maxConcurrency = limit
		}
	}
}

// Loader fetches detail records for contracts through a Source.
type Loader struct {
	source         Source
	contracts      ContractLister
	logger         *zap.Logger
	metrics        *Metrics
	maxConcurrency int
	generation     atomic.Uint64
}

// New constructs a Loader.
func New(source Source, contracts ContractLister, options ...Option) *Loader {
	loader := &Loader{
		source:         source,
		contracts:      contracts,
		logger:         zap.NewNop(),
		maxConcurrency: defaultMaxConcurrencyConstant,
	}
	for _, option := range options {
		option(loader)
	}
	return loader
}

// Load returns the records of one contract. Missing or unreadable sources yield an empty list;
// the only error is context cancellation.
func (loader *Loader) Load(executionContext context.Context, company string, contractID string) ([]schema.AuditRecord, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	records := loader.fetchContract(executionContext, Key(company, contractID))
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	return records, nil
}

// LoadAll concurrently loads every contract of a company and concatenates the results once all complete.
// Order within a contract is preserved. An unknown company yields an empty list.
func (loader *Loader) LoadAll(executionContext context.Context, company string) ([]schema.AuditRecord, error) {
	contractIDs := loader.contracts.ContractsOf(company)
	perContract := make([][]schema.AuditRecord, len(contractIDs))

	group, groupContext := errgroup.WithContext(executionContext)
	group.SetLimit(loader.maxConcurrency)
	for contractIndex, contractID := range contractIDs {
		key := Key(company, contractID)
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			perContract[contractIndex] = loader.fetchContract(groupContext, key)
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}

	merged := make([]schema.AuditRecord, 0)
	for _, records := range perContract {
		merged = append(merged, records...)
	}
	return merged, nil
}

// Fetch loads the detail records for a selection: nothing for the global scope, every contract
// for a company, or a single contract. If another Fetch was issued before this one completes
// the result is discarded and ErrSuperseded is returned.
func (loader *Loader) Fetch(executionContext context.Context, state filter.State) (Result, error) {
	generation := loader.generation.Add(1)

	var records []schema.AuditRecord
	var loadError error
	switch state.Scope() {
	case filter.ScopeContract:
		records, loadError = loader.Load(executionContext, state.Company(), state.Contract())
	case filter.ScopeCompany:
		records, loadError = loader.LoadAll(executionContext, state.Company())
	}
	if loadError != nil {
		return Result{}, loadError
	}

	if latest := loader.generation.Load(); latest != generation {
		loader.metrics.observeSuperseded()
		loader.logger.Debug(resultSupersededMessage,
			zap.Uint64(logFieldGenerationConstant, generation),
			zap.Uint64(logFieldLatestConstant, latest),
		)
		return Result{}, ErrSuperseded
	}

	return Result{Selection: state, Generation: generation, Records: records}, nil
}

// Supersede invalidates every fetch currently in flight.
func (loader *Loader) Supersede() {
	loader.generation.Add(1)
}

func (loader *Loader) fetchContract(executionContext context.Context, key string) []schema.AuditRecord {
	records, fetchError := loader.source.Fetch(executionContext, key)
	switch {
	case fetchError == nil:
		loader.metrics.observeFetch(OutcomeLoaded, len(records))
		return records
	case errors.Is(fetchError, context.Canceled), errors.Is(fetchError, context.DeadlineExceeded):
		return []schema.AuditRecord{}
	case errors.Is(fetchError, ErrSourceNotFound):
		loader.metrics.observeFetch(OutcomeMissing, 0)
		loader.logger.Debug(sourceMissingMessageConstant, zap.String(logFieldKeyConstant, key))
	default:
		loader.metrics.observeFetch(OutcomeFailed, 0)
		loader.logger.Warn(sourceFailedMessageConstant, zap.String(logFieldKeyConstant, key), zap.Error(fetchError))
	}
	return []schema.AuditRecord{}
}
