// Package taxonomy keeps the registry of raw audit status labels and the rules
// that condense them into report categories.
//
// The registry grows while data is ingested: every unseen raw status is
// appended in discovery order and classified once. Classification never fails;
// an unanticipated label simply becomes its own category.
package taxonomy

import (
	"strings"
	"sync"
)

// Rules configures how raw statuses are condensed.
type Rules struct {
	ComplianceStatus   string   `mapstructure:"compliance_status"`
	CompositeLabel     string   `mapstructure:"composite_label"`
	ConjunctionMarkers []string `mapstructure:"conjunction_markers"`
	StageKeywords      []string `mapstructure:"stage_keywords"`
}

// Default rule values.
const (
	DefaultComplianceStatus = "OK"
	DefaultCompositeLabel   = "OMISIONES MÚLTIPLES"
)

// DefaultRules returns the classification rules used by the municipal audit exports.
func DefaultRules() Rules {
	return Rules{
		ComplianceStatus:   DefaultComplianceStatus,
		CompositeLabel:     DefaultCompositeLabel,
		ConjunctionMarkers: []string{"+"},
		StageKeywords:      []string{"INICIAL", "PROCESO", "FINAL"},
	}
}

// Sanitize trims configured values and restores defaults for blank entries.
func (rules Rules) Sanitize() Rules {
	defaults := DefaultRules()
	sanitized := Rules{
		ComplianceStatus:   strings.TrimSpace(rules.ComplianceStatus),
		CompositeLabel:     strings.TrimSpace(rules.CompositeLabel),
		ConjunctionMarkers: sanitizeList(rules.ConjunctionMarkers, false),
		StageKeywords:      sanitizeList(rules.StageKeywords, true),
	}
	if len(sanitized.ComplianceStatus) == 0 {
		sanitized.ComplianceStatus = defaults.ComplianceStatus
	}
	if len(sanitized.CompositeLabel) == 0 {
		sanitized.CompositeLabel = defaults.CompositeLabel
	}
	if len(sanitized.ConjunctionMarkers) == 0 {
		sanitized.ConjunctionMarkers = defaults.ConjunctionMarkers
	}
	if len(sanitized.StageKeywords) == 0 {
		sanitized.StageKeywords = defaults.StageKeywords
	}
	return sanitized
}

// Classification is the outcome of classifying one raw status.
type Classification struct {
	Status    string
	Category  string
	Excluded  bool
	Composite bool
}

// Taxonomy is the append-only registry of raw statuses seen during a session.
// It is safe for concurrent use; observation is serialized behind a single writer lock.
type Taxonomy struct {
	rules Rules

	mutex           sync.RWMutex
	statuses        []string
	classifications map[string]Classification
	categories      []string
	categorySeen    map[string]struct{}
}

// New constructs an empty taxonomy using the provided rules.
func New(rules Rules) *Taxonomy {
	return &Taxonomy{
		rules:           rules.Sanitize(),
		classifications: make(map[string]Classification),
		categorySeen:    make(map[string]struct{}),
	}
}

// Rules returns the sanitized rules in effect.
func (taxonomy *Taxonomy) Rules() Rules {
	return taxonomy.rules
}

// Classify applies the condensation rules to a raw status. It does not register the status.
func (taxonomy *Taxonomy) Classify(rawStatus string) Classification {
	status := strings.TrimSpace(rawStatus)

	taxonomy.mutex.RLock()
	known, found := taxonomy.classifications[status]
	taxonomy.mutex.RUnlock()
	if found {
		return known
	}

	return taxonomy.classify(status)
}

func (taxonomy *Taxonomy) classify(status string) Classification {
	switch {
	case status == taxonomy.rules.ComplianceStatus:
		return Classification{Status: status, Excluded: true}
	case taxonomy.containsConjunction(status):
		return Classification{Status: status, Category: taxonomy.rules.CompositeLabel, Composite: true}
	default:
		return Classification{Status: status, Category: status}
	}
}

// Observe registers a raw status if it has not been seen and returns its classification.
func (taxonomy *Taxonomy) Observe(rawStatus string) Classification {
	status := strings.TrimSpace(rawStatus)

	taxonomy.mutex.Lock()
	defer taxonomy.mutex.Unlock()

	if known, found := taxonomy.classifications[status]; found {
		return known
	}

	classification := taxonomy.classify(status)
	taxonomy.statuses = append(taxonomy.statuses, status)
	taxonomy.classifications[status] = classification
	if !classification.Excluded {
		if _, seen := taxonomy.categorySeen[classification.Category]; !seen {
			taxonomy.categorySeen[classification.Category] = struct{}{}
			taxonomy.categories = append(taxonomy.categories, classification.Category)
		}
	}
	return classification
}

// Decompose splits a composite status into its primitive stage labels.
// Each matched stage keyword resolves to the first registered single-omission
// status that names it, falling back to the bare keyword when none is registered.
// Non-composite statuses decompose to themselves.
func (taxonomy *Taxonomy) Decompose(rawStatus string) []string {
	status := strings.TrimSpace(rawStatus)
	if !taxonomy.containsConjunction(status) {
		return []string{status}
	}

	upperStatus := strings.ToUpper(status)
	labels := make([]string, 0, len(taxonomy.rules.StageKeywords))
	seenLabels := make(map[string]struct{}, len(taxonomy.rules.StageKeywords))
	for _, keyword := range taxonomy.rules.StageKeywords {
		if !strings.Contains(upperStatus, strings.ToUpper(keyword)) {
			continue
		}
		label := taxonomy.primitiveForKeyword(keyword)
		if _, seen := seenLabels[label]; seen {
			continue
		}
		seenLabels[label] = struct{}{}
		labels = append(labels, label)
	}
	if len(labels) > 0 {
		return labels
	}

	return taxonomy.splitOnMarkers(status)
}

func (taxonomy *Taxonomy) primitiveForKeyword(keyword string) string {
	upperKeyword := strings.ToUpper(keyword)

	taxonomy.mutex.RLock()
	defer taxonomy.mutex.RUnlock()

	for _, status := range taxonomy.statuses {
		classification := taxonomy.classifications[status]
		if classification.Excluded || classification.Composite {
			continue
		}
		if strings.Contains(strings.ToUpper(status), upperKeyword) {
			return status
		}
	}
	return keyword
}

// IsComposite reports whether the raw status combines several omissions.
func (taxonomy *Taxonomy) IsComposite(rawStatus string) bool {
	return taxonomy.Classify(rawStatus).Composite
}

// Statuses returns the raw statuses in discovery order.
func (taxonomy *Taxonomy) Statuses() []string {
	taxonomy.mutex.RLock()
	defer taxonomy.mutex.RUnlock()
	return append([]string(nil), taxonomy.statuses...)
}

// Categories returns the condensed categories in discovery order. Excluded statuses never appear.
func (taxonomy *Taxonomy) Categories() []string {
	taxonomy.mutex.RLock()
	defer taxonomy.mutex.RUnlock()
	return append([]string(nil), taxonomy.categories...)
}

// Len returns the number of registered raw statuses.
func (taxonomy *Taxonomy) Len() int {
	taxonomy.mutex.RLock()
	defer taxonomy.mutex.RUnlock()
	return len(taxonomy.statuses)
}

func (taxonomy *Taxonomy) containsConjunction(status string) bool {
	for _, marker := range taxonomy.rules.ConjunctionMarkers {
		if strings.Contains(status, marker) {
			return true
		}
	}
	return false
}

func (taxonomy *Taxonomy) splitOnMarkers(status string) []string {
	parts := []string{status}
	for _, marker := range taxonomy.rules.ConjunctionMarkers {
		var split []string
		for _, part := range parts {
			split = append(split, strings.Split(part, marker)...)
		}
		parts = split
	}

	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) > 0 {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

func sanitizeList(values []string, trim bool) []string {
	sanitized := make([]string, 0, len(values))
	for _, value := range values {
		candidate := value
		if trim {
			candidate = strings.TrimSpace(value)
		}
		if len(strings.TrimSpace(candidate)) == 0 {
			continue
		}
		sanitized = append(sanitized, candidate)
	}
	return sanitized
}
