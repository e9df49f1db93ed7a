package aggregate

import (
	"strings"

	"github.com/TronnusSaur/dashboard-evidencia/internal/filter"
)

// KPIRule names a bucket and the substrings that route a raw status into it.
type KPIRule struct {
	Name    string   `mapstructure:"name"`
	Markers []string `mapstructure:"markers"`
}

// DefaultKPIRules returns the buckets shown on the municipal dashboard. Order matters: the first match wins.
func DefaultKPIRules() []KPIRule {
	return []KPIRule{
		{Name: "sin_evidencia", Markers: []string{"CARPETA"}},
		{Name: "foto_inicial", Markers: []string{"INICIAL"}},
		{Name: "foto_proceso", Markers: []string{"PROCESO"}},
		{Name: "foto_final", Markers: []string{"FINAL"}},
		{Name: "evidencia_incompleta", Markers: []string{"INCOMPLETA"}},
	}
}

// SanitizeKPIRules drops unnamed or marker-less rules and falls back to the defaults when none remain.
func SanitizeKPIRules(rules []KPIRule) []KPIRule {
	sanitized := make([]KPIRule, 0, len(rules))
	for _, rule := range rules {
		name := strings.TrimSpace(rule.Name)
		markers := make([]string, 0, len(rule.Markers))
		for _, marker := range rule.Markers {
			if trimmed := strings.TrimSpace(marker); len(trimmed) > 0 {
				markers = append(markers, trimmed)
			}
		}
		if len(name) == 0 || len(markers) == 0 {
			continue
		}
		sanitized = append(sanitized, KPIRule{Name: name, Markers: markers})
	}
	if len(sanitized) == 0 {
		return DefaultKPIRules()
	}
	return sanitized
}

func (rule KPIRule) matches(rawStatus string) bool {
	upperStatus := strings.ToUpper(rawStatus)
	for _, marker := range rule.Markers {
		if strings.Contains(upperStatus, strings.ToUpper(marker)) {
			return true
		}
	}
	return false
}

// Bucket is one named KPI sub-total.
type Bucket struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// KPI is the headline rollup of a selection.
type KPI struct {
	TotalOmissions     int      `json:"total_omissions" yaml:"total_omissions"`
	Buckets            []Bucket `json:"buckets" yaml:"buckets"`
	CompositeOmissions int      `json:"composite_omissions" yaml:"composite_omissions"`
	Contracts          int      `json:"contracts" yaml:"contracts"`
	Compliant          int      `json:"compliant" yaml:"compliant"`
	CompliancePercent  float64  `json:"compliance_percent" yaml:"compliance_percent"`
}

// Bucket returns the value of a named bucket.
func (kpi KPI) Bucket(name string) int {
	for _, bucket := range kpi.Buckets {
		if bucket.Name == name {
			return bucket.Value
		}
	}
	return 0
}

// KPIRollup totals the omissions of the selection and routes each raw status into the first matching bucket.
// Statuses matching no rule count only toward the total.
func KPIRollup(summaryIndex SummaryIndex, state filter.State, rules []KPIRule) KPI {
	registry := summaryIndex.Taxonomy()
	scoped := ScopedSummaries(summaryIndex, state)

	kpi := KPI{
		Buckets:   make([]Bucket, len(rules)),
		Contracts: len(scoped),
	}
	for ruleIndex, rule := range rules {
		kpi.Buckets[ruleIndex].Name = rule.Name
	}

	for _, summary := range scoped {
		kpi.Compliant += summary.Compliant
		for _, status := range summary.Statuses() {
			classification := registry.Classify(status)
			if classification.Excluded {
				continue
			}
			count := summary.Count(status)
			kpi.TotalOmissions += count
			if classification.Composite {
				kpi.CompositeOmissions += count
			}
			for ruleIndex, rule := range rules {
				if rule.matches(status) {
					kpi.Buckets[ruleIndex].Value += count
					break
				}
			}
		}
	}

	kpi.CompliancePercent = Percentage(kpi.Compliant, kpi.Compliant+kpi.TotalOmissions)
	return kpi
}
