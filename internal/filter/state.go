// Package filter models the company / contract / category selection as a single
// value with transition functions, so the cascading reset rules live in one place.
package filter

import (
	"sort"
	"strings"
)

// All is the sentinel meaning "no restriction" for every selection field.
const All = "all"

// Scope enumerates the granularity of a selection.
type Scope int

// Supported scopes, from coarsest to finest.
const (
	ScopeGlobal Scope = iota
	ScopeCompany
	ScopeContract
)

// String returns a stable name for the scope.
func (scope Scope) String() string {
	switch scope {
	case ScopeCompany:
		return "company"
	case ScopeContract:
		return "contract"
	default:
		return "global"
	}
}

// State is the current selection. The zero value is not valid; use NewState.
type State struct {
	company    string
	contract   string
	categories []string
}

// NewState returns the unrestricted selection.
func NewState() State {
	return State{company: All, contract: All}
}

// Company returns the selected company or All.
func (state State) Company() string {
	return normalizeSentinel(state.company)
}

// Contract returns the selected contract or All.
func (state State) Contract() string {
	if state.Company() == All {
		return All
	}
	return normalizeSentinel(state.contract)
}

// Categories returns the selected condensed categories in sorted order. Empty means no restriction.
func (state State) Categories() []string {
	return append([]string(nil), state.categories...)
}

// HasCategory reports whether the category passes the category restriction.
func (state State) HasCategory(category string) bool {
	if len(state.categories) == 0 {
		return true
	}
	position := sort.SearchStrings(state.categories, category)
	return position < len(state.categories) && state.categories[position] == category
}

// Scope reports how narrow the selection is.
func (state State) Scope() Scope {
	switch {
	case state.Company() == All:
		return ScopeGlobal
	case state.Contract() == All:
		return ScopeCompany
	default:
		return ScopeContract
	}
}

// SelectCompany selects a company, resetting the contract to All and clearing the category set.
func (state State) SelectCompany(company string) State {
	return State{company: normalizeSentinel(company), contract: All}
}

// SelectContract selects a contract. It is ignored while no company is selected.
func (state State) SelectContract(contractID string) State {
	if state.Company() == All {
		return state
	}
	next := state.clone()
	next.contract = normalizeSentinel(contractID)
	return next
}

// ToggleCategory flips membership of a category. Toggling All clears the set.
func (state State) ToggleCategory(category string) State {
	next := state.clone()
	if isSentinel(category) {
		next.categories = nil
		return next
	}

	position := sort.SearchStrings(next.categories, category)
	if position < len(next.categories) && next.categories[position] == category {
		next.categories = append(next.categories[:position], next.categories[position+1:]...)
		if len(next.categories) == 0 {
			next.categories = nil
		}
		return next
	}

	next.categories = append(next.categories, "")
	copy(next.categories[position+1:], next.categories[position:])
	next.categories[position] = category
	return next
}

// Equal reports whether both selections are identical.
func (state State) Equal(other State) bool {
	if state.Company() != other.Company() || state.Contract() != other.Contract() {
		return false
	}
	if len(state.categories) != len(other.categories) {
		return false
	}
	for categoryIndex := range state.categories {
		if state.categories[categoryIndex] != other.categories[categoryIndex] {
			return false
		}
	}
	return true
}

// SameScope reports whether both selections target the same company and contract.
func (state State) SameScope(other State) bool {
	return state.Company() == other.Company() && state.Contract() == other.Contract()
}

func (state State) clone() State {
	return State{
		company:    state.company,
		contract:   state.contract,
		categories: append([]string(nil), state.categories...),
	}
}

func isSentinel(value string) bool {
	trimmed := strings.TrimSpace(value)
	return len(trimmed) == 0 || strings.EqualFold(trimmed, All)
}

func normalizeSentinel(value string) string {
	if isSentinel(value) {
		return All
	}
	return value
}
