package filter

import "strings"

// Labels used when describing a selection as document header context.
const (
	AllCompaniesLabel  = "Todas"
	GeneralContract    = "General"
	AllCategoriesLabel = "Todos los tipos"
	categorySeparator  = ", "
)

// ContractLister exposes the company → contract hierarchy needed to build selector choices.
type ContractLister interface {
	Companies() []string
	ContractsOf(company string) []string
}

// CompanyChoices returns All followed by every company in first-seen order.
func CompanyChoices(lister ContractLister) []string {
	return append([]string{All}, lister.Companies()...)
}

// ContractChoices returns All followed by the contracts of the selected company.
// With no company selected only All is offered.
func (state State) ContractChoices(lister ContractLister) []string {
	if state.Company() == All {
		return []string{All}
	}
	return append([]string{All}, lister.ContractsOf(state.Company())...)
}

// ScopeDescription is the human-readable form of a selection.
type ScopeDescription struct {
	Company    string   `json:"company" yaml:"company"`
	Contract   string   `json:"contract" yaml:"contract"`
	Categories []string `json:"categories" yaml:"categories"`
}

// CategoryLabel joins the category labels into one line.
func (description ScopeDescription) CategoryLabel() string {
	return strings.Join(description.Categories, categorySeparator)
}

// Describe renders the selection for export headers.
func (state State) Describe() ScopeDescription {
	description := ScopeDescription{
		Company:    state.Company(),
		Contract:   state.Contract(),
		Categories: state.Categories(),
	}
	if description.Company == All {
		description.Company = AllCompaniesLabel
	}
	if description.Contract == All {
		description.Contract = GeneralContract
	}
	if len(description.Categories) == 0 {
		description.Categories = []string{AllCategoriesLabel}
	}
	return description
}
