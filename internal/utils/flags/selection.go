// Package flags binds the selection and output flags shared by the dashboard commands.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	// CompanyFlagName selects a company.
	CompanyFlagName = "company"
	// CompanyFlagUsage describes the company flag.
	CompanyFlagUsage = "Company to select (all for every company)"
	// ContractFlagName selects a contract of the selected company.
	ContractFlagName = "contract"
	// ContractFlagUsage describes the contract flag.
	ContractFlagUsage = "Contract to select within the company (all for every contract)"
	// CategoryFlagName toggles a condensed category.
	CategoryFlagName = "category"
	// CategoryFlagUsage describes the category flag.
	CategoryFlagUsage = "Condensed category to toggle (repeatable; all clears the restriction)"
	// FormatFlagName selects the output encoding.
	FormatFlagName = "format"

	choicePlaceholderPrefix  = "<"
	choicePlaceholderSuffix  = ">"
	choiceSeparatorLiteral   = "|"
	choiceUsageEmptyTemplate = "`%s`"
	choiceUsageFullTemplate  = "`%s` %s"
)

// SelectionFlagValues stores the selection requested on the command line.
type SelectionFlagValues struct {
	Company    string
	Contract   string
	Categories []string
}

// BindSelectionFlags attaches the company, contract, and category flags to the command.
func BindSelectionFlags(command *cobra.Command, defaults SelectionFlagValues) *SelectionFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	flagSet := command.Flags()
	flagSet.StringVar(&values.Company, CompanyFlagName, defaults.Company, CompanyFlagUsage)
	flagSet.StringVar(&values.Contract, ContractFlagName, defaults.Contract, ContractFlagUsage)
	flagSet.StringArrayVar(&values.Categories, CategoryFlagName, defaults.Categories, CategoryFlagUsage)

	return &values
}

// BindFormatFlag attaches a format flag whose usage lists the choices with the default capitalized.
func BindFormatFlag(command *cobra.Command, defaultChoice string, choices []string, description string) *string {
	value := defaultChoice
	if command == nil {
		return &value
	}
	command.Flags().StringVar(&value, FormatFlagName, defaultChoice, FormatChoiceUsage(defaultChoice, choices, description))
	return &value
}

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(trimmedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		highlighted = append(highlighted, trimmedChoice)
	}

	placeholder := choicePlaceholderPrefix + strings.Join(highlighted, choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}
