package flags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix     = "<"
	choicePlaceholderSuffix     = ">"
	choiceSeparatorLiteral      = "|"
	choiceUsageEmptyTemplate    = "`%s`"
	choiceUsageFullTemplate     = "`%s` %s"
	choiceValueTypeConstant     = "choice"
	invalidChoiceErrorTemplate  = "must be one of %s"
	choiceListSeparatorConstant = ", "
)

// FormatChoiceUsage builds a usage string listing choices with the default one upper-cased.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	for _, normalizedChoice := range normalizeChoices(choices) {
		if normalizedChoice == normalizedDefault {
			highlighted = append(highlighted, strings.ToUpper(normalizedChoice))
			continue
		}
		highlighted = append(highlighted, normalizedChoice)
	}
	return highlighted
}

// normalizeChoices trims, lower-cases and de-duplicates choices, dropping empty ones.
func normalizeChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	for _, choice := range choices {
		normalizedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(normalizedChoice) == 0 || slices.Contains(normalized, normalizedChoice) {
			continue
		}
		normalized = append(normalized, normalizedChoice)
	}
	return normalized
}

// ChoiceValue is a pflag.Value restricted to a fixed set of case-insensitive choices.
type ChoiceValue struct {
	choices []string
	value   string
}

var _ pflag.Value = (*ChoiceValue)(nil)

// NewChoiceValue constructs a ChoiceValue holding defaultChoice, which may be empty.
func NewChoiceValue(defaultChoice string, choices []string) *ChoiceValue {
	return &ChoiceValue{choices: normalizeChoices(choices), value: strings.ToLower(strings.TrimSpace(defaultChoice))}
}

// String returns the current choice.
func (choiceValue *ChoiceValue) String() string {
	if choiceValue == nil {
		return ""
	}
	return choiceValue.value
}

// Set accepts value when it matches one of the choices, ignoring case and surrounding spaces.
func (choiceValue *ChoiceValue) Set(value string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if !slices.Contains(choiceValue.choices, normalizedValue) {
		return fmt.Errorf(invalidChoiceErrorTemplate, strings.Join(choiceValue.choices, choiceListSeparatorConstant))
	}
	choiceValue.value = normalizedValue
	return nil
}

// Type names the value kind in help output.
func (choiceValue *ChoiceValue) Type() string {
	return choiceValueTypeConstant
}

// ChoiceFlag registers a ChoiceValue flag on flagSet and returns it.
func ChoiceFlag(flagSet *pflag.FlagSet, name string, defaultChoice string, choices []string, description string) *ChoiceValue {
	choiceValue := NewChoiceValue(defaultChoice, choices)
	flagSet.Var(choiceValue, name, FormatChoiceUsage(defaultChoice, choices, description))
	return choiceValue
}
