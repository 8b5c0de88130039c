// Package validator runs static checks over state machine definitions and
// offers fixes for the problems it finds.
package validator

import (
	"fmt"
	"os"
	"strings"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// ValidationResult contains the results of validating a definition.
type ValidationResult struct {
	Valid       bool
	Errors      []ValidationError
	Warnings    []ValidationWarning
	Suggestions []Suggestion
}

// ValidationError represents a validation error with fix suggestions.
type ValidationError struct {
	Code     string   // Error code like "UNDECLARED_STATE", "DUPLICATE_ROUTE"
	Message  string   // Human-readable error message
	Location Location // Where the error occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// ValidationWarning represents a non-critical issue.
type ValidationWarning struct {
	Code     string
	Message  string
	Location Location
	Fix      *Fix
}

// Suggestion provides improvement recommendations.
type Suggestion struct {
	Message string // Suggestion description
	Example string // YAML example showing the improvement
}

// Location identifies where an issue occurred.
type Location struct {
	File       string // Definition file path
	State      string // State name if applicable
	Transition int    // 1-based transition index, 0 if not applicable
}

// Validate checks def against the default rules and any registered ones.
func Validate(def *statemachine.Definition) ValidationResult {
	return ValidateWithRules(def, append(DefaultRules(), RegisteredRules...))
}

// ValidateFile loads a definition from a file and validates it.
func ValidateFile(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, false)
}

// ValidateFileStrict loads a definition from a file and validates it in strict mode.
func ValidateFileStrict(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, true)
}

// ValidateFileWithOptions loads a definition from a file and validates it.
// The file is only parsed, not checked, before the rules run, so structural
// problems are reported as validation errors rather than a load failure.
func ValidateFileWithOptions(path string, strict bool) (ValidationResult, error) {
	def, err := loadDefinition(path)
	if err != nil {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{
					Code:     "DEFINITION_LOAD_FAILED",
					Message:  fmt.Sprintf("Failed to load definition: %v", err),
					Location: Location{File: path},
				},
			},
		}, err
	}

	rules := append(DefaultRules(), RegisteredRules...)

	var result ValidationResult
	if strict {
		result = ValidateWithRulesStrict(def, rules)
	} else {
		result = ValidateWithRules(def, rules)
	}

	for i := range result.Errors {
		if result.Errors[i].Location.File == "" {
			result.Errors[i].Location.File = path
		}
	}

	for i := range result.Warnings {
		if result.Warnings[i].Location.File == "" {
			result.Warnings[i].Location.File = path
		}
	}

	return result, nil
}

// ValidateWithRules validates using custom rules.
func ValidateWithRules(def *statemachine.Definition, rules []Rule) ValidationResult {
	var result ValidationResult

	result.Valid = true

	for _, rule := range rules {
		ruleResult := rule.Check(def)
		result.Errors = append(result.Errors, ruleResult.Errors...)
		result.Warnings = append(result.Warnings, ruleResult.Warnings...)
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	result.Suggestions = generateSuggestions(def)

	return result
}

// ValidateWithRulesStrict validates with strict mode (treats warnings as errors).
func ValidateWithRulesStrict(def *statemachine.Definition, rules []Rule) ValidationResult {
	result := ValidateWithRules(def, rules)

	for _, warning := range result.Warnings {
		result.Errors = append(result.Errors, ValidationError(warning))
	}

	result.Warnings = nil

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

// Fixes returns every fix offered by the errors and warnings of r, in order.
func (r ValidationResult) Fixes() []*Fix {
	var fixes []*Fix

	for _, err := range r.Errors {
		if err.Fix != nil {
			fixes = append(fixes, err.Fix)
		}
	}

	for _, warn := range r.Warnings {
		if warn.Fix != nil {
			fixes = append(fixes, warn.Fix)
		}
	}

	return fixes
}

func loadDefinition(path string) (*statemachine.Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return statemachine.DecodeDefinition(data)
}

// generateSuggestions provides general improvement suggestions.
func generateSuggestions(def *statemachine.Definition) []Suggestion {
	var suggestions []Suggestion

	hasNonSnakeCase := false

	for _, state := range def.States {
		if containsUpperCase(string(state)) {
			hasNonSnakeCase = true

			break
		}
	}

	if hasNonSnakeCase {
		suggestions = append(suggestions, Suggestion{
			Message: "Consider using snake_case for state names for consistency",
			Example: `states:
  - awaiting_payment  # Good
  # instead of: awaitingPayment, AwaitingPayment`,
		})
	}

	if def.Initial == "" && len(def.States) > 1 {
		suggestions = append(suggestions, Suggestion{
			Message: fmt.Sprintf("The machine starts in '%s' because it is listed first; consider stating it", def.States[0]),
			Example: fmt.Sprintf("initial: %s", def.States[0]),
		})
	}

	hasGuard := false

	for _, t := range def.Transitions {
		if t.Guard != nil {
			hasGuard = true

			break
		}
	}

	if !hasGuard && len(def.Transitions) > 3 {
		suggestions = append(suggestions, Suggestion{
			Message: "Consider guarding transitions that depend on the model's data",
			Example: `transitions:
  - name: ship
    from: paid
    to: shipped
    guard: has_address  # calls HasAddress() on the model`,
		})
	}

	return suggestions
}

// containsUpperCase checks if a string contains uppercase characters.
func containsUpperCase(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}

	return false
}

// HasErrors returns true if the result has any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results.
func (r ValidationResult) String() string {
	var sb strings.Builder

	if r.Valid {
		sb.WriteString("✓ Definition is valid\n")
	} else {
		fmt.Fprintf(&sb, "✗ Definition has %d error(s)\n", len(r.Errors))

		for _, err := range r.Errors {
			fmt.Fprintf(&sb, "  [%s] %s%s\n", err.Code, err.Message, err.Location)

			if err.Fix != nil {
				fmt.Fprintf(&sb, "    Fix: %s\n", err.Fix.Description)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\n⚠ %d warning(s):\n", len(r.Warnings))

		for _, warn := range r.Warnings {
			fmt.Fprintf(&sb, "  [%s] %s%s\n", warn.Code, warn.Message, warn.Location)
		}
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&sb, "\n%d suggestion(s) for improvement:\n", len(r.Suggestions))

		for _, s := range r.Suggestions {
			fmt.Fprintf(&sb, "  - %s\n", s.Message)
		}
	}

	return sb.String()
}

// String renders the parts of l that are set, e.g. " (state: open, transition #2)".
func (l Location) String() string {
	var parts []string

	if l.State != "" {
		parts = append(parts, "state: "+l.State)
	}

	if l.Transition > 0 {
		parts = append(parts, fmt.Sprintf("transition #%d", l.Transition))
	}

	if len(parts) == 0 {
		return ""
	}

	return " (" + strings.Join(parts, ", ") + ")"
}
