//nolint:lll,mnd // Long validation messages; arithmetic for case conversion
package validator

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Rule defines a validation rule that can check a definition for specific issues.
type Rule interface {
	Name() string
	Severity() Severity
	Check(def *statemachine.Definition) RuleResult
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&undeclaredStateRule{},
		&duplicateRouteRule{},
		&callableRule{},
		&unreachableStateRule{},
		&deadEndRule{},
		&shadowedTransitionRule{},
		&namingConventionRule{},
	}
}

// RegisteredRules stores custom validation rules. Validate and ValidateFile run
// them after the default rules.
var RegisteredRules []Rule

// RegisterRule adds a custom validation rule.
func RegisterRule(rule Rule) {
	RegisteredRules = append(RegisteredRules, rule)
}

// undeclaredStateRule checks that transitions and the initial state only use declared states.
type undeclaredStateRule struct{}

func (r *undeclaredStateRule) Name() string {
	return "UndeclaredState"
}

func (r *undeclaredStateRule) Severity() Severity {
	return SeverityError
}

func (r *undeclaredStateRule) Check(def *statemachine.Definition) RuleResult {
	var errors []ValidationError

	declared := declaredStates(def)
	reported := make(map[statemachine.State]bool)

	report := func(state statemachine.State, message string, index int) {
		fix := DeclareState(state)
		if reported[state] {
			fix = nil
		}

		reported[state] = true

		errors = append(errors, ValidationError{
			Code:     "UNDECLARED_STATE",
			Message:  message,
			Location: Location{State: string(state), Transition: index},
			Fix:      fix,
		})
	}

	if def.Initial != "" && !declared[def.Initial] {
		report(def.Initial, fmt.Sprintf("Initial state '%s' is not declared", def.Initial), 0)
	}

	for i, t := range def.Transitions {
		if t.From != "" && !declared[t.From] {
			report(t.From, fmt.Sprintf("Transition '%s' starts from undeclared state '%s'", t.Name, t.From), i+1)
		}

		if t.To != "" && !declared[t.To] {
			report(t.To, fmt.Sprintf("Transition '%s' leads to undeclared state '%s'", t.Name, t.To), i+1)
		}
	}

	return RuleResult{Errors: errors}
}

// duplicateRouteRule checks that no two transitions share a (from, to) route.
type duplicateRouteRule struct{}

func (r *duplicateRouteRule) Name() string {
	return "DuplicateRoute"
}

func (r *duplicateRouteRule) Severity() Severity {
	return SeverityError
}

func (r *duplicateRouteRule) Check(def *statemachine.Definition) RuleResult {
	var errors []ValidationError

	first := make(map[string]string)
	fixed := make(map[string]bool)

	for i, t := range def.Transitions {
		key := fmt.Sprintf("%s->%s", t.From, t.To)

		name, seen := first[key]
		if !seen {
			first[key] = t.Name

			continue
		}

		issue := ValidationError{
			Code:     "DUPLICATE_ROUTE",
			Message:  fmt.Sprintf("Transition '%s' repeats the route '%s' -> '%s' already taken by '%s'", t.Name, t.From, t.To, name),
			Location: Location{State: string(t.From), Transition: i + 1},
		}

		// One fix removes every repeat of the route.
		if !fixed[key] {
			issue.Fix = RemoveDuplicateTransition(t.From, t.To)
			fixed[key] = true
		}

		errors = append(errors, issue)
	}

	return RuleResult{Errors: errors}
}

// callableRule checks that actions and guards are method names or functions.
type callableRule struct{}

func (r *callableRule) Name() string {
	return "Callable"
}

func (r *callableRule) Severity() Severity {
	return SeverityError
}

func (r *callableRule) Check(def *statemachine.Definition) RuleResult {
	var errors []ValidationError

	check := func(i int, t statemachine.TransitionDefinition, field string, value any) {
		switch v := value.(type) {
		case nil:
			return
		case string:
			if v == "" || statemachine.MethodName(v) != "" {
				return
			}
		default:
			if reflect.TypeOf(value).Kind() == reflect.Func {
				return
			}
		}

		errors = append(errors, ValidationError{
			Code:     "INVALID_CALLABLE",
			Message:  fmt.Sprintf("Transition '%s' %s '%v' is neither a method name nor a function", t.Name, field, value),
			Location: Location{State: string(t.From), Transition: i + 1},
		})
	}

	for i, t := range def.Transitions {
		check(i, t, "calls", t.Calls)
		check(i, t, "guard", t.Guard)
	}

	return RuleResult{Errors: errors}
}

// unreachableStateRule checks for states that cannot be reached from the initial state.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string {
	return "UnreachableState"
}

func (r *unreachableStateRule) Severity() Severity {
	return SeverityWarning
}

func (r *unreachableStateRule) Check(def *statemachine.Definition) RuleResult {
	var warnings []ValidationWarning

	// An undeclared initial state is reported by the undeclared state rule.
	initial := initialState(def)
	if initial == "" || !slices.Contains(def.States, initial) {
		return RuleResult{}
	}

	reachable := map[statemachine.State]bool{initial: true}

	queue := []statemachine.State{initial}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, t := range def.Transitions {
			if t.From == current && !reachable[t.To] {
				reachable[t.To] = true
				queue = append(queue, t.To)
			}
		}
	}

	for _, state := range def.States {
		if !reachable[state] {
			warnings = append(warnings, ValidationWarning{
				Code:     "UNREACHABLE_STATE",
				Message:  fmt.Sprintf("State '%s' cannot be reached from initial state '%s'", state, initial),
				Location: Location{State: string(state)},
				Fix:      RemoveUnreachableState(state),
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// deadEndRule warns about states that no transition leaves.
type deadEndRule struct{}

func (r *deadEndRule) Name() string {
	return "DeadEnd"
}

func (r *deadEndRule) Severity() Severity {
	return SeverityWarning
}

func (r *deadEndRule) Check(def *statemachine.Definition) RuleResult {
	var warnings []ValidationWarning

	hasOutgoing := make(map[statemachine.State]bool)
	for _, t := range def.Transitions {
		hasOutgoing[t.From] = true
	}

	for _, state := range def.States {
		if !hasOutgoing[state] {
			warnings = append(warnings, ValidationWarning{
				Code:     "DEAD_END",
				Message:  fmt.Sprintf("No transition leaves state '%s'; once entered the machine stays there", state),
				Location: Location{State: string(state)},
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// shadowedTransitionRule warns when two transitions share both a name and a
// source state: applying by name always picks the first one.
type shadowedTransitionRule struct{}

func (r *shadowedTransitionRule) Name() string {
	return "ShadowedTransition"
}

func (r *shadowedTransitionRule) Severity() Severity {
	return SeverityWarning
}

func (r *shadowedTransitionRule) Check(def *statemachine.Definition) RuleResult {
	var warnings []ValidationWarning

	first := make(map[string]statemachine.State)

	for i, t := range def.Transitions {
		key := t.Name + "@" + string(t.From)

		to, seen := first[key]
		if !seen {
			first[key] = t.To

			continue
		}

		warnings = append(warnings, ValidationWarning{
			Code: "SHADOWED_TRANSITION",
			Message: fmt.Sprintf("Transition '%s' from '%s' to '%s' is shadowed by the one to '%s'; it can only be applied by target state",
				t.Name, t.From, t.To, to),
			Location: Location{State: string(t.From), Transition: i + 1},
		})
	}

	return RuleResult{Warnings: warnings}
}

// namingConventionRule warns about naming convention violations.
type namingConventionRule struct{}

func (r *namingConventionRule) Name() string {
	return "NamingConvention"
}

func (r *namingConventionRule) Severity() Severity {
	return SeverityWarning
}

func (r *namingConventionRule) Check(def *statemachine.Definition) RuleResult {
	var warnings []ValidationWarning

	for _, state := range def.States {
		name := string(state)
		if !isSnakeCase(name) {
			warnings = append(warnings, ValidationWarning{
				Code:     "NAMING_CONVENTION",
				Message:  fmt.Sprintf("State '%s' should use snake_case naming (suggested: '%s')", name, toSnakeCase(name)),
				Location: Location{State: name},
				Fix:      RenameState(state, statemachine.State(toSnakeCase(name))),
			})
		}
	}

	for i, t := range def.Transitions {
		if !isSnakeCase(t.Name) {
			warnings = append(warnings, ValidationWarning{
				Code:     "NAMING_CONVENTION",
				Message:  fmt.Sprintf("Transition '%s' should use snake_case naming (suggested: '%s')", t.Name, toSnakeCase(t.Name)),
				Location: Location{Transition: i + 1},
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// Helper functions

func declaredStates(def *statemachine.Definition) map[statemachine.State]bool {
	declared := make(map[statemachine.State]bool, len(def.States))
	for _, state := range def.States {
		declared[state] = true
	}

	return declared
}

func initialState(def *statemachine.Definition) statemachine.State {
	if def.Initial != "" {
		return def.Initial
	}

	if len(def.States) > 0 {
		return def.States[0]
	}

	return ""
}

func isSnakeCase(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return false
		}

		if r == '-' || r == ' ' {
			return false
		}
	}

	return true
}

func toSnakeCase(s string) string {
	var result []rune

	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				result = append(result, '_')
			}

			result = append(result, r+32) // Convert to lowercase
		case r == '-' || r == ' ':
			result = append(result, '_')
		default:
			result = append(result, r)
		}
	}

	return string(result)
}
