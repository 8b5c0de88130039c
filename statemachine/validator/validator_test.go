//nolint:varnamelen // Test file
package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codesOf(result ValidationResult) (errs []string, warns []string) {
	for _, e := range result.Errors {
		errs = append(errs, e.Code)
	}

	for _, w := range result.Warnings {
		warns = append(warns, w.Code)
	}

	return errs, warns
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		def          *statemachine.Definition
		wantValid    bool
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name: "valid door",
			def: &statemachine.Definition{
				Name:   "door",
				States: []statemachine.State{"closed", "open"},
				Transitions: []statemachine.TransitionDefinition{
					{Name: "open", From: "closed", To: "open", Calls: "open"},
					{Name: "close", From: "open", To: "closed", Guard: func() bool { return true }},
				},
			},
			wantValid: true,
		},
		{
			name: "undeclared states",
			def: &statemachine.Definition{
				Name:   "door",
				States: []statemachine.State{"closed", "open"},
				Transitions: []statemachine.TransitionDefinition{
					{Name: "open", From: "closed", To: "open"},
					{Name: "close", From: "open", To: "closed"},
					{Name: "lock", From: "closed", To: "locked"},
					{Name: "unlock", From: "locked", To: "closed"},
				},
			},
			wantValid:  false,
			wantErrors: []string{"UNDECLARED_STATE", "UNDECLARED_STATE"},
		},
		{
			name: "duplicate route",
			def: &statemachine.Definition{
				Name:   "door",
				States: []statemachine.State{"closed", "open"},
				Transitions: []statemachine.TransitionDefinition{
					{Name: "open", From: "closed", To: "open"},
					{Name: "push", From: "closed", To: "open"},
					{Name: "close", From: "open", To: "closed"},
				},
			},
			wantValid:  false,
			wantErrors: []string{"DUPLICATE_ROUTE"},
		},
		{
			name: "invalid callables",
			def: &statemachine.Definition{
				Name:   "door",
				States: []statemachine.State{"closed", "open"},
				Transitions: []statemachine.TransitionDefinition{
					{Name: "open", From: "closed", To: "open", Calls: 42},
					{Name: "close", From: "open", To: "closed", Guard: "__"},
				},
			},
			wantValid:  false,
			wantErrors: []string{"INVALID_CALLABLE", "INVALID_CALLABLE"},
		},
		{
			name: "unreachable and dead end",
			def: &statemachine.Definition{
				Name:   "door",
				States: []statemachine.State{"closed", "open", "orphan"},
				Transitions: []statemachine.TransitionDefinition{
					{Name: "open", From: "closed", To: "open"},
					{Name: "close", From: "open", To: "closed"},
				},
			},
			wantValid:    true,
			wantWarnings: []string{"UNREACHABLE_STATE", "DEAD_END"},
		},
		{
			name: "shadowed transition",
			def: &statemachine.Definition{
				Name:   "door",
				States: []statemachine.State{"closed", "open", "ajar"},
				Transitions: []statemachine.TransitionDefinition{
					{Name: "open", From: "closed", To: "open"},
					{Name: "open", From: "closed", To: "ajar"},
					{Name: "close", From: "open", To: "closed"},
					{Name: "close", From: "ajar", To: "closed"},
				},
			},
			wantValid:    true,
			wantWarnings: []string{"SHADOWED_TRANSITION"},
		},
		{
			name: "naming convention",
			def: &statemachine.Definition{
				Name:   "door",
				States: []statemachine.State{"Closed", "open"},
				Transitions: []statemachine.TransitionDefinition{
					{Name: "open-wide", From: "Closed", To: "open"},
					{Name: "close", From: "open", To: "Closed"},
				},
			},
			wantValid:    true,
			wantWarnings: []string{"NAMING_CONVENTION", "NAMING_CONVENTION"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := ValidateWithRules(tt.def, DefaultRules())
			errs, warns := codesOf(result)

			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantErrors, errs)
			assert.Equal(t, tt.wantWarnings, warns)
		})
	}
}

func TestUndeclaredStateOffersOneFixPerState(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:   "door",
		States: []statemachine.State{"closed"},
		Transitions: []statemachine.TransitionDefinition{
			{Name: "open", From: "closed", To: "open"},
			{Name: "close", From: "open", To: "closed"},
		},
	}

	result := ValidateWithRules(def, []Rule{&undeclaredStateRule{}})
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 1, result.Errors[0].Location.Transition)
	assert.Equal(t, "open", result.Errors[0].Location.State)

	fixes := result.Fixes()
	require.Len(t, fixes, 1)
	require.NoError(t, ApplyFixes(def, fixes))

	assert.Equal(t, []statemachine.State{"closed", "open"}, def.States)
	assert.NoError(t, def.Validate())
}

func TestUndeclaredInitialState(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:    "door",
		States:  []statemachine.State{"closed"},
		Initial: "ajar",
	}

	result := ValidateWithRules(def, []Rule{&undeclaredStateRule{}})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ajar", result.Errors[0].Location.State)
	assert.Zero(t, result.Errors[0].Location.Transition)
}

func TestValidateWithRulesStrict(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:   "door",
		States: []statemachine.State{"closed", "open"},
		Transitions: []statemachine.TransitionDefinition{
			{Name: "open", From: "closed", To: "open"},
		},
	}

	result := ValidateWithRules(def, DefaultRules())
	assert.True(t, result.Valid)
	assert.True(t, result.HasWarnings())

	strict := ValidateWithRulesStrict(def, DefaultRules())
	assert.False(t, strict.Valid)
	assert.False(t, strict.HasWarnings())
	require.True(t, strict.HasErrors())
	assert.Equal(t, "DEAD_END", strict.Errors[0].Code)
}

func TestFixesRoundTrip(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:    "door",
		States:  []statemachine.State{"Closed", "open", "orphan"},
		Initial: "Closed",
		Transitions: []statemachine.TransitionDefinition{
			{Name: "open", From: "Closed", To: "open"},
			{Name: "push", From: "Closed", To: "open"},
			{Name: "close", From: "open", To: "Closed"},
			{Name: "leave", From: "orphan", To: "open"},
		},
	}

	result := Validate(def)
	require.False(t, result.Valid)
	require.NoError(t, ApplyFixes(def, result.Fixes()))

	assert.Equal(t, []statemachine.State{"closed", "open"}, def.States)
	assert.Equal(t, statemachine.State("closed"), def.Initial)
	require.Len(t, def.Transitions, 2)
	assert.Equal(t, "open", def.Transitions[0].Name)
	assert.Equal(t, "close", def.Transitions[1].Name)

	result = Validate(def)
	assert.True(t, result.Valid)
	assert.False(t, result.HasWarnings())
}

func TestFixErrors(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:   "door",
		States: []statemachine.State{"closed", "open"},
		Transitions: []statemachine.TransitionDefinition{
			{Name: "open", From: "closed", To: "open"},
		},
	}

	require.ErrorIs(t, AddMissingTransition("again", "closed", "open").Apply(def), ErrTransitionExists)
	require.ErrorIs(t, DeclareState("open").Apply(def), ErrStateAlreadyExists)
	require.ErrorIs(t, RemoveUnreachableState("ajar").Apply(def), ErrStateNotFound)
	require.ErrorIs(t, RenameState("ajar", "half_open").Apply(def), ErrStateNotFound)
	require.ErrorIs(t, RenameState("closed", "open").Apply(def), ErrStateAlreadyExists)
	require.ErrorIs(t, RemoveDuplicateTransition("closed", "open").Apply(def), ErrDuplicateNotFound)

	err := ApplyFixes(def, []*Fix{nil, AddMissingTransition("close", "open", "closed"), DeclareState("open")})
	require.ErrorIs(t, err, ErrStateAlreadyExists)
	assert.Contains(t, err.Error(), "Declare state 'open'")
	assert.Len(t, def.Transitions, 2)
}

func TestValidateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	valid := filepath.Join(dir, "door.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
name: door
states: [closed, open]
transitions:
  - {name: open, from: closed, to: open}
  - {name: close, from: open, to: closed}
`), 0o600))

	result, err := ValidateFile(valid)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`
name: door
states: [closed]
transitions:
  - {name: open, from: closed, to: open}
`), 0o600))

	result, err = ValidateFile(broken)
	require.NoError(t, err, "structural problems are reported, not returned")
	require.False(t, result.Valid)
	assert.Equal(t, "UNDECLARED_STATE", result.Errors[0].Code)
	assert.Equal(t, broken, result.Errors[0].Location.File)

	result, err = ValidateFileStrict(valid)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	result, err = ValidateFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, "DEFINITION_LOAD_FAILED", result.Errors[0].Code)
}

type alwaysWarn struct{}

func (alwaysWarn) Name() string       { return "AlwaysWarn" }
func (alwaysWarn) Severity() Severity { return SeverityInfo }
func (alwaysWarn) Check(*statemachine.Definition) RuleResult {
	return RuleResult{Warnings: []ValidationWarning{{Code: "ALWAYS"}}}
}

// TestRegisterRule modifies the package-level rule registry.
//
//nolint:paralleltest // Test modifies global registered rules
func TestRegisterRule(t *testing.T) {
	saved := RegisteredRules

	t.Cleanup(func() { RegisteredRules = saved })

	RegisterRule(alwaysWarn{})

	result := Validate(&statemachine.Definition{Name: "x", States: []statemachine.State{"a"}})
	_, warns := codesOf(result)

	assert.Contains(t, warns, "ALWAYS")
}

func TestValidationResultString(t *testing.T) {
	t.Parallel()

	valid := ValidationResult{Valid: true}
	assert.Contains(t, valid.String(), "Definition is valid")

	invalid := ValidationResult{
		Errors: []ValidationError{{
			Code:     "DUPLICATE_ROUTE",
			Message:  "Transition 'push' repeats a route",
			Location: Location{State: "closed", Transition: 2},
			Fix:      RemoveDuplicateTransition("closed", "open"),
		}},
		Warnings: []ValidationWarning{{Code: "DEAD_END", Message: "stuck"}},
		Suggestions: []Suggestion{{Message: "name things well"}},
	}

	s := invalid.String()
	assert.Contains(t, s, "1 error(s)")
	assert.Contains(t, s, "[DUPLICATE_ROUTE] Transition 'push' repeats a route (state: closed, transition #2)")
	assert.Contains(t, s, "Fix: Remove duplicate transition from 'closed' to 'open'")
	assert.Contains(t, s, "[DEAD_END] stuck\n")
	assert.Contains(t, s, "name things well")
}

func TestGenerateSuggestions(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:   "door",
		States: []statemachine.State{"Closed", "open"},
		Transitions: []statemachine.TransitionDefinition{
			{Name: "a", From: "Closed", To: "open"},
			{Name: "b", From: "open", To: "Closed"},
			{Name: "c", From: "open", To: "open"},
			{Name: "d", From: "Closed", To: "Closed"},
		},
	}

	suggestions := generateSuggestions(def)
	require.Len(t, suggestions, 3)
	assert.Contains(t, suggestions[1].Example, "initial: Closed")
}

func TestHelperFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		snakeCase bool
		converted string
	}{
		{"awaiting_payment", true, "awaiting_payment"},
		{"awaitingPayment", false, "awaiting_payment"},
		{"AwaitingPayment", false, "awaiting_payment"},
		{"awaiting-payment", false, "awaiting_payment"},
		{"awaiting payment", false, "awaiting_payment"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.snakeCase, isSnakeCase(tt.input))
			assert.Equal(t, tt.converted, toSnakeCase(tt.input))
		})
	}
}

func TestDuplicateRouteFixedOncePerRoute(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:   "turnstile",
		States: []statemachine.State{"locked", "unlocked"},
		Transitions: []statemachine.TransitionDefinition{
			{Name: "coin", From: "locked", To: "unlocked"},
			{Name: "push", From: "unlocked", To: "locked"},
			{Name: "kick", From: "unlocked", To: "locked"},
			{Name: "shove", From: "unlocked", To: "locked"},
		},
	}

	result := ValidateWithRules(def, []Rule{&duplicateRouteRule{}})
	require.Len(t, result.Errors, 2)
	require.NotNil(t, result.Errors[0].Fix)
	assert.Nil(t, result.Errors[1].Fix)

	require.NoError(t, ApplyFixes(def, result.Fixes()))
	require.Len(t, def.Transitions, 2)
	assert.Equal(t, "push", def.Transitions[1].Name)
	assert.True(t, Validate(def).Valid)
}

func TestApplyFixesSkipsRemovedTargets(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:   "turnstile",
		States: []statemachine.State{"locked", "unlocked", "Broken"},
		Transitions: []statemachine.TransitionDefinition{
			{Name: "coin", From: "locked", To: "unlocked"},
			{Name: "push", From: "unlocked", To: "locked"},
		},
	}

	result := Validate(def)
	require.Len(t, result.Fixes(), 2)

	require.NoError(t, ApplyFixes(def, result.Fixes()))
	assert.Equal(t, []statemachine.State{"locked", "unlocked"}, def.States)

	duplicate := RemoveDuplicateTransition("locked", "unlocked")
	require.NoError(t, ApplyFixes(def, []*Fix{duplicate}))
	assert.Len(t, def.Transitions, 2)
}

func TestUnreachableIgnoresUndeclaredInitial(t *testing.T) {
	t.Parallel()

	def := &statemachine.Definition{
		Name:    "turnstile",
		States:  []statemachine.State{"locked", "unlocked"},
		Initial: "start",
		Transitions: []statemachine.TransitionDefinition{
			{Name: "coin", From: "locked", To: "unlocked"},
			{Name: "push", From: "unlocked", To: "locked"},
		},
	}

	result := Validate(def)
	errs, warns := codesOf(result)
	assert.Equal(t, []string{"UNDECLARED_STATE"}, errs)
	assert.NotContains(t, warns, "UNREACHABLE_STATE")

	require.NoError(t, ApplyFixes(def, result.Fixes()))
	assert.Equal(t, []statemachine.State{"locked", "unlocked", "start"}, def.States)
	assert.Len(t, def.Transitions, 2)
}
