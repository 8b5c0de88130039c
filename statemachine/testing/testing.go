// Package testing provides testing utilities for state machines.
//
//nolint:varnamelen // short names idiomatic
package testing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/require"
)

// TestMachine wraps StateMachine with testing utilities. Every notification is
// captured by a Recorder and every transition fired through it is traced.
type TestMachine struct {
	*statemachine.StateMachine

	t          *testing.T
	recorder   *Recorder
	trace      []TraceEntry
	assertions []Assertion
}

// TraceEntry records a single transition attempt.
type TraceEntry struct {
	Timestamp  time.Time
	Transition string
	From       statemachine.State
	To         statemachine.State
	Duration   time.Duration
	Error      error
}

// Assertion represents a test assertion.
type Assertion struct {
	Name   string
	Passed bool
	Error  error
}

// NewTestMachine creates a test machine with the given states. A Recorder is
// installed as notification sink; opts may not replace it.
func NewTestMachine(t *testing.T, states []statemachine.State, opts ...statemachine.Option) *TestMachine {
	t.Helper()

	recorder := NewRecorder()
	m := statemachine.New(states, append(opts, statemachine.WithNotificationSink(recorder))...)

	return wrap(t, m, recorder)
}

// NewTestMachineFromDefinition builds a test machine from def.
func NewTestMachineFromDefinition(
	t *testing.T, def *statemachine.Definition, opts ...statemachine.Option,
) *TestMachine {
	t.Helper()

	recorder := NewRecorder()

	m, err := statemachine.NewFromDefinition(def, append(opts, statemachine.WithNotificationSink(recorder))...)
	require.NoError(t, err, "failed to create state machine")

	return wrap(t, m, recorder)
}

func wrap(t *testing.T, m *statemachine.StateMachine, recorder *Recorder) *TestMachine {
	t.Helper()

	recorder.Observe(m)

	return &TestMachine{
		StateMachine: m,
		t:            t,
		recorder:     recorder,
	}
}

// Fire applies the transition called name and records the attempt.
func (tm *TestMachine) Fire(ctx context.Context, name string, opts ...statemachine.ApplyOption) error {
	tm.t.Helper()

	entry := TraceEntry{
		Timestamp:  time.Now(),
		Transition: name,
		From:       tm.CurrentState(),
	}

	if tr, ok := tm.Transitions().FindAvailableByName(name); ok {
		entry.To = tr.To()
	}

	_, err := tm.Transition(ctx, name, opts...)

	entry.Duration = time.Since(entry.Timestamp)
	entry.Error = err
	tm.trace = append(tm.trace, entry)

	return err
}

// MustTransition fires name and fails the test if it does not succeed.
func (tm *TestMachine) MustTransition(name string, opts ...statemachine.ApplyOption) {
	tm.t.Helper()

	err := tm.Fire(tm.t.Context(), name, opts...)
	require.NoError(tm.t, err, "transition '%s' should succeed", name)
}

// AssertState checks the current state.
func (tm *TestMachine) AssertState(expected statemachine.State) {
	tm.t.Helper()

	actual := tm.CurrentState()

	tm.record(fmt.Sprintf("Current state is '%s'", expected), actual == expected,
		fmt.Errorf("%w: expected '%s', got '%s'", ErrStateMismatch, expected, actual))

	require.Equal(tm.t, expected, actual, "current state should be '%s'", expected)
}

// AssertCan checks that a transition called name is available.
func (tm *TestMachine) AssertCan(name string) {
	tm.t.Helper()

	can := tm.Can(name)

	tm.record(fmt.Sprintf("Can '%s'", name), can,
		fmt.Errorf("%w: '%s' from '%s'", ErrTransitionUnavailable, name, tm.CurrentState()))

	require.True(tm.t, can, "transition '%s' should be available from '%s'", name, tm.CurrentState())
}

// AssertCannot checks that no transition called name is available.
func (tm *TestMachine) AssertCannot(name string) {
	tm.t.Helper()

	can := tm.Can(name)

	tm.record(fmt.Sprintf("Cannot '%s'", name), !can,
		fmt.Errorf("%w: '%s' from '%s'", ErrTransitionAvailable, name, tm.CurrentState()))

	require.False(tm.t, can, "transition '%s' should not be available from '%s'", name, tm.CurrentState())
}

// AssertEvents checks the names of every event dispatched so far.
func (tm *TestMachine) AssertEvents(expected ...string) {
	tm.t.Helper()

	actual := tm.recorder.Names()
	if len(expected) == 0 {
		expected = nil
	}

	if len(actual) == 0 {
		actual = nil
	}

	tm.record(fmt.Sprintf("Events were %v", expected), slices.Equal(expected, actual),
		fmt.Errorf("%w: expected %v, got %v", ErrEventsMismatch, expected, actual))

	require.Equal(tm.t, expected, actual, "dispatched events should match")
}

// AssertFailed checks that the last fired transition failed with kind.
func (tm *TestMachine) AssertFailed(kind statemachine.FailureKind) {
	tm.t.Helper()

	require.NotEmpty(tm.t, tm.trace, "no transition fired")

	last := tm.trace[len(tm.trace)-1]

	var failure *statemachine.TransitionFailedError

	matched := errors.As(last.Error, &failure) && failure.Kind == kind

	tm.record(fmt.Sprintf("Transition '%s' failed with %s", last.Transition, kind), matched,
		fmt.Errorf("%w: '%s' want %s, got %v", ErrFailureMismatch, last.Transition, kind, last.Error))

	require.True(tm.t, matched, "transition '%s' should fail with %s, got %v", last.Transition, kind, last.Error)
}

// Expect checks every matcher and fails the test on the first mismatch.
func (tm *TestMachine) Expect(matchers ...Matcher) {
	tm.t.Helper()

	for _, matcher := range matchers {
		matched, err := matcher.Match(tm)

		tm.record(matcher.Description(), matched && err == nil, err)

		require.True(tm.t, matched, "%s: %v", matcher.Description(), err)
		require.NoError(tm.t, err, matcher.Description())
	}
}

func (tm *TestMachine) record(name string, passed bool, failure error) {
	assertion := Assertion{
		Name:   name,
		Passed: passed,
	}

	if !passed {
		assertion.Error = failure
	}

	tm.assertions = append(tm.assertions, assertion)
}

// Recorder returns the recorder capturing the machine's events.
func (tm *TestMachine) Recorder() *Recorder {
	return tm.recorder
}

// GetTrace returns the transition trace for inspection.
func (tm *TestMachine) GetTrace() []TraceEntry {
	return tm.trace
}

// GetAssertions returns all assertions made.
func (tm *TestMachine) GetAssertions() []Assertion {
	return tm.assertions
}
