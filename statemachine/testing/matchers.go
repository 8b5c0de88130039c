package testing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// Matcher errors.
var (
	ErrNoTrace               = errors.New("no transition trace available")
	ErrNoMatchersPassed      = errors.New("no matchers passed")
	ErrStateMismatch         = errors.New("state mismatch")
	ErrTransitionUnavailable = errors.New("transition is not available")
	ErrTransitionAvailable   = errors.New("transition is available")
	ErrTransitionNotApplied  = errors.New("transition was not applied")
	ErrEventsMismatch        = errors.New("dispatched events mismatch")
	ErrFailureMismatch       = errors.New("transition failure mismatch")
)

// Matcher defines an assertion matcher interface.
type Matcher interface {
	Match(tm *TestMachine) (bool, error)
	Description() string
}

// StateIs creates a matcher that checks the current state.
func StateIs(state statemachine.State) Matcher {
	return &stateIsMatcher{state: state}
}

type stateIsMatcher struct {
	state statemachine.State
}

func (m *stateIsMatcher) Match(tm *TestMachine) (bool, error) {
	if actual := tm.CurrentState(); actual != m.state {
		return false, fmt.Errorf("%w: expected '%s', got '%s'", ErrStateMismatch, m.state, actual)
	}

	return true, nil
}

func (m *stateIsMatcher) Description() string {
	return fmt.Sprintf("current state should be '%s'", m.state)
}

// TransitionWasApplied creates a matcher that checks a transition called name
// was fired through the test machine and succeeded.
func TransitionWasApplied(name string) Matcher {
	return &transitionAppliedMatcher{name: name}
}

type transitionAppliedMatcher struct {
	name string
}

func (m *transitionAppliedMatcher) Match(tm *TestMachine) (bool, error) {
	if len(tm.trace) == 0 {
		return false, ErrNoTrace
	}

	for _, entry := range tm.trace {
		if entry.Transition == m.name && entry.Error == nil {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: '%s'", ErrTransitionNotApplied, m.name)
}

func (m *transitionAppliedMatcher) Description() string {
	return fmt.Sprintf("transition '%s' should be applied", m.name)
}

// TransitionFailed creates a matcher that checks a transition called name was
// fired and failed with kind.
func TransitionFailed(name string, kind statemachine.FailureKind) Matcher {
	return &transitionFailedMatcher{name: name, kind: kind}
}

type transitionFailedMatcher struct {
	name string
	kind statemachine.FailureKind
}

func (m *transitionFailedMatcher) Match(tm *TestMachine) (bool, error) {
	if len(tm.trace) == 0 {
		return false, ErrNoTrace
	}

	for _, entry := range tm.trace {
		var failure *statemachine.TransitionFailedError
		if entry.Transition == m.name && errors.As(entry.Error, &failure) && failure.Kind == m.kind {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: '%s' did not fail with %s", ErrFailureMismatch, m.name, m.kind)
}

func (m *transitionFailedMatcher) Description() string {
	return fmt.Sprintf("transition '%s' should fail with %s", m.name, m.kind)
}

// EventsWere creates a matcher that checks the names of all dispatched events.
func EventsWere(names ...string) Matcher {
	return &eventsMatcher{names: names}
}

type eventsMatcher struct {
	names []string
}

func (m *eventsMatcher) Match(tm *TestMachine) (bool, error) {
	actual := tm.recorder.Names()
	if !slices.Equal(actual, m.names) {
		return false, fmt.Errorf("%w: expected %v, got %v", ErrEventsMismatch, m.names, actual)
	}

	return true, nil
}

func (m *eventsMatcher) Description() string {
	return fmt.Sprintf("dispatched events should be %v", m.names)
}

// All creates a matcher that requires all sub-matchers to pass.
func All(matchers ...Matcher) Matcher {
	return &allMatcher{matchers: matchers}
}

type allMatcher struct {
	matchers []Matcher
}

func (m *allMatcher) Match(tm *TestMachine) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(tm)
		if !matched || err != nil {
			return false, err
		}
	}

	return true, nil
}

func (m *allMatcher) Description() string {
	return "all matchers should pass"
}

// Any creates a matcher that requires at least one sub-matcher to pass.
func Any(matchers ...Matcher) Matcher {
	return &anyMatcher{matchers: matchers}
}

type anyMatcher struct {
	matchers []Matcher
}

func (m *anyMatcher) Match(tm *TestMachine) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(tm)
		if matched && err == nil {
			return true, nil
		}
	}

	return false, ErrNoMatchersPassed
}

func (m *anyMatcher) Description() string {
	return "at least one matcher should pass"
}
