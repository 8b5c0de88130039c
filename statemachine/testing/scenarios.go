package testing

import (
	"testing"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// Step is one transition fired by a scenario, with what it should lead to.
type Step struct {
	Transition string
	// Expect is the state after the step. Empty skips the check.
	Expect statemachine.State
	// Fails, when set, is the failure kind the step must end with.
	Fails *statemachine.FailureKind
}

// TestScenario represents a complete test scenario for a state machine.
type TestScenario struct {
	Name       string
	Definition *statemachine.Definition
	Model      any
	Steps      []Step
	// Final is the state after all steps. Empty skips the check.
	Final    statemachine.State
	Matchers []Matcher
}

// RunScenario executes a test scenario and validates results.
func RunScenario(t *testing.T, scenario TestScenario) {
	t.Helper()
	t.Run(scenario.Name, func(t *testing.T) {
		var opts []statemachine.Option
		if scenario.Model != nil {
			opts = append(opts, statemachine.WithModel(scenario.Model))
		}

		tm := NewTestMachineFromDefinition(t, scenario.Definition, opts...)

		for _, step := range scenario.Steps {
			err := tm.Fire(t.Context(), step.Transition)

			switch {
			case step.Fails != nil:
				tm.AssertFailed(*step.Fails)
			case err != nil:
				t.Fatalf("Transition '%s' failed: %v", step.Transition, err)
			}

			if step.Expect != "" {
				tm.AssertState(step.Expect)
			}
		}

		if scenario.Final != "" {
			tm.AssertState(scenario.Final)
		}

		tm.Expect(scenario.Matchers...)

		for _, assertion := range tm.GetAssertions() {
			if !assertion.Passed {
				t.Errorf("Assertion failed: %s - %v", assertion.Name, assertion.Error)
			}
		}
	})
}

// DoorScenario opens, closes, locks and unlocks a door.
func DoorScenario() TestScenario {
	return TestScenario{
		Name:       "Door",
		Definition: CommonTestDefinitions.Door(),
		Model:      NewCallCounter().Guard("can_lock", true),
		Steps: []Step{
			{Transition: "open", Expect: "open"},
			{Transition: "close", Expect: "closed"},
			{Transition: "lock", Expect: "locked"},
			{Transition: "unlock", Expect: "closed"},
		},
		Final: "closed",
		Matchers: []Matcher{
			TransitionWasApplied("lock"),
			TransitionWasApplied("unlock"),
		},
	}
}

// GuardedDoorScenario tries to lock a door whose guard refuses.
func GuardedDoorScenario() TestScenario {
	guard := statemachine.FailureGuard

	return TestScenario{
		Name:       "Guarded Door",
		Definition: CommonTestDefinitions.Door(),
		Model:      NewCallCounter().Guard("can_lock", false),
		Steps: []Step{
			{Transition: "lock", Expect: "closed", Fails: &guard},
		},
		Final:    "closed",
		Matchers: []Matcher{TransitionFailed("lock", statemachine.FailureGuard)},
	}
}

// OrderScenario pays for and ships an order.
func OrderScenario() TestScenario {
	notFound := statemachine.FailureNotFound

	return TestScenario{
		Name:       "Order",
		Definition: CommonTestDefinitions.Order(),
		Model:      NewCallCounter(),
		Steps: []Step{
			{Transition: "pay", Expect: "paid"},
			{Transition: "cancel", Expect: "paid", Fails: &notFound},
			{Transition: "ship", Expect: "shipped"},
		},
		Final: "shipped",
		Matchers: []Matcher{
			EventsWere("order.before", "order.after", "order.before", "order.after"),
		},
	}
}

// TurnstileScenario loops a turnstile with no model attached.
func TurnstileScenario() TestScenario {
	return TestScenario{
		Name:       "Turnstile",
		Definition: CommonTestDefinitions.Turnstile(),
		Steps: []Step{
			{Transition: "coin", Expect: "unlocked"},
			{Transition: "push", Expect: "locked"},
			{Transition: "coin", Expect: "unlocked"},
		},
		Final: "unlocked",
	}
}
