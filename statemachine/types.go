package statemachine

import "context"

// State is a named point in a machine's lifecycle. The zero value means "no state".
type State string

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Action is a unit of work run while a transition is applied. It receives the
// arguments produced by StateMachine.ArgumentsForCall.
type Action func(ctx context.Context, args ...any) error

// Guard is a predicate evaluated before a transition proceeds. Returning false
// blocks the transition.
type Guard func(ctx context.Context, args ...any) (bool, error)

// Callback is a caller-supplied function run after the action and before the
// state is committed.
type Callback func(ctx context.Context) error

// FailureHandler receives a failed transition attempt. Its return values become
// the result of the transition call instead of the failure itself.
type FailureHandler func(ctx context.Context, failure *TransitionFailedError) (any, error)

// Binding is the view of a state machine that transitions, builders and
// factories work against. *StateMachine is the only production implementation.
type Binding interface {
	Name() string
	HasState(state State) bool
	CurrentState() State
	SetCurrentState(state State) error
	HasModel() bool
	Model() any
	ArgumentsForCall() []any
	EventName(suffix string) string
	DispatchEvent(ctx context.Context, name string, event *TransitionEvent) (any, error)

	log() Logger
}

// MethodResolver lets a model expose its actions and guards by name without
// relying on reflection. The returned value may be anything Calls or Guard
// accept, except a string.
type MethodResolver interface {
	ResolveMethod(name string) (any, bool)
}
