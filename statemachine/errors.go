package statemachine

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrStateNotDefined indicates that a state is not declared on the machine.
	ErrStateNotDefined = errors.New("state not defined")
	// ErrTransitionNotNamed indicates that a transition was constructed without a name.
	ErrTransitionNotNamed = errors.New("transition must have a name")
	// ErrTransitionFromRequired indicates that a transition was built without a source state.
	ErrTransitionFromRequired = errors.New("transition from state is required")
	// ErrTransitionToRequired indicates that a transition was built without a destination state.
	ErrTransitionToRequired = errors.New("transition to state is required")
	// ErrDuplicateTransitionRoute indicates that a transition with the same route is already registered.
	ErrDuplicateTransitionRoute = errors.New("duplicate transition route")
	// ErrNoStateMachine indicates that a factory was used before being bound to a machine.
	ErrNoStateMachine = errors.New("no state machine defined, one is needed to create transitions")
	// ErrInvalidDefinition indicates that declarative transition arguments could not be understood.
	ErrInvalidDefinition = errors.New("invalid transition definition")

	ErrTransitionNotFound     = errors.New("transition not found")
	ErrTransitionNotAvailable = errors.New("transition not available")
	ErrTransitionGuardFailed  = errors.New("transition guard failed")
	ErrTransitionFailed       = errors.New("transition failed")

	// ErrNoModelAvailableForMethod indicates that a method name was given but no model is attached.
	ErrNoModelAvailableForMethod = errors.New("no model available for method")
	// ErrMethodNotFound indicates that the attached model has no method with the resolved name.
	ErrMethodNotFound = errors.New("model method not found")
	// ErrInvalidCallable indicates that a value given to Calls or Guard cannot be invoked.
	ErrInvalidCallable = errors.New("value is not callable")
	// ErrCallArguments indicates that the call arguments do not fit the callable's parameters.
	ErrCallArguments = errors.New("call arguments do not match callable parameters")
	// ErrGuardResultNotBool indicates that a guard returned something other than a bool.
	ErrGuardResultNotBool = errors.New("guard must return a bool")
)

// StateError wraps an error with state context.
type StateError struct {
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state '%s': %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// TransitionError wraps an error with transition context. Any of the fields
// may be empty when unknown.
type TransitionError struct {
	Name string
	From State
	To   State
	Err  error
}

func (e *TransitionError) Error() string {
	switch {
	case e.Name != "" && e.From != "":
		return fmt.Sprintf("transition '%s' from '%s': %v", e.Name, e.From, e.Err)
	case e.Name != "":
		return fmt.Sprintf("transition '%s': %v", e.Name, e.Err)
	case e.To == "":
		return fmt.Sprintf("transition from '%s': %v", e.From, e.Err)
	default:
		return fmt.Sprintf("transition '%s' -> '%s': %v", e.From, e.To, e.Err)
	}
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// MethodError wraps an error with the model method it concerns.
type MethodError struct {
	Method string
	Err    error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("method '%s': %v", e.Method, e.Err)
}

func (e *MethodError) Unwrap() error {
	return e.Err
}

// FailureKind tags where in the transition pipeline an attempt failed.
type FailureKind int

const (
	FailureNotFound FailureKind = iota + 1
	FailureNotAvailable
	FailureGuard
	FailureNotification
	FailureAction
	FailureCallback
	FailureCommit
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureNotAvailable:
		return "not_available"
	case FailureGuard:
		return "guard"
	case FailureNotification:
		return "notification"
	case FailureAction:
		return "action"
	case FailureCallback:
		return "callback"
	case FailureCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// TransitionFailedError is the single failure shape surfaced by a transition
// attempt. Transition is nil when no transition could be resolved.
type TransitionFailedError struct {
	Transition *Transition
	Kind       FailureKind
	Cause      error
}

func (e *TransitionFailedError) Error() string {
	name := ""
	if e.Transition != nil {
		name = e.Transition.Name()
	}

	if name == "" {
		return fmt.Sprintf("transition failed: %v", e.Cause)
	}

	return fmt.Sprintf("transition '%s' failed: %v", name, e.Cause)
}

func (e *TransitionFailedError) Unwrap() error {
	return e.Cause
}

// Is reports ErrTransitionFailed as matching so callers can test for the
// failure shape without errors.As.
func (e *TransitionFailedError) Is(target error) bool {
	return target == ErrTransitionFailed
}

// IsTransitionFailed reports whether err is, or wraps, a failed transition attempt.
func IsTransitionFailed(err error) bool {
	var e *TransitionFailedError

	return errors.As(err, &e)
}

func newFailure(t *Transition, kind FailureKind, cause error) *TransitionFailedError {
	return &TransitionFailedError{
		Transition: t,
		Kind:       kind,
		Cause:      cause,
	}
}
