package statemachine

import (
	"context"
	"time"
)

// Event suffixes dispatched around every transition attempt. The full event
// name is "<namespace>.<suffix>", see StateMachine.EventName.
const (
	EventBefore = "before"
	EventAfter  = "after"
)

// Transition is a named, directed edge between two declared states. It is
// immutable once built; use a TransitionBuilder to create one.
type Transition struct {
	machine        Binding
	name           string
	from           State
	to             State
	action         *callable
	guard          *callable
	useDefaultCall bool
}

// Name returns the transition name. Names are not required to be unique.
func (t *Transition) Name() string {
	return t.name
}

// From returns the source state.
func (t *Transition) From() State {
	return t.from
}

// To returns the destination state.
func (t *Transition) To() State {
	return t.to
}

// Machine returns the binding of the machine that owns t.
func (t *Transition) Machine() Binding {
	return t.machine
}

// HasGuard reports whether a guard was configured.
func (t *Transition) HasGuard() bool {
	return t.guard != nil
}

// UsesDefaultCall reports whether an action is derived from the model when
// none was configured explicitly.
func (t *Transition) UsesDefaultCall() bool {
	return t.useDefaultCall
}

// IsAvailable reports whether the owning machine currently sits in t's source
// state. It is recomputed on every call.
func (t *Transition) IsAvailable() bool {
	return t.machine.CurrentState() == t.from
}

// Description is a snapshot of a transition. Calls and Guard hold labels of the
// effective action and the guard, or "" when there is none.
type Description struct {
	Name  string `json:"name"            yaml:"name"`
	From  State  `json:"from"            yaml:"from"`
	To    State  `json:"to"              yaml:"to"`
	Calls string `json:"calls,omitempty" yaml:"calls,omitempty"`
	Guard string `json:"guard,omitempty" yaml:"guard,omitempty"`
	// Err is set, and Calls is "unresolved", when the derived model method
	// exists but cannot be used as an action.
	Err error `json:"-" yaml:"-"`
}

// Describe returns a snapshot of t. Calls reflects the effective action, so a
// transition with no explicit action may still describe a model method.
func (t *Transition) Describe() Description {
	desc := Description{
		Name:  t.name,
		From:  t.from,
		To:    t.to,
		Guard: labelOf(t.guard),
	}

	action, err := t.effectiveAction()
	if err != nil {
		desc.Calls = unresolvedLabel
		desc.Err = err
	} else {
		desc.Calls = labelOf(action)
	}

	return desc
}

const unresolvedLabel = "unresolved"

// effectiveAction resolves what runs when t is applied: the explicit action,
// else (when default calls are enabled) the model method derived from t's name.
func (t *Transition) effectiveAction() (*callable, error) {
	if !t.useDefaultCall || t.action != nil {
		return t.action, nil
	}

	if !t.machine.HasModel() {
		return nil, nil //nolint:nilnil // no model, no default action
	}

	return lookupMethod(t.machine.Model(), t.name)
}

// ApplyOption configures a single transition attempt.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	callback  Callback
	onFailure FailureHandler
}

// WithCallback runs cb after the action and before the new state is committed.
// An error from cb fails the attempt.
func WithCallback(cb Callback) ApplyOption {
	return func(c *applyConfig) {
		c.callback = cb
	}
}

// WithFailureHandler hands a failed attempt to h instead of returning it.
func WithFailureHandler(h FailureHandler) ApplyOption {
	return func(c *applyConfig) {
		c.onFailure = h
	}
}

func newApplyConfig(opts []ApplyOption) applyConfig {
	var cfg applyConfig

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// settle turns a failure into the caller-facing result.
func (c applyConfig) settle(ctx context.Context, failure *TransitionFailedError) (any, error) {
	if failure == nil {
		return nil, nil //nolint:nilnil // success carries no value
	}

	if c.onFailure != nil {
		return c.onFailure(ctx, failure)
	}

	return nil, failure
}

// Result is the outcome of a transition attempt. Failure is nil on success.
type Result struct {
	Transition *Transition
	From       State
	To         State
	Failure    *TransitionFailedError
}

// Succeeded reports whether the attempt committed the new state.
func (r Result) Succeeded() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}

	return r.Failure
}

// Apply runs the transition. On failure the wrapped *TransitionFailedError is
// returned, unless a failure handler was supplied, in which case its results
// are returned instead.
func (t *Transition) Apply(ctx context.Context, opts ...ApplyOption) (any, error) {
	cfg := newApplyConfig(opts)

	return cfg.settle(ctx, t.attempt(ctx, cfg).Failure)
}

// Attempt runs the transition and reports the outcome as a Result. Failure
// handlers are not consulted.
func (t *Transition) Attempt(ctx context.Context, opts ...ApplyOption) Result {
	return t.attempt(ctx, newApplyConfig(opts))
}

func (t *Transition) attempt(ctx context.Context, cfg applyConfig) Result {
	from := t.machine.CurrentState()
	event := newTransitionEvent(t, from)

	ctx, span := startTransitionSpan(ctx, t, from, event)
	defer span.End()

	start := time.Now()
	kind, err := t.run(ctx, cfg.callback, event)
	elapsed := time.Since(start)

	result := Result{
		Transition: t,
		From:       from,
		To:         t.to,
	}

	if err != nil {
		result.Failure = newFailure(t, kind, err)
	}

	endTransitionSpan(span, result)
	recordAttempt(t, result, elapsed)

	if result.Failure != nil {
		t.machine.log().TransitionFailed(ctx, t.machine.Name(), result.Failure, from, elapsed)
	} else {
		t.machine.log().TransitionApplied(ctx, t.machine.Name(), t, from, elapsed)
	}

	return result
}

// run is the transition protocol. The machine's state is written in exactly
// one place, after the action and callback have succeeded and before the
// "after" notification.
func (t *Transition) run(ctx context.Context, callback Callback, event *TransitionEvent) (FailureKind, error) {
	if !t.IsAvailable() {
		return FailureNotAvailable, &TransitionError{
			Name: t.name,
			From: t.machine.CurrentState(),
			Err:  ErrTransitionNotAvailable,
		}
	}

	args := t.machine.ArgumentsForCall()

	if t.guard != nil {
		passed, err := t.guard.test(ctx, args)
		if err != nil {
			return FailureGuard, err
		}

		if !passed {
			return FailureGuard, &TransitionError{
				Name: t.name,
				From: t.from,
				To:   t.to,
				Err:  ErrTransitionGuardFailed,
			}
		}
	}

	t.machine.log().TransitionStarted(ctx, t.machine.Name(), t, event.From)

	if _, err := t.machine.DispatchEvent(ctx, t.machine.EventName(EventBefore), event); err != nil {
		return FailureNotification, err
	}

	action, err := t.effectiveAction()
	if err != nil {
		return FailureAction, err
	}

	if action != nil {
		if _, err := action.call(ctx, args); err != nil {
			return FailureAction, err
		}
	}

	if callback != nil {
		if err := callback(ctx); err != nil {
			return FailureCallback, err
		}
	}

	if err := t.machine.SetCurrentState(t.to); err != nil {
		return FailureCommit, err
	}

	after := event.next()

	if _, err := t.machine.DispatchEvent(ctx, t.machine.EventName(EventAfter), after); err != nil {
		t.machine.log().NotificationFailed(ctx, t.machine.Name(), t.machine.EventName(EventAfter), err)
	}

	return 0, nil
}
