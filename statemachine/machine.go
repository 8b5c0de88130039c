package statemachine

import (
	"context"
	"reflect"
	"slices"
)

const (
	// DefaultEventNamespace prefixes the names of dispatched events.
	DefaultEventNamespace = "state_machine"

	defaultMachineName = "state_machine"
)

// Option configures a StateMachine during construction.
type Option func(*StateMachine)

// WithName names the machine in logs, metrics, spans and events.
func WithName(name string) Option {
	return func(m *StateMachine) {
		if name != "" {
			m.name = name
		}
	}
}

// WithModel attaches the host object whose methods may serve as actions and guards.
func WithModel(model any) Option {
	return func(m *StateMachine) {
		m.model = model
	}
}

// WithNotificationSink sets the receiver of before/after events.
func WithNotificationSink(sink NotificationSink) Option {
	return func(m *StateMachine) {
		m.sink = sink
	}
}

// WithLogger sets the logger for transition attempts. Without one nothing is logged.
func WithLogger(logger Logger) Option {
	return func(m *StateMachine) {
		m.logger = logger
	}
}

// WithEventNamespace changes the prefix of dispatched event names.
func WithEventNamespace(namespace string) Option {
	return func(m *StateMachine) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithTransitionBag uses bag, and its factory, instead of a default one.
func WithTransitionBag(bag *TransitionBag) Option {
	return func(m *StateMachine) {
		m.transitions = bag
	}
}

// WithArgumentsProvider overrides the arguments handed to actions and guards.
func WithArgumentsProvider(provider func(m *StateMachine) []any) Option {
	return func(m *StateMachine) {
		m.argumentsProvider = provider
	}
}

// StateMachine owns a set of declared states, the current state and the
// transitions between states. It is not safe for concurrent use.
type StateMachine struct {
	name              string
	namespace         string
	states            []State
	currentState      State
	transitions       *TransitionBag
	model             any
	sink              NotificationSink
	logger            Logger
	argumentsProvider func(m *StateMachine) []any
}

// New creates a machine with the given states. The first state is the default
// and becomes the current state.
func New(states []State, opts ...Option) *StateMachine {
	m := &StateMachine{
		name:      defaultMachineName,
		namespace: DefaultEventNamespace,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.SetTransitionBag(m.transitions)
	m.SetStates(states...)

	return m
}

// Name returns the machine name.
func (m *StateMachine) Name() string {
	return m.name
}

// SetStates replaces the declared states and resets the current state to the
// first of them, or to no state when none are given. Existing transitions are
// not checked against the new states.
func (m *StateMachine) SetStates(states ...State) *StateMachine {
	m.states = slices.Clone(states)
	m.Reset()

	return m
}

// States returns a copy of the declared states.
func (m *StateMachine) States() []State {
	return slices.Clone(m.states)
}

// HasState reports whether state is declared.
func (m *StateMachine) HasState(state State) bool {
	return slices.Contains(m.states, state)
}

// SetCurrentState moves the machine to state without running any transition.
func (m *StateMachine) SetCurrentState(state State) error {
	if !m.HasState(state) {
		return &StateError{State: state, Err: ErrStateNotDefined}
	}

	m.currentState = state

	return nil
}

// Reset sets the current state back to the default (first) state.
func (m *StateMachine) Reset() {
	if len(m.states) == 0 {
		m.currentState = ""

		return
	}

	m.currentState = m.states[0]
}

// CurrentState returns the current state, or "" when no states are declared.
func (m *StateMachine) CurrentState() State {
	return m.currentState
}

// SetModel attaches a model. The machine never creates or disposes of it.
func (m *StateMachine) SetModel(model any) *StateMachine {
	m.model = model

	return m
}

// Model returns the attached model, or nil.
func (m *StateMachine) Model() any {
	return m.model
}

// HasModel reports whether a model is attached. A nil pointer, map, slice,
// func, chan or interface counts as no model.
func (m *StateMachine) HasModel() bool {
	if m.model == nil {
		return false
	}

	switch rv := reflect.ValueOf(m.model); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// SetTransitionBag replaces the transition registry. A nil bag is replaced by
// an empty one. The bag's factory is rebound to this machine.
func (m *StateMachine) SetTransitionBag(bag *TransitionBag) *StateMachine {
	if bag == nil {
		bag = NewTransitionBag(nil)
	}

	m.transitions = bag.SetStateMachine(m)

	return m
}

// Transitions returns the transition registry.
func (m *StateMachine) Transitions() *TransitionBag {
	return m.transitions
}

// AddTransition starts a fluent transition definition. Call Register on the
// returned builder to add it to the machine.
func (m *StateMachine) AddTransition(name string) *TransitionBuilder {
	return m.transitions.Factory().Fluent(name)
}

// DeclareTransition builds and registers a transition in one call. It accepts
// the same arguments as TransitionFactory.Make.
func (m *StateMachine) DeclareTransition(name any, args ...any) (*Transition, error) {
	return m.transitions.Push(name, args...)
}

// Can reports whether a transition called name is available from the current state.
func (m *StateMachine) Can(name string) bool {
	_, ok := m.transitions.FindAvailableByName(name)

	return ok
}

// CanTransitionTo reports whether a transition leads from the current state to state.
func (m *StateMachine) CanTransitionTo(state State) bool {
	_, ok := m.transitions.FindByRoute(m.currentState, state)

	return ok
}

// Transition applies the first transition called name that is available from
// the current state.
func (m *StateMachine) Transition(ctx context.Context, name string, opts ...ApplyOption) (any, error) {
	t, ok := m.transitions.FindAvailableByName(name)
	if !ok {
		return nil, m.notFound(ctx, &TransitionError{
			Name: name,
			From: m.currentState,
			Err:  ErrTransitionNotFound,
		})
	}

	return t.Apply(ctx, opts...)
}

// Apply applies t, which should belong to this machine.
func (m *StateMachine) Apply(ctx context.Context, t *Transition, opts ...ApplyOption) (any, error) {
	if t == nil {
		return nil, m.notFound(ctx, &TransitionError{From: m.currentState, Err: ErrTransitionNotFound})
	}

	return t.Apply(ctx, opts...)
}

// TransitionTo applies the transition leading from the current state to state,
// whatever its name.
func (m *StateMachine) TransitionTo(ctx context.Context, state State, opts ...ApplyOption) (any, error) {
	t, ok := m.transitions.FindByRoute(m.currentState, state)
	if !ok {
		return nil, m.notFound(ctx, &TransitionError{
			From: m.currentState,
			To:   state,
			Err:  ErrTransitionNotFound,
		})
	}

	return t.Apply(ctx, opts...)
}

// notFound wraps a resolution failure. Failure handlers are not consulted.
func (m *StateMachine) notFound(ctx context.Context, cause error) *TransitionFailedError {
	failure := newFailure(nil, FailureNotFound, cause)

	recordNotFound(m.name)
	m.log().TransitionFailed(ctx, m.name, failure, m.currentState, 0)

	return failure
}

// ArgumentsForCall returns the arguments every action and guard receives: the
// attached model, or nothing when there is none.
func (m *StateMachine) ArgumentsForCall() []any {
	if m.argumentsProvider != nil {
		return m.argumentsProvider(m)
	}

	if !m.HasModel() {
		return nil
	}

	return []any{m.model}
}

// SetNotificationSink sets, or with nil clears, the receiver of events.
func (m *StateMachine) SetNotificationSink(sink NotificationSink) *StateMachine {
	m.sink = sink

	return m
}

// NotificationSink returns the configured sink, or nil.
func (m *StateMachine) NotificationSink() NotificationSink {
	return m.sink
}

// DispatchEvent hands event to the sink and returns whatever the sink returns.
// Without a sink it does nothing.
func (m *StateMachine) DispatchEvent(ctx context.Context, name string, event *TransitionEvent) (any, error) {
	if m.sink == nil {
		return nil, nil //nolint:nilnil // no sink, nothing dispatched
	}

	return m.sink.Dispatch(ctx, name, event)
}

// EventName returns the namespaced event name for suffix, e.g. "state_machine.before".
func (m *StateMachine) EventName(suffix string) string {
	return m.namespace + "." + suffix
}

// SetLogger sets, or with nil clears, the logger.
func (m *StateMachine) SetLogger(logger Logger) *StateMachine {
	m.logger = logger

	return m
}

// Tap calls fn with m and returns m.
func (m *StateMachine) Tap(fn func(m *StateMachine)) *StateMachine {
	fn(m)

	return m
}

func (m *StateMachine) log() Logger {
	if m.logger == nil {
		return nopLogger{}
	}

	return m.logger
}
