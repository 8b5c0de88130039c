package statemachine

import "errors"

// ErrNoTransitionBag indicates that a builder has nowhere to register its transition.
var ErrNoTransitionBag = errors.New("builder is not attached to a transition bag")

// TransitionBuilder provides a fluent API for constructing a Transition.
// Configuration errors are latched: the first one wins and is reported by
// Build, Register and Err.
type TransitionBuilder struct {
	machine        Binding
	target         *TransitionBag
	name           string
	from           State
	to             State
	action         *callable
	guard          *callable
	useDefaultCall bool
	err            error
}

func newTransitionBuilder(machine Binding, name string) *TransitionBuilder {
	b := &TransitionBuilder{
		machine:        machine,
		name:           name,
		useDefaultCall: true,
	}

	switch {
	case machine == nil:
		b.err = ErrNoStateMachine
	case name == "":
		b.err = ErrTransitionNotNamed
	}

	return b
}

// Name returns the name the transition will carry.
func (b *TransitionBuilder) Name() string {
	return b.name
}

// From sets the source state, which must be declared on the machine.
func (b *TransitionBuilder) From(state State) *TransitionBuilder {
	if b.err != nil {
		return b
	}

	if !b.machine.HasState(state) {
		b.err = &StateError{State: state, Err: ErrStateNotDefined}

		return b
	}

	b.from = state

	return b
}

// To sets the destination state, which must be declared on the machine.
func (b *TransitionBuilder) To(state State) *TransitionBuilder {
	if b.err != nil {
		return b
	}

	if !b.machine.HasState(state) {
		b.err = &StateError{State: state, Err: ErrStateNotDefined}

		return b
	}

	b.to = state

	return b
}

// Calls sets the action. It accepts an Action, any func (see Guard for the
// accepted shapes), or the name of a method on the attached model.
func (b *TransitionBuilder) Calls(action any) *TransitionBuilder {
	if b.err != nil {
		return b
	}

	c, err := newCallable(action, b.machine)
	if err != nil {
		b.err = err

		return b
	}

	if c != nil {
		b.action = c
	}

	return b
}

// Guard sets the guard. Like Calls, it accepts a Guard, a func, or a model
// method name. A func may take a leading context.Context followed by the call
// arguments and must return a bool, optionally followed by an error.
func (b *TransitionBuilder) Guard(guard any) *TransitionBuilder {
	if b.err != nil {
		return b
	}

	c, err := newCallable(guard, b.machine)
	if err != nil {
		b.err = err

		return b
	}

	if c != nil {
		b.guard = c
	}

	return b
}

// UseDefaultCall controls whether an action is derived from the model and the
// transition name when none is set explicitly.
func (b *TransitionBuilder) UseDefaultCall(use bool) *TransitionBuilder {
	b.useDefaultCall = use

	return b
}

// Err returns the first configuration error, if any.
func (b *TransitionBuilder) Err() error {
	return b.err
}

// Build validates completeness and returns the immutable Transition.
func (b *TransitionBuilder) Build() (*Transition, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.from == "" {
		return nil, &TransitionError{Name: b.name, Err: ErrTransitionFromRequired}
	}

	if b.to == "" {
		return nil, &TransitionError{Name: b.name, From: b.from, Err: ErrTransitionToRequired}
	}

	return &Transition{
		machine:        b.machine,
		name:           b.name,
		from:           b.from,
		to:             b.to,
		action:         b.action,
		guard:          b.guard,
		useDefaultCall: b.useDefaultCall,
	}, nil
}

// Register builds the transition and pushes it into the bag that produced the
// builder.
func (b *TransitionBuilder) Register() (*Transition, error) {
	if b.err == nil && b.target == nil {
		return nil, ErrNoTransitionBag
	}

	t, err := b.Build()
	if err != nil {
		return nil, err
	}

	return b.target.Push(t)
}

// Then registers the current transition and starts the next one, so several
// transitions can be declared in a single chain. A registration failure is
// carried over to the returned builder.
func (b *TransitionBuilder) Then(name string) *TransitionBuilder {
	_, err := b.Register()

	next := newTransitionBuilder(b.machine, name)
	next.target = b.target
	next.useDefaultCall = b.target.defaultCall()

	if err != nil {
		next.err = err
	}

	return next
}
