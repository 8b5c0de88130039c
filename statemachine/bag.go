package statemachine

import "iter"

// TransitionBag is the ordered registry of a machine's transitions. Insertion
// order is kept for iteration; lookups are by predicate. No two transitions in
// a bag share the same (from, to) route, while names may repeat.
type TransitionBag struct {
	transitions []*Transition
	factory     *TransitionFactory
}

// NewTransitionBag creates a bag. A nil factory is replaced with a default one.
func NewTransitionBag(factory *TransitionFactory) *TransitionBag {
	bag := &TransitionBag{}
	bag.SetTransitionFactory(factory)

	return bag
}

// SetTransitionFactory replaces the factory used to build pushed transitions.
func (bag *TransitionBag) SetTransitionFactory(factory *TransitionFactory) *TransitionBag {
	if factory == nil {
		factory = NewTransitionFactory()
	}

	if bag.factory != nil && factory.machine == nil {
		factory.machine = bag.factory.machine
	}

	factory.bag = bag
	bag.factory = factory

	return bag
}

// Factory returns the factory bound to the bag.
func (bag *TransitionBag) Factory() *TransitionFactory {
	return bag.factory
}

// SetStateMachine binds the bag's factory to machine.
func (bag *TransitionBag) SetStateMachine(machine Binding) *TransitionBag {
	bag.factory.SetStateMachine(machine)

	return bag
}

func (bag *TransitionBag) defaultCall() bool {
	if bag == nil || bag.factory == nil {
		return true
	}

	return bag.factory.useDefaultCall
}

// Push adds a transition. item may be a *Transition, a *TransitionBuilder, or
// the arguments accepted by TransitionFactory.Make. A transition whose route is
// already registered is rejected with ErrDuplicateTransitionRoute.
func (bag *TransitionBag) Push(item any, args ...any) (*Transition, error) {
	var t *Transition

	switch v := item.(type) {
	case *Transition:
		t = v
	case *TransitionBuilder:
		built, err := v.Build()
		if err != nil {
			return nil, err
		}

		t = built
	default:
		b, err := bag.factory.Make(item, args...)
		if err != nil {
			return nil, err
		}

		built, err := b.Build()
		if err != nil {
			return nil, err
		}

		t = built
	}

	if _, dup := bag.FindByRoute(t.from, t.to); dup {
		return nil, &TransitionError{Name: t.name, From: t.from, To: t.to, Err: ErrDuplicateTransitionRoute}
	}

	bag.transitions = append(bag.transitions, t)

	return t, nil
}

// PushMany pushes each item in order and stops at the first error.
func (bag *TransitionBag) PushMany(items ...any) error {
	for _, item := range items {
		if _, err := bag.Push(item); err != nil {
			return err
		}
	}

	return nil
}

// Last returns the most recently pushed transition, or nil.
func (bag *TransitionBag) Last() *Transition {
	if len(bag.transitions) == 0 {
		return nil
	}

	return bag.transitions[len(bag.transitions)-1]
}

// FindByName returns the first transition called name.
func (bag *TransitionBag) FindByName(name string) (*Transition, bool) {
	return bag.find(func(t *Transition) bool {
		return t.name == name
	})
}

// FindAvailableByName returns the first transition called name that is
// available from the machine's current state.
func (bag *TransitionBag) FindAvailableByName(name string) (*Transition, bool) {
	return bag.find(func(t *Transition) bool {
		return t.name == name && t.IsAvailable()
	})
}

// FindByRoute returns the transition going from -> to.
func (bag *TransitionBag) FindByRoute(from, to State) (*Transition, bool) {
	return bag.find(func(t *Transition) bool {
		return t.from == from && t.to == to
	})
}

// Count returns the number of transitions.
func (bag *TransitionBag) Count() int {
	return len(bag.transitions)
}

// All iterates the transitions in registration order.
func (bag *TransitionBag) All() iter.Seq2[int, *Transition] {
	return func(yield func(int, *Transition) bool) {
		for i, t := range bag.transitions {
			if !yield(i, t) {
				return
			}
		}
	}
}

func (bag *TransitionBag) find(match func(*Transition) bool) (*Transition, bool) {
	for _, t := range bag.transitions {
		if match(t) {
			return t, true
		}
	}

	return nil, false
}
