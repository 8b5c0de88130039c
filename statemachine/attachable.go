package statemachine

import (
	"errors"
	"fmt"
)

// ErrNoDefiner indicates that Attach was called without anything to define the machine.
var ErrNoDefiner = errors.New("no definer given")

// Definer declares the states and transitions of a machine attached to a model.
type Definer interface {
	Define(m *StateMachine) error
}

// DefinerFunc adapts a function to a Definer.
type DefinerFunc func(m *StateMachine) error

func (f DefinerFunc) Define(m *StateMachine) error {
	return f(m)
}

// Attach builds a machine around model and lets definer declare it. The model
// is attached before Define runs, so method names resolve against it.
func Attach(model any, definer Definer, opts ...Option) (*StateMachine, error) {
	if definer == nil {
		return nil, ErrNoDefiner
	}

	m := New(nil, append([]Option{WithModel(model)}, opts...)...)

	if err := definer.Define(m); err != nil {
		return nil, fmt.Errorf("failed to define state machine %q: %w", m.Name(), err)
	}

	return m, nil
}

// AttachSelf attaches a machine to a model that defines its own states and transitions.
func AttachSelf(model Definer, opts ...Option) (*StateMachine, error) {
	return Attach(model, model, opts...)
}
