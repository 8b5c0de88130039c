package statemachine

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const maxPositionalArgs = 4 // from, to, calls, guard

// TransitionDefinition is the declarative form of a transition. Calls and Guard
// accept anything TransitionBuilder.Calls and TransitionBuilder.Guard accept;
// definitions loaded from YAML carry method names.
type TransitionDefinition struct {
	Name           string `json:"name"                     mapstructure:"name"           yaml:"name"`
	From           State  `json:"from"                     mapstructure:"from"           yaml:"from"`
	To             State  `json:"to"                       mapstructure:"to"             yaml:"to"`
	Calls          any    `json:"calls,omitempty"          mapstructure:"calls"          yaml:"calls,omitempty"`
	Guard          any    `json:"guard,omitempty"          mapstructure:"guard"          yaml:"guard,omitempty"`
	UseDefaultCall *bool  `json:"useDefaultCall,omitempty" mapstructure:"useDefaultCall" yaml:"useDefaultCall,omitempty"`
}

// TransitionFactory builds transitions for one state machine.
type TransitionFactory struct {
	machine        Binding
	bag            *TransitionBag
	useDefaultCall bool
}

// NewTransitionFactory creates an unbound factory. It must be bound to a state
// machine, usually through a TransitionBag, before it can build transitions.
func NewTransitionFactory() *TransitionFactory {
	return &TransitionFactory{
		useDefaultCall: true,
	}
}

// UseDefaultCall sets the default-action policy applied to every transition the
// factory produces from now on.
func (f *TransitionFactory) UseDefaultCall(use bool) *TransitionFactory {
	f.useDefaultCall = use

	return f
}

// SetStateMachine binds the factory to a machine.
func (f *TransitionFactory) SetStateMachine(machine Binding) *TransitionFactory {
	f.machine = machine

	return f
}

// StateMachine returns the bound machine, or nil.
func (f *TransitionFactory) StateMachine() Binding {
	return f.machine
}

// Fluent starts an unconfigured transition, ready for From, To and Calls.
func (f *TransitionFactory) Fluent(name string) *TransitionBuilder {
	b := newTransitionBuilder(f.machine, name)
	b.target = f.bag
	b.useDefaultCall = f.useDefaultCall

	return b
}

// Declare starts a transition configured from def.
func (f *TransitionFactory) Declare(def TransitionDefinition) *TransitionBuilder {
	b := f.Fluent(def.Name).
		From(def.From).
		To(def.To).
		Calls(def.Calls).
		Guard(def.Guard)

	if def.UseDefaultCall != nil {
		b.UseDefaultCall(*def.UseDefaultCall)
	}

	return b
}

// Make builds a transition from arguments of varying shape:
//
//	Make("open")                                  // fluent, configure the returned builder
//	Make("open", "closed", "open")                // declarative: name, from, to
//	Make("open", "closed", "open", action, guard) // declarative with action and guard
//	Make(TransitionDefinition{...})               // declarative record
//	Make(map[string]any{"name": "open", ...})     // keyed declarative record
func (f *TransitionFactory) Make(name any, args ...any) (*TransitionBuilder, error) {
	if f.machine == nil {
		return nil, ErrNoStateMachine
	}

	switch v := name.(type) {
	case string:
		if len(args) == 0 {
			return f.Fluent(v), nil
		}

		def, err := positionalDefinition(v, args)
		if err != nil {
			return nil, err
		}

		return f.Declare(def), nil
	case State:
		return f.Make(string(v), args...)
	case TransitionDefinition:
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: unexpected arguments after a definition", ErrInvalidDefinition)
		}

		return f.Declare(v), nil
	case *TransitionDefinition:
		if v == nil {
			return nil, fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
		}

		return f.Make(*v, args...)
	case map[string]any:
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: unexpected arguments after a definition", ErrInvalidDefinition)
		}

		def, err := decodeDefinition(v)
		if err != nil {
			return nil, err
		}

		return f.Declare(def), nil
	default:
		return nil, fmt.Errorf("%w: unsupported %T", ErrInvalidDefinition, name)
	}
}

func positionalDefinition(name string, args []any) (TransitionDefinition, error) {
	if len(args) > maxPositionalArgs {
		return TransitionDefinition{}, fmt.Errorf("%w: too many arguments (%d)", ErrInvalidDefinition, len(args))
	}

	padded := make([]any, maxPositionalArgs)
	copy(padded, args)

	from, err := asState(padded[0])
	if err != nil {
		return TransitionDefinition{}, err
	}

	to, err := asState(padded[1])
	if err != nil {
		return TransitionDefinition{}, err
	}

	return TransitionDefinition{
		Name:  name,
		From:  from,
		To:    to,
		Calls: padded[2],
		Guard: padded[3],
	}, nil
}

func asState(v any) (State, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case State:
		return s, nil
	case string:
		return State(s), nil
	default:
		return "", fmt.Errorf("%w: %T is not a state", ErrInvalidDefinition, v)
	}
}

func decodeDefinition(record map[string]any) (TransitionDefinition, error) {
	var def TransitionDefinition

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &def,
	})
	if err != nil {
		return TransitionDefinition{}, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	if err := decoder.Decode(record); err != nil {
		return TransitionDefinition{}, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	return def, nil
}
