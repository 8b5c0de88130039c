package validator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/amp-fsm/statemachine"
)

var (
	// ErrTransitionExists is returned when attempting to add a transition whose route is taken.
	ErrTransitionExists = errors.New("transition already exists")
	// ErrStateNotFound is returned when attempting to change a state that doesn't exist.
	ErrStateNotFound = errors.New("state not found")
	// ErrDuplicateNotFound is returned when attempting to remove a duplicate that doesn't exist.
	ErrDuplicateNotFound = errors.New("duplicate not found")
	// ErrStateAlreadyExists is returned when attempting to declare or rename to an existing state name.
	ErrStateAlreadyExists = errors.New("state already exists")
)

// Fix represents an automatic fix for a validation issue.
type Fix struct {
	Description string
	Apply       func(def *statemachine.Definition) error
}

// AddMissingTransition creates a fix that adds a transition between states.
func AddMissingTransition(name string, from, to statemachine.State) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Add transition '%s' from '%s' to '%s'", name, from, to),
		Apply: func(def *statemachine.Definition) error {
			for _, t := range def.Transitions {
				if t.From == from && t.To == to {
					return fmt.Errorf("%w: '%s' -> '%s'", ErrTransitionExists, from, to)
				}
			}

			def.Transitions = append(def.Transitions, statemachine.TransitionDefinition{
				Name: name,
				From: from,
				To:   to,
			})

			return nil
		},
	}
}

// DeclareState creates a fix that appends a state to the declared states.
func DeclareState(state statemachine.State) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Declare state '%s'", state),
		Apply: func(def *statemachine.Definition) error {
			if slices.Contains(def.States, state) {
				return fmt.Errorf("%w: '%s'", ErrStateAlreadyExists, state)
			}

			def.States = append(def.States, state)

			return nil
		},
	}
}

// RemoveUnreachableState creates a fix that removes a state and every transition touching it.
func RemoveUnreachableState(state statemachine.State) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove unreachable state '%s'", state),
		Apply: func(def *statemachine.Definition) error {
			if !slices.Contains(def.States, state) {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, state)
			}

			def.States = slices.DeleteFunc(def.States, func(s statemachine.State) bool {
				return s == state
			})

			def.Transitions = slices.DeleteFunc(def.Transitions, func(t statemachine.TransitionDefinition) bool {
				return t.From == state || t.To == state
			})

			return nil
		},
	}
}

// RenameState creates a fix that renames a state everywhere it is used.
func RenameState(oldName, newName statemachine.State) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Rename state from '%s' to '%s'", oldName, newName),
		Apply: func(def *statemachine.Definition) error {
			if slices.Contains(def.States, newName) {
				return fmt.Errorf("%w: '%s'", ErrStateAlreadyExists, newName)
			}

			index := slices.Index(def.States, oldName)
			if index < 0 {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, oldName)
			}

			def.States[index] = newName

			if def.Initial == oldName {
				def.Initial = newName
			}

			for i, t := range def.Transitions {
				if t.From == oldName {
					def.Transitions[i].From = newName
				}

				if t.To == oldName {
					def.Transitions[i].To = newName
				}
			}

			return nil
		},
	}
}

// RemoveDuplicateTransition creates a fix that keeps only the first transition on a route.
func RemoveDuplicateTransition(from, to statemachine.State) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove duplicate transition from '%s' to '%s'", from, to),
		Apply: func(def *statemachine.Definition) error {
			kept := make([]statemachine.TransitionDefinition, 0, len(def.Transitions))
			found := false
			firstOccurrence := true

			for _, t := range def.Transitions {
				if t.From != from || t.To != to {
					kept = append(kept, t)

					continue
				}

				if firstOccurrence {
					kept = append(kept, t)
					firstOccurrence = false
				} else {
					found = true
				}
			}

			if !found {
				return ErrDuplicateNotFound
			}

			def.Transitions = kept

			return nil
		},
	}
}

// ApplyFixes applies a list of fixes to a definition in order. A fix whose
// target an earlier fix already removed is skipped.
func ApplyFixes(def *statemachine.Definition, fixes []*Fix) error {
	for _, fix := range fixes {
		if fix == nil || fix.Apply == nil {
			continue
		}

		err := fix.Apply(def)
		if errors.Is(err, ErrStateNotFound) || errors.Is(err, ErrDuplicateNotFound) {
			continue
		}

		if err != nil {
			return fmt.Errorf("failed to apply fix '%s': %w", fix.Description, err)
		}
	}

	return nil
}
