package statemachine

import (
	"context"
	"fmt"
)

// Sequence combines actions into one that runs them in order and stops at the
// first failure.
func Sequence(actions ...Action) Action {
	return func(ctx context.Context, args ...any) error {
		for i, action := range actions {
			if err := action(ctx, args...); err != nil {
				return fmt.Errorf("sequence step %d failed: %w", i, err)
			}
		}

		return nil
	}
}

// When runs then if cond passes and otherwise (which may be nil) if it does not.
func When(cond Guard, then, otherwise Action) Action {
	return func(ctx context.Context, args ...any) error {
		passed, err := cond(ctx, args...)
		if err != nil {
			return err
		}

		switch {
		case passed && then != nil:
			return then(ctx, args...)
		case !passed && otherwise != nil:
			return otherwise(ctx, args...)
		default:
			return nil
		}
	}
}

// AllOf passes when every guard passes. Guards run in order and evaluation
// stops at the first rejection or error.
func AllOf(guards ...Guard) Guard {
	return func(ctx context.Context, args ...any) (bool, error) {
		for _, guard := range guards {
			passed, err := guard(ctx, args...)
			if err != nil || !passed {
				return false, err
			}
		}

		return true, nil
	}
}

// AnyOf passes when at least one guard passes.
func AnyOf(guards ...Guard) Guard {
	return func(ctx context.Context, args ...any) (bool, error) {
		for _, guard := range guards {
			passed, err := guard(ctx, args...)
			if err != nil {
				return false, err
			}

			if passed {
				return true, nil
			}
		}

		return false, nil
	}
}

// Not inverts guard. Errors pass through.
func Not(guard Guard) Guard {
	return func(ctx context.Context, args ...any) (bool, error) {
		passed, err := guard(ctx, args...)
		if err != nil {
			return false, err
		}

		return !passed, nil
	}
}
