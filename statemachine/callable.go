package statemachine

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// callable is the uniform shape every action and guard is reduced to.
type callable struct {
	label string
	fn    func(ctx context.Context, args []any) (any, error)
}

func (c *callable) call(ctx context.Context, args []any) (any, error) {
	return c.fn(ctx, args)
}

// test runs c as a guard.
func (c *callable) test(ctx context.Context, args []any) (bool, error) {
	result, err := c.call(ctx, args)
	if err != nil {
		return false, err
	}

	passed, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T from %s", ErrGuardResultNotBool, result, c.label)
	}

	return passed, nil
}

func labelOf(c *callable) string {
	if c == nil {
		return ""
	}

	return c.label
}

// newCallable turns anything Calls or Guard accept into a callable. A string is
// resolved against the model attached to b.
func newCallable(value any, b Binding) (*callable, error) {
	switch fn := value.(type) {
	case nil:
		return nil, nil //nolint:nilnil // no callable configured
	case *callable:
		return fn, nil
	case string:
		if fn == "" {
			return nil, nil //nolint:nilnil // no callable configured
		}

		return resolveMethod(b, fn)
	case Action:
		return actionCallable(fn), nil
	case func(context.Context, ...any) error:
		return actionCallable(fn), nil
	case Guard:
		return guardCallable(fn), nil
	case func(context.Context, ...any) (bool, error):
		return guardCallable(fn), nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%w: %T", ErrInvalidCallable, value)
	}

	return adaptFunc(rv, "func")
}

func actionCallable(fn func(context.Context, ...any) error) *callable {
	return &callable{
		label: "func",
		fn: func(ctx context.Context, args []any) (any, error) {
			return nil, fn(ctx, args...)
		},
	}
}

func guardCallable(fn func(context.Context, ...any) (bool, error)) *callable {
	return &callable{
		label: "func",
		fn: func(ctx context.Context, args []any) (any, error) {
			return fn(ctx, args...)
		},
	}
}

// resolveMethod binds a method name to the model attached to b.
func resolveMethod(b Binding, name string) (*callable, error) {
	method := MethodName(name)

	if b == nil || !b.HasModel() {
		return nil, &MethodError{Method: method, Err: ErrNoModelAvailableForMethod}
	}

	found, err := lookupMethod(b.Model(), name)
	if err != nil {
		return nil, err
	}

	if found == nil {
		return nil, &MethodError{Method: method, Err: ErrMethodNotFound}
	}

	return found, nil
}

// lookupMethod finds the model method for name. It returns nil without an
// error when the model has no such method.
func lookupMethod(model any, name string) (*callable, error) {
	method := MethodName(name)
	label := fmt.Sprintf("%T.%s", model, method)

	if resolver, ok := model.(MethodResolver); ok {
		for _, key := range []string{name, method} {
			fn, found := resolver.ResolveMethod(key)
			if !found {
				continue
			}

			if _, isName := fn.(string); isName {
				return nil, &MethodError{Method: method, Err: ErrInvalidCallable}
			}

			c, err := newCallable(fn, nil)
			if err != nil {
				return nil, &MethodError{Method: method, Err: err}
			}

			if c == nil {
				return nil, &MethodError{Method: method, Err: ErrInvalidCallable}
			}

			return &callable{label: label, fn: c.fn}, nil
		}
	}

	if method == "" {
		return nil, nil //nolint:nilnil // nothing to look up
	}

	rv := reflect.ValueOf(model).MethodByName(method)
	if !rv.IsValid() {
		return nil, nil //nolint:nilnil // the model does not expose the method
	}

	c, err := adaptFunc(rv, label)
	if err != nil {
		return nil, &MethodError{Method: method, Err: err}
	}

	return c, nil
}

// adaptFunc wraps an arbitrary func value. A leading context.Context parameter
// receives the call's context; the remaining parameters are filled from the
// call arguments in order, extras being ignored. Results may be empty, a single
// value, a single error, or a value followed by an error.
func adaptFunc(fn reflect.Value, label string) (*callable, error) {
	ft := fn.Type()

	switch {
	case ft.NumOut() > 2:
		return nil, fmt.Errorf("%w: %s returns %d values", ErrInvalidCallable, label, ft.NumOut())
	case ft.NumOut() == 2 && ft.Out(1) != errorType:
		return nil, fmt.Errorf("%w: %s must return an error last", ErrInvalidCallable, label)
	}

	takesCtx := ft.NumIn() > 0 && ft.In(0) == contextType

	return &callable{
		label: label,
		fn: func(ctx context.Context, args []any) (any, error) {
			in, err := callArguments(ctx, ft, takesCtx, args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", label, err)
			}

			return splitResults(ft, fn.Call(in))
		},
	}, nil
}

func callArguments(ctx context.Context, ft reflect.Type, takesCtx bool, args []any) ([]reflect.Value, error) {
	offset := 0
	in := make([]reflect.Value, 0, ft.NumIn())

	if takesCtx {
		in = append(in, reflect.ValueOf(&ctx).Elem())
		offset = 1
	}

	params := ft.NumIn() - offset
	fixed := params

	if ft.IsVariadic() {
		fixed = params - 1
	}

	if len(args) < fixed {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrCallArguments, fixed, len(args))
	}

	for i := range fixed {
		v, err := argumentValue(args[i], ft.In(offset+i))
		if err != nil {
			return nil, err
		}

		in = append(in, v)
	}

	if ft.IsVariadic() {
		elem := ft.In(ft.NumIn() - 1).Elem()

		for _, arg := range args[fixed:] {
			v, err := argumentValue(arg, elem)
			if err != nil {
				return nil, err
			}

			in = append(in, v)
		}
	}

	return in, nil
}

func argumentValue(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch want.Kind() { //nolint:exhaustive // only nillable kinds accept nil
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		default:
			return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrCallArguments, want)
		}
	}

	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(want) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrCallArguments, v.Type(), want)
	}

	return v, nil
}

func splitResults(ft reflect.Type, out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil //nolint:nilnil // nothing returned
	case 1:
		if ft.Out(0) == errorType {
			return nil, asError(out[0])
		}

		return out[0].Interface(), nil
	default:
		return out[0].Interface(), asError(out[1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}

	err, _ := v.Interface().(error)

	return err
}
