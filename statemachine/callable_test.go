package statemachine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

// registry is a model that names its actions explicitly.
type registry struct {
	calls []string
}

func (r *registry) ResolveMethod(name string) (any, bool) {
	switch name {
	case "Ship":
		return func(context.Context, ...any) error {
			r.calls = append(r.calls, "ship")

			return nil
		}, true
	case "alias":
		return "Ship", true
	case "broken":
		return 42, true
	default:
		return nil, false
	}
}

func (r *registry) Deliver() {
	r.calls = append(r.calls, "deliver")
}

func TestNewCallableShapes(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	d := &door{}

	tests := []struct {
		name     string
		fn       any
		args     []any
		expected any
	}{
		{"action", Action(func(context.Context, ...any) error { return nil }), nil, nil},
		{"guard", Guard(func(context.Context, ...any) (bool, error) { return true, nil }), nil, true},
		{"no arguments", func() int { return 7 }, []any{d}, 7},
		{"context only", func(ctx context.Context) string { return ctx.Value(ctxKey{}).(string) }, nil, "value"},
		{"model argument", func(m *door) *door { return m }, []any{d}, d},
		{"interface argument", func(ctx context.Context, m any) any { return m }, []any{d}, d},
		{"nil pointer argument", func(m *door) bool { return m == nil }, []any{nil}, true},
		{"variadic", func(all ...any) int { return len(all) }, []any{1, 2, 3}, 3},
		{"fixed and variadic", func(first int, rest ...int) int { return first + len(rest) }, []any{10, 1, 1}, 12},
		{"value and error", func() (string, error) { return "ok", nil }, nil, "ok"},
		{"extra arguments ignored", func(m *door) {}, []any{d, "extra"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := newCallable(tt.fn, nil)
			require.NoError(t, err)
			require.NotNil(t, c)

			result, err := c.call(ctx, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNewCallableEmpty(t *testing.T) {
	t.Parallel()

	for _, v := range []any{nil, ""} {
		c, err := newCallable(v, nil)
		require.NoError(t, err)
		assert.Nil(t, c)
	}
}

func TestNewCallableInvalid(t *testing.T) {
	t.Parallel()

	var nilFunc func()

	tests := []struct {
		name string
		fn   any
	}{
		{"int", 42},
		{"nil func", nilFunc},
		{"too many results", func() (int, int, error) { return 0, 0, nil }},
		{"error not last", func() (error, int) { return nil, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newCallable(tt.fn, nil)
			require.ErrorIs(t, err, ErrInvalidCallable)
		})
	}
}

func TestCallableArgumentMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   any
		args []any
	}{
		{"too few", func(a, b int) {}, []any{1}},
		{"wrong type", func(m *door) {}, []any{"door"}},
		{"nil for value", func(n int) {}, []any{nil}},
		{"wrong variadic type", func(n ...int) {}, []any{"one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := newCallable(tt.fn, nil)
			require.NoError(t, err)

			_, err = c.call(context.Background(), tt.args)
			require.ErrorIs(t, err, ErrCallArguments)
		})
	}
}

func TestCallableErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	c, err := newCallable(func() error { return boom }, nil)
	require.NoError(t, err)

	_, err = c.call(context.Background(), nil)
	require.ErrorIs(t, err, boom)

	c, err = newCallable(func() (bool, error) { return false, nil }, nil)
	require.NoError(t, err)

	passed, err := c.test(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, passed)

	c, err = newCallable(func() {}, nil)
	require.NoError(t, err)

	_, err = c.test(context.Background(), nil)
	require.ErrorIs(t, err, ErrGuardResultNotBool)
}

func TestResolveMethod(t *testing.T) {
	t.Parallel()

	t.Run("reflection", func(t *testing.T) {
		t.Parallel()

		d := &door{}
		m := New(nil, WithModel(d))

		c, err := resolveMethod(m, "open")
		require.NoError(t, err)
		assert.Equal(t, "*statemachine.door.Open", c.label)

		_, err = c.call(context.Background(), m.ArgumentsForCall())
		require.NoError(t, err)
		assert.Equal(t, 1, d.opened)
	})

	t.Run("missing method", func(t *testing.T) {
		t.Parallel()

		_, err := resolveMethod(New(nil, WithModel(&door{})), "fly")
		require.ErrorIs(t, err, ErrMethodNotFound)

		var methodErr *MethodError
		require.ErrorAs(t, err, &methodErr)
		assert.Equal(t, "Fly", methodErr.Method)
	})

	t.Run("no model", func(t *testing.T) {
		t.Parallel()

		_, err := resolveMethod(New(nil), "open")
		require.ErrorIs(t, err, ErrNoModelAvailableForMethod)

		_, err = resolveMethod(nil, "open")
		require.ErrorIs(t, err, ErrNoModelAvailableForMethod)
	})

	t.Run("resolver", func(t *testing.T) {
		t.Parallel()

		r := &registry{}
		m := New(nil, WithModel(r))

		c, err := resolveMethod(m, "ship")
		require.NoError(t, err)
		assert.Equal(t, "*statemachine.registry.Ship", c.label)

		_, err = c.call(context.Background(), nil)
		require.NoError(t, err)

		c, err = resolveMethod(m, "deliver")
		require.NoError(t, err)

		_, err = c.call(context.Background(), nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"ship", "deliver"}, r.calls)
	})

	t.Run("resolver returns a name", func(t *testing.T) {
		t.Parallel()

		_, err := resolveMethod(New(nil, WithModel(&registry{})), "alias")
		require.ErrorIs(t, err, ErrInvalidCallable)
	})

	t.Run("resolver returns garbage", func(t *testing.T) {
		t.Parallel()

		_, err := resolveMethod(New(nil, WithModel(&registry{})), "broken")
		require.ErrorIs(t, err, ErrInvalidCallable)
	})
}

func TestDerivedDefaultFromResolver(t *testing.T) {
	t.Parallel()

	r := &registry{}
	m := New([]State{"packed", "shipped"}, WithModel(r))

	_, err := m.DeclareTransition("ship", State("packed"), State("shipped"))
	require.NoError(t, err)

	_, err = m.Transition(context.Background(), "ship")
	require.NoError(t, err)

	assert.Equal(t, []string{"ship"}, r.calls)
}
