package testing

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// CallCounter is a model that exposes every method through
// statemachine.MethodResolver. Actions count their calls; guards answer with a
// configured value.
type CallCounter struct {
	calls  map[string]int
	guards map[string]bool
	fail   map[string]error
}

// NewCallCounter creates a model whose actions all succeed.
func NewCallCounter() *CallCounter {
	return &CallCounter{
		calls:  make(map[string]int),
		guards: make(map[string]bool),
		fail:   make(map[string]error),
	}
}

// Guard registers name as a guard returning allowed.
func (c *CallCounter) Guard(name string, allowed bool) *CallCounter {
	c.guards[statemachine.MethodName(name)] = allowed

	return c
}

// FailOn makes the action name return err.
func (c *CallCounter) FailOn(name string, err error) *CallCounter {
	c.fail[statemachine.MethodName(name)] = err

	return c
}

// Calls reports how many times the action or guard name ran.
func (c *CallCounter) Calls(name string) int {
	return c.calls[statemachine.MethodName(name)]
}

// ResolveMethod implements statemachine.MethodResolver.
func (c *CallCounter) ResolveMethod(name string) (any, bool) {
	key := statemachine.MethodName(name)
	if key == "" {
		return nil, false
	}

	if allowed, ok := c.guards[key]; ok {
		return statemachine.Guard(func(context.Context, ...any) (bool, error) {
			c.calls[key]++

			return allowed, nil
		}), true
	}

	return statemachine.Action(func(context.Context, ...any) error {
		c.calls[key]++

		return c.fail[key]
	}), true
}

// LoadTestDefinition loads a definition from the testdata directory.
func LoadTestDefinition(name string) (*statemachine.Definition, error) {
	return statemachine.LoadDefinition(filepath.Join("testdata", name))
}

// LoadTestDefinitionFS loads a definition from fsys, e.g. an embed.FS.
func LoadTestDefinitionFS(fsys fs.FS, name string) (*statemachine.Definition, error) {
	return statemachine.LoadDefinitionFromFS(fsys, name)
}

// CreateTestDefinition creates a definition with the given states and no
// transitions. The first state is the initial one.
func CreateTestDefinition(name string, states ...statemachine.State) *statemachine.Definition {
	def := &statemachine.Definition{
		Name:        name,
		States:      states,
		Transitions: []statemachine.TransitionDefinition{},
	}

	if len(states) > 0 {
		def.Initial = states[0]
	}

	return def
}

// CommonTestDefinitions provides frequently used test definitions. Door and
// Order call model methods, so pair them with a CallCounter.
var CommonTestDefinitions = struct {
	Door      func() *statemachine.Definition
	Order     func() *statemachine.Definition
	Turnstile func() *statemachine.Definition
}{
	Door: func() *statemachine.Definition {
		noDefault := false

		return &statemachine.Definition{
			Name:           "door",
			States:         []statemachine.State{"closed", "open", "locked"},
			Initial:        "closed",
			EventNamespace: "door",
			Transitions: []statemachine.TransitionDefinition{
				{Name: "open", From: "closed", To: "open"},
				{Name: "close", From: "open", To: "closed"},
				{Name: "lock", From: "closed", To: "locked", Guard: "can_lock", UseDefaultCall: &noDefault},
				{Name: "unlock", From: "locked", To: "closed", Calls: "open"},
			},
		}
	},
	Order: func() *statemachine.Definition {
		return &statemachine.Definition{
			Name:           "order",
			States:         []statemachine.State{"pending", "paid", "shipped", "cancelled"},
			Initial:        "pending",
			EventNamespace: "order",
			Transitions: []statemachine.TransitionDefinition{
				{Name: "pay", From: "pending", To: "paid"},
				{Name: "ship", From: "paid", To: "shipped"},
				{Name: "cancel", From: "pending", To: "cancelled"},
				{Name: "refund", From: "paid", To: "cancelled"},
			},
		}
	},
	Turnstile: func() *statemachine.Definition {
		noDefault := false

		return &statemachine.Definition{
			Name:           "turnstile",
			States:         []statemachine.State{"locked", "unlocked"},
			UseDefaultCall: &noDefault,
			Transitions: []statemachine.TransitionDefinition{
				{Name: "coin", From: "locked", To: "unlocked"},
				{Name: "push", From: "unlocked", To: "locked"},
			},
		}
	},
}
