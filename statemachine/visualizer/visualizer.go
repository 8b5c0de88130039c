// Package visualizer generates Mermaid state diagrams from state machine
// definitions and live machines.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// Visualizer errors.
var (
	ErrDefinitionNil = errors.New("definition cannot be nil")
	ErrMachineNil    = errors.New("state machine cannot be nil")
	ErrNoStates      = errors.New("nothing to draw without states")
)

// graph is the common shape both definitions and live machines are drawn from.
type graph struct {
	states  []statemachine.State
	initial statemachine.State
	current statemachine.State
	edges   []statemachine.Description
}

// GenerateMermaid converts a Definition to a Mermaid state diagram.
func GenerateMermaid(def *statemachine.Definition) (string, error) {
	return GenerateMermaidWithOptions(def, DefaultOptions())
}

// GenerateMermaidFromFile loads a definition from a file and generates a Mermaid diagram.
func GenerateMermaidFromFile(path string) (string, error) {
	def, err := statemachine.LoadDefinition(path)
	if err != nil {
		return "", fmt.Errorf("failed to load definition: %w", err)
	}

	return GenerateMermaid(def)
}

// GenerateMermaidWithOptions generates a Mermaid diagram of def with custom options.
func GenerateMermaidWithOptions(def *statemachine.Definition, opts Options) (string, error) {
	if def == nil {
		return "", ErrDefinitionNil
	}

	g := graph{
		states:  def.States,
		initial: def.Initial,
	}

	if g.initial == "" && len(def.States) > 0 {
		g.initial = def.States[0]
	}

	for _, t := range def.Transitions {
		g.edges = append(g.edges, statemachine.Description{
			Name:  t.Name,
			From:  t.From,
			To:    t.To,
			Calls: callableLabel(t.Calls),
			Guard: callableLabel(t.Guard),
		})
	}

	return render(g, opts)
}

// GenerateMermaidForMachine draws a live machine. Action labels reflect the
// effective action, so derived model methods show up too.
func GenerateMermaidForMachine(m *statemachine.StateMachine, opts Options) (string, error) {
	if m == nil {
		return "", ErrMachineNil
	}

	states := m.States()

	g := graph{
		states:  states,
		current: m.CurrentState(),
	}

	if len(states) > 0 {
		g.initial = states[0]
	}

	for _, t := range m.Transitions().All() {
		g.edges = append(g.edges, t.Describe())
	}

	return render(g, opts)
}

func render(g graph, opts Options) (string, error) {
	if len(g.states) == 0 {
		return "", ErrNoStates
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")

	if opts.Theme != "" && opts.Theme != "default" {
		fmt.Fprintf(&sb, "%%%%{init: {'theme': '%s'}}%%%%\n", opts.Theme)
	}

	sb.WriteString("stateDiagram-v2\n")

	if opts.Direction != "" {
		fmt.Fprintf(&sb, "    direction %s\n", opts.Direction)
	}

	// States whose names are not valid Mermaid ids get an alias
	for _, state := range g.states {
		if id := stateID(state); id != string(state) {
			fmt.Fprintf(&sb, "    state %q as %s\n", string(state), id)
		}
	}

	fmt.Fprintf(&sb, "    [*] --> %s\n", stateID(g.initial))

	outgoing := make(map[statemachine.State]int)
	for _, e := range g.edges {
		outgoing[e.From]++
	}

	for _, e := range g.edges {
		fmt.Fprintf(&sb, "    %s --> %s: %s\n", stateID(e.From), stateID(e.To), edgeLabel(e, opts))
	}

	highlight := make(map[statemachine.State]bool)
	for _, state := range opts.HighlightPath {
		highlight[state] = true
	}

	for _, state := range g.states {
		if outgoing[state] == 0 {
			fmt.Fprintf(&sb, "    %s --> [*]\n", stateID(state))
		}

		switch {
		case opts.MarkCurrent && g.current != "" && state == g.current:
			fmt.Fprintf(&sb, "    class %s current\n", stateID(state))
		case highlight[state]:
			fmt.Fprintf(&sb, "    class %s highlighted\n", stateID(state))
		case outgoing[state] == 0:
			fmt.Fprintf(&sb, "    class %s terminal\n", stateID(state))
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef terminal fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	sb.WriteString("    classDef current fill:#e1f5ff,stroke:#01579b,stroke-width:3px\n")
	sb.WriteString("```\n")

	return sb.String(), nil
}

func edgeLabel(e statemachine.Description, opts Options) string {
	label := e.Name

	if opts.ShowGuards && e.Guard != "" {
		label += " [" + e.Guard + "]"
	}

	if opts.ShowActions && e.Calls != "" {
		label += " / " + e.Calls
	}

	return label
}

// callableLabel names a configured action or guard: method names as written,
// anything else as "func".
func callableLabel(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return "func"
	}
}

func stateID(state statemachine.State) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, string(state))

	if id == "" {
		return "_"
	}

	return id
}
