package statemachine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition errors.
var (
	ErrDefinitionNameRequired = errors.New("definition name is required")
	ErrStatesRequired         = errors.New("at least one state is required")
	ErrStateNameRequired      = errors.New("state name is required")
	ErrDuplicateStateName     = errors.New("duplicate state name")
	ErrEmptyDefinition        = errors.New("definition document is empty")
	ErrNoDefinitionLoader     = errors.New("no definition loader registered")
)

// DefinitionLoader loads definitions by name. Applications can implement this
// to serve embedded definitions.
type DefinitionLoader interface {
	LoadByName(name string) ([]byte, error)
	ListAvailable() []string
}

// defaultDefinitionLoader is used by LoadDefinition for bare names.
var defaultDefinitionLoader DefinitionLoader

// SetDefinitionLoader sets the loader used by LoadDefinition for bare names.
func SetDefinitionLoader(loader DefinitionLoader) {
	defaultDefinitionLoader = loader
}

// Definition is the declarative form of a whole machine. The first state is the
// default state; Initial, when set, is where a freshly configured machine starts.
type Definition struct {
	Name           string                 `json:"name"                     yaml:"name"`
	States         []State                `json:"states"                   yaml:"states"`
	Initial        State                  `json:"initial,omitempty"        yaml:"initial,omitempty"`
	UseDefaultCall *bool                  `json:"useDefaultCall,omitempty" yaml:"useDefaultCall,omitempty"`
	EventNamespace string                 `json:"eventNamespace,omitempty" yaml:"eventNamespace,omitempty"`
	Transitions    []TransitionDefinition `json:"transitions"              yaml:"transitions"`
}

// LoadDefinition loads a definition by path or name.
//   - Path mode: anything containing a path separator or ending in .yaml/.yml
//     is read from the filesystem, e.g. LoadDefinition("testdata/door.yaml").
//   - Name mode: a bare name is looked up through the registered
//     DefinitionLoader, e.g. LoadDefinition("door").
func LoadDefinition(pathOrName string) (*Definition, error) {
	lower := strings.ToLower(pathOrName)
	isPath := strings.Contains(pathOrName, "/") ||
		strings.Contains(pathOrName, `\`) ||
		strings.HasSuffix(lower, ".yaml") ||
		strings.HasSuffix(lower, ".yml")

	if isPath {
		data, err := os.ReadFile(pathOrName) //nolint:gosec // Intentional path-based loading
		if err != nil {
			return nil, fmt.Errorf("failed to read definition file %q: %w", pathOrName, err)
		}

		return LoadDefinitionFromBytes(data)
	}

	if defaultDefinitionLoader == nil {
		return nil, fmt.Errorf("%w; use SetDefinitionLoader() or provide a file path", ErrNoDefinitionLoader)
	}

	data, err := defaultDefinitionLoader.LoadByName(pathOrName)
	if err != nil {
		available := defaultDefinitionLoader.ListAvailable()

		return nil, fmt.Errorf("failed to load definition %q (available: %v): %w", pathOrName, available, err)
	}

	return LoadDefinitionFromBytes(data)
}

// LoadDefinitionFromBytes parses and validates a YAML definition.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	def, err := DecodeDefinition(data)
	if err != nil {
		return nil, err
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return def, nil
}

// DecodeDefinition parses a YAML definition without validating it. Unknown
// keys are rejected.
func DecodeDefinition(data []byte) (*Definition, error) {
	var def Definition

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDefinition
		}

		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &def, nil
}

// LoadDefinitionFromFS loads a definition from fsys, typically an embed.FS.
func LoadDefinitionFromFS(fsys fs.FS, path string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition from FS: %w", err)
	}

	return LoadDefinitionFromBytes(data)
}

// Validate checks the definition and reports every problem found, joined.
func (d *Definition) Validate() error {
	var errs []error

	if d.Name == "" {
		errs = append(errs, ErrDefinitionNameRequired)
	}

	if len(d.States) == 0 {
		errs = append(errs, ErrStatesRequired)
	}

	seen := make(map[State]bool, len(d.States))

	for i, state := range d.States {
		if state == "" {
			errs = append(errs, fmt.Errorf("state %d: %w", i, ErrStateNameRequired))

			continue
		}

		if seen[state] {
			errs = append(errs, &StateError{State: state, Err: ErrDuplicateStateName})
		}

		seen[state] = true
	}

	if d.Initial != "" && !seen[d.Initial] {
		errs = append(errs, fmt.Errorf("initial: %w", &StateError{State: d.Initial, Err: ErrStateNotDefined}))
	}

	type route struct{ from, to State }

	routes := make(map[route]bool, len(d.Transitions))

	for i, t := range d.Transitions {
		errs = append(errs, d.validateTransition(i, t, seen)...)

		if t.From == "" || t.To == "" {
			continue
		}

		r := route{t.From, t.To}
		if routes[r] {
			errs = append(errs, fmt.Errorf("transition %d: %w", i,
				&TransitionError{Name: t.Name, From: t.From, To: t.To, Err: ErrDuplicateTransitionRoute}))
		}

		routes[r] = true
	}

	return errors.Join(errs...)
}

func (d *Definition) validateTransition(i int, t TransitionDefinition, declared map[State]bool) []error {
	var errs []error

	wrap := func(err error) error {
		return fmt.Errorf("transition %d: %w", i, err)
	}

	if t.Name == "" {
		errs = append(errs, wrap(ErrTransitionNotNamed))
	}

	switch {
	case t.From == "":
		errs = append(errs, wrap(&TransitionError{Name: t.Name, Err: ErrTransitionFromRequired}))
	case !declared[t.From]:
		errs = append(errs, wrap(&StateError{State: t.From, Err: ErrStateNotDefined}))
	}

	switch {
	case t.To == "":
		errs = append(errs, wrap(&TransitionError{Name: t.Name, From: t.From, Err: ErrTransitionToRequired}))
	case !declared[t.To]:
		errs = append(errs, wrap(&StateError{State: t.To, Err: ErrStateNotDefined}))
	}

	return errs
}

// Configure declares the definition's states and transitions on m. Method
// names in Calls and Guard resolve against m's model, so attach the model
// first. Event namespace and name are construction options; see NewFromDefinition.
func (d *Definition) Configure(m *StateMachine) error {
	m.SetStates(d.States...)

	if d.UseDefaultCall != nil {
		m.Transitions().Factory().UseDefaultCall(*d.UseDefaultCall)
	}

	for i, t := range d.Transitions {
		if _, err := m.DeclareTransition(t); err != nil {
			return fmt.Errorf("transition %d: %w", i, err)
		}
	}

	if d.Initial != "" {
		if err := m.SetCurrentState(d.Initial); err != nil {
			return fmt.Errorf("initial: %w", err)
		}
	}

	return nil
}

// Define lets a Definition be attached with Attach. The definition's name and
// event namespace apply unless options passed to Attach already changed them.
func (d *Definition) Define(m *StateMachine) error {
	if m.name == defaultMachineName {
		WithName(d.Name)(m)
	}

	if m.namespace == DefaultEventNamespace {
		WithEventNamespace(d.EventNamespace)(m)
	}

	return d.Configure(m)
}

// NewFromDefinition validates def and builds a machine from it. opts are
// applied after the definition's name and namespace, so they take precedence.
func NewFromDefinition(def *Definition, opts ...Option) (*StateMachine, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	base := []Option{WithName(def.Name), WithEventNamespace(def.EventNamespace)}
	m := New(nil, append(base, opts...)...)

	if err := def.Configure(m); err != nil {
		return nil, err
	}

	return m, nil
}
