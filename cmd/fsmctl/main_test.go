package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turnstileYAML = `name: turnstile
states: [locked, unlocked]
transitions:
  - name: coin
    from: locked
    to: unlocked
  - name: push
    from: unlocked
    to: locked
`

func writeDefinition(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

//nolint:paralleltest // The root command replaces the default slog logger
func TestValidate(t *testing.T) {
	t.Run("valid definition", func(t *testing.T) {
		out, err := execute(t, "validate", writeDefinition(t, turnstileYAML))
		require.NoError(t, err)
		assert.Contains(t, out, "Definition is valid")
	})

	t.Run("duplicate route", func(t *testing.T) {
		path := writeDefinition(t, turnstileYAML+`  - name: kick
    from: unlocked
    to: locked
`)

		out, err := execute(t, "validate", path)
		require.ErrorIs(t, err, errInvalidDefinition)
		assert.Contains(t, out, "DUPLICATE_ROUTE")
	})

	t.Run("warnings fail only in strict mode", func(t *testing.T) {
		path := writeDefinition(t, `name: turnstile
states: [locked, unlocked, broken]
transitions:
  - name: coin
    from: locked
    to: unlocked
  - name: push
    from: unlocked
    to: locked
`)

		out, err := execute(t, "validate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "warning(s)")

		_, err = execute(t, "validate", "--strict", path)
		require.ErrorIs(t, err, errInvalidDefinition)
	})

	t.Run("missing file", func(t *testing.T) {
		out, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, out, "DEFINITION_LOAD_FAILED")
	})

	t.Run("requires a file", func(t *testing.T) {
		_, err := execute(t, "validate")
		require.Error(t, err)
	})
}

//nolint:paralleltest // The root command replaces the default slog logger
func TestFix(t *testing.T) {
	path := writeDefinition(t, turnstileYAML+`  - name: jam
    from: unlocked
    to: jammed
`)

	out, err := execute(t, "fix", path)
	require.NoError(t, err)

	def, err := statemachine.LoadDefinitionFromBytes([]byte(out))
	require.NoError(t, err)
	assert.Contains(t, def.States, statemachine.State("jammed"))

	target := filepath.Join(t.TempDir(), "fixed.yaml")

	_, err = execute(t, "fix", path, "-o", target)
	require.NoError(t, err)

	written, err := statemachine.LoadDefinition(target)
	require.NoError(t, err)
	assert.Equal(t, def, written)
}

//nolint:paralleltest // The root command replaces the default slog logger
func TestFixOverlappingIssues(t *testing.T) {
	t.Run("route repeated three times", func(t *testing.T) {
		path := writeDefinition(t, turnstileYAML+`  - name: kick
    from: unlocked
    to: locked
  - name: shove
    from: unlocked
    to: locked
`)

		out, err := execute(t, "fix", path)
		require.NoError(t, err)

		def, err := statemachine.LoadDefinitionFromBytes([]byte(out))
		require.NoError(t, err)
		require.Len(t, def.Transitions, 2)
		assert.Equal(t, "push", def.Transitions[1].Name)
	})

	t.Run("unreachable state with a bad name", func(t *testing.T) {
		path := writeDefinition(t, `name: turnstile
states: [locked, unlocked, Broken]
transitions:
  - name: coin
    from: locked
    to: unlocked
  - name: push
    from: unlocked
    to: locked
`)

		out, err := execute(t, "fix", path)
		require.NoError(t, err)

		def, err := statemachine.LoadDefinitionFromBytes([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, []statemachine.State{"locked", "unlocked"}, def.States)
	})

	t.Run("undeclared initial state keeps the machine", func(t *testing.T) {
		path := writeDefinition(t, `name: turnstile
states: [locked, unlocked]
initial: start
transitions:
  - name: coin
    from: locked
    to: unlocked
  - name: push
    from: unlocked
    to: locked
`)

		out, err := execute(t, "fix", path)
		require.NoError(t, err)

		def, err := statemachine.LoadDefinitionFromBytes([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, []statemachine.State{"locked", "unlocked", "start"}, def.States)
		assert.Len(t, def.Transitions, 2)
	})
}

//nolint:paralleltest // The root command replaces the default slog logger
func TestMermaid(t *testing.T) {
	path := writeDefinition(t, turnstileYAML)

	out, err := execute(t, "mermaid", "--direction", "LR", "--theme", "dark", "--highlight", "unlocked", path)
	require.NoError(t, err)

	assert.Contains(t, out, "stateDiagram-v2")
	assert.Contains(t, out, "direction LR")
	assert.Contains(t, out, "%%{init: {'theme': 'dark'}}%%")
	assert.Contains(t, out, "locked --> unlocked: coin")
	assert.Contains(t, out, "class unlocked highlighted")

	_, err = execute(t, "mermaid", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
