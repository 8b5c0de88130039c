package visualizer

import "github.com/amp-labs/amp-fsm/statemachine"

// Options configures the visualization output.
type Options struct {
	// ShowActions appends the action (method name or "func") to transition labels
	ShowActions bool

	// ShowGuards appends the guard in brackets to transition labels
	ShowGuards bool

	// Direction controls diagram flow: "TB" (top-bottom) or "LR" (left-right)
	Direction string

	// HighlightPath highlights the given states
	HighlightPath []statemachine.State

	// MarkCurrent styles the machine's current state. Only used for live machines.
	MarkCurrent bool

	// Theme controls the color scheme: "default", "dark", "forest", "neutral"
	Theme string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowActions: true,
		ShowGuards:  true,
		Direction:   "TB",
		MarkCurrent: true,
		Theme:       "default",
	}
}

// WithShowActions enables/disables action labels.
func (o Options) WithShowActions(show bool) Options {
	o.ShowActions = show

	return o
}

// WithShowGuards enables/disables guard labels.
func (o Options) WithShowGuards(show bool) Options {
	o.ShowGuards = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path ...statemachine.State) Options {
	o.HighlightPath = path

	return o
}

// WithMarkCurrent enables/disables current-state styling.
func (o Options) WithMarkCurrent(mark bool) Options {
	o.MarkCurrent = mark

	return o
}

// WithTheme sets the color theme.
func (o Options) WithTheme(theme string) Options {
	o.Theme = theme

	return o
}
