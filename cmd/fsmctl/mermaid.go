package main

import (
	"fmt"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/amp-labs/amp-fsm/statemachine/visualizer"
	"github.com/spf13/cobra"
)

func newMermaidCmd() *cobra.Command {
	var (
		direction string
		theme     string
		noGuards  bool
		noActions bool
		highlight []string
	)

	cmd := &cobra.Command{
		Use:   "mermaid <file>",
		Short: "Render a definition as a Mermaid state diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := statemachine.LoadDefinition(args[0])
			if err != nil {
				return fmt.Errorf("failed to load definition: %w", err)
			}

			path := make([]statemachine.State, len(highlight))
			for i, s := range highlight {
				path[i] = statemachine.State(s)
			}

			opts := visualizer.DefaultOptions().
				WithDirection(direction).
				WithTheme(theme).
				WithShowGuards(!noGuards).
				WithShowActions(!noActions).
				WithHighlightPath(path...)

			diagram, err := visualizer.GenerateMermaidWithOptions(def, opts)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), diagram)

			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "TB", "Diagram direction (TB, LR, BT, RL)")
	cmd.Flags().StringVar(&theme, "theme", "default", "Mermaid theme (default, dark, forest, neutral)")
	cmd.Flags().BoolVar(&noGuards, "no-guards", false, "Hide guards on edges")
	cmd.Flags().BoolVar(&noActions, "no-actions", false, "Hide actions on edges")
	cmd.Flags().StringSliceVar(&highlight, "highlight", nil, "States to highlight, in order")

	return cmd
}
