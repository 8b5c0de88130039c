package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/amp-labs/amp-fsm/statemachine/validator"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errInvalidDefinition = errors.New("definition is invalid")

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a definition for errors and warnings",
		Long:  `Runs every validation rule against the definition. In strict mode warnings count as errors.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := validator.ValidateFileWithOptions(args[0], strict)

			fmt.Fprint(cmd.OutOrStdout(), result.String())

			if err != nil {
				return err
			}

			slog.Debug("definition validated", "file", args[0], "strict", strict,
				"errors", len(result.Errors), "warnings", len(result.Warnings))

			if result.HasErrors() {
				return fmt.Errorf("%w: %s", errInvalidDefinition, args[0])
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func newFixCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fix <file>",
		Short: "Apply the automatic fixes validation suggests",
		Long:  `Validates the definition, applies every available fix and prints the repaired YAML.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read definition: %w", err)
			}

			def, err := statemachine.DecodeDefinition(data)
			if err != nil {
				return err
			}

			fixes := validator.Validate(def).Fixes()
			if err := validator.ApplyFixes(def, fixes); err != nil {
				return err
			}

			slog.Debug("fixes applied", "file", args[0], "count", len(fixes))

			out, err := yaml.Marshal(def)
			if err != nil {
				return fmt.Errorf("failed to encode definition: %w", err)
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)

				return err
			}

			return os.WriteFile(output, out, 0o600)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the fixed definition to this file instead of stdout")

	return cmd
}
