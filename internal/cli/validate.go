package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Scenario string   `json:"scenario,omitempty"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario without replaying it",
		Long: `Check that a scenario parses, that every op is well formed
and that every dispatched event is declared.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	scenario, err := LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot load scenario", err)
	}

	result := ValidationResult{Scenario: scenario.Name, Valid: true}
	for _, e := range multierr.Errors(scenario.Validate()) {
		result.Valid = false
		result.Errors = append(result.Errors, e.Error())
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(w, "✓ scenario %s valid\n", scenario.Name)
	} else {
		fmt.Fprintln(w, "✗ validation failed")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	return nil
}
