package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/appstore/internal/harness"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run conformance scenarios",
		Long: `Run scenario files against a fresh in-memory catalog.

Directories contribute every *.yaml and *.yml file they contain. Each
scenario runs in isolation with a deterministic clock.

Exit codes:
  0  every scenario passed
  1  at least one scenario failed
  2  a path could not be read`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, rootOpts, args)
		},
	}
}

func runTest(cmd *cobra.Command, opts *RootOptions, args []string) error {
	paths, err := harness.FindScenarios(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "find scenarios", err)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	suite, err := harness.RunFiles(cmd.Context(), paths)
	if err != nil {
		return WrapExitError(ExitCommandError, "run scenarios", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Success(suite, suiteText(suite, opts.Verbose)); err != nil {
		return err
	}
	if !suite.Pass() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", suite.Failed, suite.Total))
	}
	return nil
}

func suiteText(suite *harness.SuiteResult, verbose bool) string {
	text := fmt.Sprintf("%d scenarios: %d passed, %d failed", suite.Total, suite.Passed, suite.Failed)
	for _, f := range suite.Failures {
		name := f.Path
		if f.Name != "" {
			name = fmt.Sprintf("%s (%s)", f.Path, f.Name)
		}
		text += "\nFAIL " + name
		limit := len(f.Errors)
		if !verbose && limit > 3 {
			limit = 3
		}
		for _, e := range f.Errors[:limit] {
			text += "\n  " + e
		}
		if limit < len(f.Errors) {
			text += fmt.Sprintf("\n  ... %d more (use -v)", len(f.Errors)-limit)
		}
	}
	return text
}
