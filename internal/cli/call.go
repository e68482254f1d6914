package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <operation> [json|-]",
		Short: "Dispatch one operation and print its envelope",
		Long: `Dispatch one catalog operation and print the response envelope.

The input is a JSON object given inline, or read from stdin when "-".
The caller is taken from --token, or from --as when no token is given.

Examples:
  appstore call get_all_apps
  appstore call --as alice create_publisher '{"name":"Acme", ...}'
  appstore call --as alice update_app - < update.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, rootOpts, args)
		},
	}
}

func runCall(cmd *cobra.Command, opts *RootOptions, args []string) error {
	var input json.RawMessage
	if len(args) == 2 {
		if args[1] == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return WrapExitError(ExitCommandError, "read stdin", err)
			}
			input = data
		} else {
			input = json.RawMessage(args[1])
		}
	}

	ctx := cmd.Context()
	rt, err := openRuntime(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	caller, err := rt.caller(opts)
	if err != nil {
		return err
	}

	resp := rt.dispatcher.Dispatch(ctx, args[0], caller, input)
	if err := writeIndented(cmd.OutOrStdout(), resp); err != nil {
		return WrapExitError(ExitCommandError, "write response", err)
	}
	if !resp.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed", args[0]))
	}
	return nil
}
