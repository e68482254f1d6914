package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/appstore/internal/api"
	"github.com/roach88/appstore/internal/catalog"
)

// NewOpsCommand creates the ops command.
func NewOpsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the catalog operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOps(cmd, rootOpts)
		},
	}
}

func runOps(cmd *cobra.Command, opts *RootOptions) error {
	// The operation table does not touch storage, so nothing is opened.
	svc, err := catalog.NewService(nil, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "start catalog", err)
	}
	ops := api.NewDispatcher(svc).Operations()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(ops, "")
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, op := range ops {
		caller := ""
		if op.Caller {
			caller = "caller"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name, op.Composition, caller, op.Summary)
	}
	tw.Flush()
	return formatter.Success(ops, strings.TrimRight(b.String(), "\n"))
}
