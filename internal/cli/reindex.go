package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/appstore/internal/catalog"
	"github.com/roach88/appstore/internal/ir"
)

// NewReindexCommand creates the reindex command.
func NewReindexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <publisher|app> <entity-id>",
		Short: "Repair the collection placement of an entity",
		Long: `Re-derive the collections an entity belongs to from its creation
record and write any membership that is missing. Use it after a create
that was only partially indexed. Running it twice is harmless.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(cmd, rootOpts, args)
		},
	}
}

func runReindex(cmd *cobra.Command, opts *RootOptions, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	res, err := rt.service.Reindex(ctx, catalog.ReindexInput{
		Kind: ir.Kind(args[0]),
		ID:   ir.Hash(args[1]),
	})
	if err != nil {
		_ = formatter.Error(err)
		return WrapExitError(ExitFailure, "reindex", err)
	}

	text := fmt.Sprintf("reindexed %s %s into %d collections", res.Kind, res.ID.Short(), len(res.Anchors))
	if len(res.Anchors) > 0 {
		text += "\n  " + strings.Join(res.Anchors, "\n  ")
	}
	return formatter.Success(res, text)
}
