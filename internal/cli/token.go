package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/appstore/internal/ir"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <agent>",
		Short: "Issue an identity token for an agent",
		Long: `Issue a signed identity token whose subject is the given agent.
Requires auth.secret (or APPSTORE_AUTH_SECRET).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, rootOpts, args[0])
		},
	}
}

func runToken(cmd *cobra.Command, opts *RootOptions, agent string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	authority, err := newAuthority(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "auth config", err)
	}
	if authority == nil {
		return NewExitError(ExitCommandError, "auth.secret is not configured")
	}

	token, err := authority.Issue(ir.AgentID(agent))
	if err != nil {
		return WrapExitError(ExitCommandError, "issue token", err)
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(map[string]string{"agent": agent, "token": token}, token)
}
