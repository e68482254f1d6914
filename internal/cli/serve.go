package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/appstore/internal/gateway"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Serve every catalog operation as POST /v1/{operation}.

Callers authenticate with "Authorization: Bearer <token>" using tokens
from "appstore token". Requests without the header run anonymously.
GET /healthz, GET /metrics and GET /v1/operations are also served.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(context.WithoutCancel(ctx))

	authority, err := rt.authority()
	if err != nil {
		return WrapExitError(ExitCommandError, "auth config", err)
	}
	gwCfg := gateway.Config{
		Dispatcher: rt.dispatcher,
		Gatherer:   rt.collector.Registry(),
		Metrics:    rt.collector,
		Stats:      rt.substrate.Stats,
		Logger:     rt.logger,
	}
	if authority != nil {
		gwCfg.Verifier = authority
	} else {
		rt.logger.Warn("auth.secret not set; bearer tokens will be rejected")
	}

	addr := rt.cfg.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "listen", err)
	}

	srv := &http.Server{
		Handler:           gateway.New(gwCfg),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("serving", "addr", ln.Addr().String(), "ledger", rt.cfg.Ledger.Backend, "driver", rt.cfg.Storage.Driver)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitFailure, "serve", err)
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown", err)
	}
	return nil
}
