package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/roach88/appstore/internal/api"
	"github.com/roach88/appstore/internal/auth"
	"github.com/roach88/appstore/internal/catalog"
	"github.com/roach88/appstore/internal/config"
	"github.com/roach88/appstore/internal/ir"
	"github.com/roach88/appstore/internal/metrics"
	"github.com/roach88/appstore/internal/substrate"
	"github.com/roach88/appstore/internal/telemetry"
)

// runtime is the wired process: storage, catalog and dispatcher.
type runtime struct {
	cfg        config.Config
	logger     *slog.Logger
	substrate  *substrate.Substrate
	tracing    *telemetry.Provider
	collector  *metrics.PrometheusCollector
	service    *catalog.Service
	dispatcher *api.Dispatcher
}

// loadConfig reads the configuration named by --config.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg; verbose forces debug.
func newLogger(cfg config.Log, verbose bool, w io.Writer) *slog.Logger {
	// cfg has passed Validate, so the level parses.
	level, _ := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// openRuntime wires everything a catalog command needs.
func openRuntime(ctx context.Context, opts *RootOptions, stderr io.Writer) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, opts.Verbose, stderr)

	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "set up tracing", err)
	}

	sub, err := substrate.Open(ctx, cfg)
	if err != nil {
		_ = tracing.Shutdown(ctx)
		return nil, WrapExitError(ExitCommandError, "open storage", err)
	}

	collector := metrics.NewCollector()
	svc, err := catalog.NewService(sub.Records, sub.Links,
		catalog.WithLogger(logger),
		catalog.WithMetrics(collector),
		catalog.WithTracerProvider(tracing),
	)
	if err != nil {
		sub.Close()
		_ = tracing.Shutdown(ctx)
		return nil, WrapExitError(ExitCommandError, "start catalog", err)
	}

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		substrate:  sub,
		tracing:    tracing,
		collector:  collector,
		service:    svc,
		dispatcher: api.NewDispatcher(svc, api.WithLogger(logger), api.WithMetrics(collector)),
	}, nil
}

// Close releases storage and flushes spans.
func (r *runtime) Close(ctx context.Context) error {
	return errors.Join(r.substrate.Close(), r.tracing.Shutdown(ctx))
}

// authority returns the token authority, or nil when no secret is
// configured.
func (r *runtime) authority() (*auth.Authority, error) {
	return newAuthority(r.cfg)
}

func newAuthority(cfg config.Config) (*auth.Authority, error) {
	if cfg.Auth.Secret == "" {
		return nil, nil
	}
	return auth.NewAuthority(auth.Config{
		Secret: cfg.Auth.Secret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TTL,
	})
}

// caller resolves --token or --as.
func (r *runtime) caller(opts *RootOptions) (ir.AgentID, error) {
	if opts.Token == "" {
		return ir.AgentID(opts.As), nil
	}
	a, err := r.authority()
	if err != nil {
		return "", WrapExitError(ExitCommandError, "auth config", err)
	}
	if a == nil {
		return "", NewExitError(ExitCommandError, "--token needs auth.secret to be configured")
	}
	agent, err := a.Verify(opts.Token)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "verify --token", err)
	}
	return agent, nil
}
