// Package gateway serves the operation table over HTTP.
//
// Every operation is POST /v1/{operation} with a JSON body; the caller is
// the subject of the bearer token, if any. Responses are always an
// envelope, with the status code derived from the failure kind.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/appstore/internal/api"
	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/auth"
	"github.com/roach88/appstore/internal/ir"
	"github.com/roach88/appstore/internal/metrics"
)

const maxBodyBytes = 1 << 20

// Verifier resolves a bearer token to an agent.
type Verifier interface {
	Verify(token string) (ir.AgentID, error)
}

// StatsFunc reports storage object counts keyed by storage type.
type StatsFunc func(ctx context.Context) (map[string]int64, error)

// Config wires a Server.
type Config struct {
	Dispatcher *api.Dispatcher
	// Verifier is required for requests that carry a token. Nil rejects
	// them.
	Verifier Verifier
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Metrics  metrics.Collector
	Stats    StatsFunc
	Logger   *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopCollector()
	}
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.healthz)
	if cfg.Gatherer != nil {
		r.Get("/metrics", s.metricsHandler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/operations", s.operations)
		r.Post("/{operation}", s.invoke)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) operations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Dispatcher.Operations())
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "operation")
	ctx := r.Context()

	caller, err := s.caller(r)
	if err != nil {
		s.respond(w, s.cfg.Dispatcher.Reject(ctx, name, err))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = apperror.Newf(apperror.UserError, "request body exceeds %d bytes", tooLarge.Limit)
		} else {
			err = apperror.Wrap(apperror.UserError, "read request body", err)
		}
		s.respond(w, s.cfg.Dispatcher.Reject(ctx, name, err))
		return
	}

	s.respond(w, s.cfg.Dispatcher.Dispatch(ctx, name, caller, body))
}

// caller returns the agent named by the Authorization header. No header
// means an anonymous caller.
func (s *Server) caller(r *http.Request) (ir.AgentID, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}
	token, ok := auth.BearerToken(header)
	if !ok {
		return "", apperror.New(apperror.Unauthorized, "authorization must be a bearer token")
	}
	if s.cfg.Verifier == nil {
		return "", apperror.New(apperror.Unauthorized, "token authentication is not configured")
	}
	return s.cfg.Verifier.Verify(token)
}

func (s *Server) respond(w http.ResponseWriter, resp api.Response) {
	status := http.StatusOK
	if f, ok := resp.FailureOf(); ok {
		status = f.Error.HTTPStatus()
	}
	writeJSON(w, status, resp)
}

// metricsHandler refreshes the storage gauges before every scrape.
func (s *Server) metricsHandler() http.HandlerFunc {
	h := promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Stats != nil {
			stats, err := s.cfg.Stats(r.Context())
			if err != nil {
				s.cfg.Logger.Warn("storage stats unavailable", "error", err)
			}
			for kind, n := range stats {
				s.cfg.Metrics.SetStorageCount(r.Context(), kind, n)
			}
		}
		h.ServeHTTP(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
