package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/catalog"
	"github.com/roach88/appstore/internal/ir"
	"github.com/roach88/appstore/internal/metrics"
)

type options struct {
	logger  *slog.Logger
	metrics metrics.Collector
	ids     IDGenerator
	now     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithIDGenerator sets the request id source. Defaults to UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// Dispatcher routes named operations to the catalog and wraps every
// outcome in an envelope.
//
// Thread-safety: safe for concurrent use; the operation table is
// read-only after construction.
type Dispatcher struct {
	ops     map[string]Operation
	logger  *slog.Logger
	metrics metrics.Collector
	ids     IDGenerator
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher over svc.
func NewDispatcher(svc *catalog.Service, opts ...Option) *Dispatcher {
	o := options{
		logger:  slog.Default(),
		metrics: metrics.NewNoopCollector(),
		ids:     UUIDv7Generator{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Dispatcher{
		ops:     make(map[string]Operation),
		logger:  o.logger,
		metrics: o.metrics,
		ids:     o.ids,
		now:     o.now,
	}
	for _, op := range catalogOperations(svc) {
		d.ops[op.Name] = op
	}
	return d
}

// Operations returns the operation table sorted by name.
func (d *Dispatcher) Operations() []Operation {
	out := make([]Operation, 0, len(d.ops))
	for _, op := range d.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the named operation.
func (d *Dispatcher) Lookup(name string) (Operation, bool) {
	op, ok := d.ops[name]
	return op, ok
}

// Dispatch runs the named operation and returns its envelope. It never
// returns an error: every failure becomes a failure envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, caller ir.AgentID, input json.RawMessage) Response {
	start := d.now()
	payload, comp, err := d.run(ctx, name, caller, input)
	return d.finish(ctx, name, caller, start, payload, comp, err)
}

// Reject answers name with a failure envelope without running it. Front
// ends use it for requests refused before dispatch, such as a bad token.
func (d *Dispatcher) Reject(ctx context.Context, name string, err error) Response {
	return d.finish(ctx, name, "", d.now(), nil, "", err)
}

func (d *Dispatcher) finish(ctx context.Context, name string, caller ir.AgentID, start time.Time, payload any, comp Composition, err error) Response {
	requestID := d.ids.Generate()
	elapsed := d.now().Sub(start)
	log := d.logger.With("request_id", requestID, "operation", name)

	var resp Response
	if err != nil {
		resp = Fail(err)
		kind := apperror.KindOf(err)
		d.metrics.RecordOperation(ctx, name, TypeFailure, elapsed.Milliseconds())
		d.metrics.RecordError(ctx, name, string(kind))
		if apperror.Class(kind) == apperror.ClassApp {
			log.Error("operation failed", "caller", string(caller), "error", err, "kind", string(kind))
		} else {
			log.Info("operation rejected", "caller", string(caller), "error", err.Error(), "kind", string(kind))
		}
	} else {
		resp = Success(payload, comp)
		d.metrics.RecordOperation(ctx, name, TypeSuccess, elapsed.Milliseconds())
		log.Debug("operation succeeded", "caller", string(caller), "duration", elapsed)
	}
	resp.Metadata.RequestID = requestID
	return resp
}

func (d *Dispatcher) run(ctx context.Context, name string, caller ir.AgentID, input json.RawMessage) (any, Composition, error) {
	op, ok := d.ops[name]
	if !ok {
		return nil, "", apperror.Newf(apperror.UserError, "unknown operation %q", name).With("operation", name)
	}
	if op.Caller && caller == "" {
		return nil, "", apperror.Newf(apperror.UserError, "operation %s requires a caller identity", name)
	}
	payload, err := op.Handler(ctx, caller, input)
	if err != nil {
		return nil, "", err
	}
	return payload, op.Composition, nil
}
