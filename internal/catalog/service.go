package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/entity"
	"github.com/roach88/appstore/internal/index"
	"github.com/roach88/appstore/internal/ir"
	"github.com/roach88/appstore/internal/metrics"
)

type options struct {
	logger  *slog.Logger
	metrics metrics.Collector
	entity  []entity.Option
}

// Option configures a Service.
type Option func(*options)

// WithClock sets the timestamp source for new revisions.
func WithClock(c entity.Clock) Option {
	return func(o *options) { o.entity = append(o.entity, entity.WithClock(c)) }
}

// WithNonceSource sets the source of creation nonces. Defaults to UUIDv7.
func WithNonceSource(n entity.NonceSource) Option {
	return func(o *options) { o.entity = append(o.entity, entity.WithNonceSource(n)) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the collector that partial index failures are
// reported to.
func WithMetrics(c metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithTracerProvider sets the tracer provider used by the entity stores.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.entity = append(o.entity, entity.WithTracerProvider(tp)) }
}

// Service implements the catalog operations.
type Service struct {
	records    ir.ImmutableStore
	publishers *entity.Store[Publisher]
	apps       *entity.Store[App]
	indexer    *index.Indexer
	validator  *Validator
	metrics    metrics.Collector
	logger     *slog.Logger
}

// NewService wires the entity stores and the indexer over one substrate.
func NewService(records ir.ImmutableStore, links ir.LinkGraph, opts ...Option) (*Service, error) {
	o := options{logger: slog.Default(), metrics: metrics.NewNoopCollector()}
	for _, opt := range opts {
		opt(&o)
	}
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	entityOpts := append([]entity.Option{entity.WithLogger(o.logger)}, o.entity...)
	return &Service{
		records:    records,
		publishers: entity.New[Publisher](ir.KindPublisher, records, links, entityOpts...),
		apps:       entity.New[App](ir.KindApp, records, links, entityOpts...),
		indexer:    index.New(records, links, o.logger),
		validator:  validator,
		metrics:    o.metrics,
		logger:     o.logger,
	}, nil
}

// Whoami returns the caller's identity.
func (s *Service) Whoami(caller ir.AgentID) (Identity, error) {
	if caller == "" {
		return Identity{}, apperror.New(apperror.UserError, "no caller identity")
	}
	return Identity{Agent: caller}, nil
}

// Record returns any stored record by its own hash: a revision of either
// kind, or an anchor node.
func (s *Service) Record(ctx context.Context, in GetRecordInput) (StoredRecord, error) {
	if err := requireHash("hash", in.Hash); err != nil {
		return StoredRecord{}, err
	}
	data, err := s.records.Get(ctx, in.Hash)
	if err != nil {
		if errors.Is(err, ir.ErrNotFound) {
			return StoredRecord{}, apperror.Newf(apperror.NotFound, "record %s not found", in.Hash.Short())
		}
		return StoredRecord{}, apperror.Wrap(apperror.StorageFailure, "read record", err)
	}
	var raw struct {
		ir.RecordHeader
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return StoredRecord{}, apperror.Wrap(apperror.AppError, fmt.Sprintf("decode record %s", in.Hash.Short()), err)
	}
	return StoredRecord{
		Hash:   in.Hash,
		Kind:   raw.Kind,
		Entity: raw.Entity,
		Prev:   raw.Prev,
		Editor: raw.Editor,
		Body:   raw.Body,
	}, nil
}

// Reindex re-derives the collections of an entity from its creation
// record and writes any membership edges that are missing. It is the
// retry path after a create whose indexing partially failed.
func (s *Service) Reindex(ctx context.Context, in ReindexInput) (ReindexResult, error) {
	if err := requireHash("id", in.ID); err != nil {
		return ReindexResult{}, err
	}
	var rel index.Relations
	switch in.Kind {
	case ir.KindPublisher:
		root, err := creation(ctx, s.publishers, in.ID)
		if err != nil {
			return ReindexResult{}, err
		}
		rel = publisherRelations(root.Revision)
	case ir.KindApp:
		root, err := creation(ctx, s.apps, in.ID)
		if err != nil {
			return ReindexResult{}, err
		}
		rel = appRelations(root.Revision)
	default:
		return ReindexResult{}, apperror.Newf(apperror.ValidationError, "unknown kind %q", in.Kind).With("kind", string(in.Kind))
	}

	if err := s.indexer.Index(ctx, in.ID, rel); err != nil {
		return ReindexResult{}, apperror.Wrap(apperror.StorageFailure, "reindex", err)
	}
	anchors := index.Anchors(rel)
	out := ReindexResult{ID: in.ID, Kind: in.Kind, Anchors: make([]string, len(anchors))}
	for i, a := range anchors {
		out.Anchors[i] = a.String()
	}
	s.logger.Info("entity reindexed", "id", in.ID.Short(), "kind", string(in.Kind), "anchors", len(anchors))
	return out, nil
}

// creation loads the creation record of id, rejecting revision hashes.
func creation[P any](ctx context.Context, st *entity.Store[P], id ir.Hash) (entity.Version[P], error) {
	root, err := st.Record(ctx, id)
	if err != nil {
		return entity.Version[P]{}, err
	}
	if !root.Prev.IsZero() {
		return entity.Version[P]{}, apperror.Newf(apperror.NotFound, "%s is a revision, not an entity id", id.Short())
	}
	return root, nil
}

func publisherRelations(rev ir.Revision[Publisher]) index.Relations {
	return index.Relations{Kind: ir.KindPublisher, Editors: rev.Editors}
}

func appRelations(rev ir.Revision[App]) index.Relations {
	return index.Relations{
		Kind:    ir.KindApp,
		Editors: rev.Editors,
		Parent:  &index.Parent{Kind: ir.KindPublisher, ID: rev.Content.Publisher},
	}
}

// place indexes a freshly created entity. Partial failure is logged and
// tolerated: the entity exists and Reindex completes the placement.
func (s *Service) place(ctx context.Context, id ir.Hash, rel index.Relations) {
	err := s.indexer.Index(ctx, id, rel)
	if err == nil {
		return
	}
	var partial *index.PartialError
	if errors.As(err, &partial) {
		s.logger.Warn("entity partially indexed", "id", id.Short(), "kind", string(rel.Kind), "failed", len(partial.Failures))
		s.metrics.RecordIndexFailure(ctx, string(rel.Kind), len(partial.Failures))
		return
	}
	s.logger.Error("entity not indexed", "id", id.Short(), "kind", string(rel.Kind), "error", err)
}

// collect resolves every member of a collection. Members whose records
// are not yet visible are skipped; any other failure aborts.
func collect[P any](ctx context.Context, s *Service, st *entity.Store[P], a index.Anchor, keep func(ir.Entity[P]) bool) ([]ir.Entity[P], error) {
	ids, err := s.indexer.Collection(ctx, a)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Entity[P], 0, len(ids))
	for _, id := range ids {
		ent, err := st.Get(ctx, id)
		if err != nil {
			if apperror.IsKind(err, apperror.NotFound) {
				s.logger.Debug("collection member not yet visible", "anchor", a.String(), "id", id.Short())
				continue
			}
			if apperror.IsKind(err, apperror.StorageFailure) {
				return nil, err
			}
			return nil, apperror.Wrap(apperror.StorageFailure, fmt.Sprintf("resolve %s in %s", id.Short(), a), err)
		}
		if keep == nil || keep(ent) {
			out = append(out, ent)
		}
	}
	return out, nil
}

func notDeprecated[P any](e ir.Entity[P]) bool {
	return !e.Content.Deprecated()
}

func requireHash(field string, h ir.Hash) error {
	if _, err := ir.ParseHash(string(h)); err != nil {
		return apperror.Wrap(apperror.ValidationError, fmt.Sprintf("%s is not a valid hash", field), err).With("field", field)
	}
	return nil
}

func requireCaller(caller ir.AgentID) error {
	if caller == "" {
		return apperror.New(apperror.UserError, "caller identity required")
	}
	return nil
}

func requireAgent(agent ir.AgentID) error {
	if agent == "" {
		return apperror.New(apperror.ValidationError, "for_agent is required").With("field", "for_agent")
	}
	return nil
}

func deprecation(in DeprecateInput) (ir.Deprecation, error) {
	if err := requireHash("base", in.Base); err != nil {
		return ir.Deprecation{}, err
	}
	for _, alt := range in.RecommendedAlternatives {
		if err := requireHash("recommended_alternatives", alt); err != nil {
			return ir.Deprecation{}, err
		}
	}
	return ir.Deprecation{Message: in.Message, RecommendedAlternatives: in.RecommendedAlternatives}, nil
}
