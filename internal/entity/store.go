package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/ir"
)

const tracerName = "github.com/roach88/appstore/internal/entity"

// unsetTimestamp marks last_updated as not chosen by an update mutator.
const unsetTimestamp int64 = math.MinInt64

// NonceSource produces the per-create nonce that keeps two creations with
// identical content apart.
type NonceSource interface {
	Generate() string
}

// uuidNonces generates UUIDv7 nonces.
type uuidNonces struct{}

func (uuidNonces) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

type options struct {
	clock  Clock
	nonces NonceSource
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Store.
type Option func(*options)

// WithClock sets the timestamp source. Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithNonceSource sets the creation nonce source. Defaults to UUIDv7.
func WithNonceSource(n NonceSource) Option {
	return func(o *options) { o.nonces = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp.Tracer(tracerName) }
}

// Store manages the revision chains of one entity kind on top of an
// ImmutableStore (revision records) and a LinkGraph (update edges).
//
// There are no locks: concurrent updates against the same head each
// write a successor, the chain forks, and readers resolve the fork with
// Newer.
type Store[P any] struct {
	kind    ir.Kind
	records ir.ImmutableStore
	links   ir.LinkGraph
	clock   Clock
	nonces  NonceSource
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a Store for entities of kind.
func New[P any](kind ir.Kind, records ir.ImmutableStore, links ir.LinkGraph, opts ...Option) *Store[P] {
	o := options{
		clock:  SystemClock{},
		nonces: uuidNonces{},
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[P]{
		kind:    kind,
		records: records,
		links:   links,
		clock:   o.clock,
		nonces:  o.nonces,
		logger:  o.logger.With("kind", string(kind)),
		tracer:  o.tracer,
	}
}

// Kind returns the entity kind this store manages.
func (s *Store[P]) Kind() ir.Kind { return s.kind }

func (s *Store[P]) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("entity.kind", string(s.kind)))
	return s.tracer.Start(ctx, "entity."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create writes the creation revision and returns the new entity, whose
// ID and Head are both the creation record's hash.
//
// The caller becomes the author and is prepended to the editor set when
// absent. Zero timestamps default to the clock. Every creation record
// carries a fresh nonce, so identical inputs still yield distinct entities.
func (s *Store[P]) Create(ctx context.Context, caller ir.AgentID, rev ir.Revision[P]) (ent ir.Entity[P], err error) {
	ctx, span := s.startSpan(ctx, "create", attribute.String("caller", string(caller)))
	defer func() { endSpan(span, err) }()

	if caller == "" {
		return ir.Entity[P]{}, apperror.New(apperror.UserError, "caller identity required")
	}

	rev = rev.Clone()
	rev.Author = caller
	now := s.clock.Now()
	if rev.PublishedAt == 0 {
		rev.PublishedAt = now
	}
	if rev.LastUpdated == 0 {
		rev.LastUpdated = now
	}
	rev.Editors = foundingEditors(caller, rev.Editors)

	v, err := s.write(ctx, ir.Record[P]{
		Kind:   s.kind,
		Nonce:  s.nonces.Generate(),
		Editor: caller,
		Body:   rev,
	})
	if err != nil {
		return ir.Entity[P]{}, fmt.Errorf("create %s: %w", s.kind, err)
	}

	s.logger.Info("entity created", "id", v.Hash.Short(), "author", string(caller), "editors", len(rev.Editors))
	return s.entity(v.Hash, v), nil
}

// Get resolves the current revision of id.
func (s *Store[P]) Get(ctx context.Context, id ir.Hash) (ent ir.Entity[P], err error) {
	ctx, span := s.startSpan(ctx, "get", attribute.String("entity.id", string(id)))
	defer func() { endSpan(span, err) }()

	chain, err := s.Resolve(ctx, id)
	if err != nil {
		return ir.Entity[P]{}, err
	}
	return s.entity(id, chain.Current()), nil
}

// Update writes a successor of the current head. mutate receives a copy of
// the head revision with last_updated unset; the author is restored
// afterwards. A last_updated that mutate leaves unset becomes
// max(now, head+1); any value mutate assigns is kept as is.
//
// Returns Unauthorized, without writing anything, when caller is not an
// editor of the current head.
func (s *Store[P]) Update(ctx context.Context, caller ir.AgentID, id ir.Hash, mutate func(*ir.Revision[P]) error) (ent ir.Entity[P], err error) {
	ctx, span := s.startSpan(ctx, "update",
		attribute.String("entity.id", string(id)),
		attribute.String("caller", string(caller)),
	)
	defer func() { endSpan(span, err) }()

	chain, err := s.Resolve(ctx, id)
	if err != nil {
		return ir.Entity[P]{}, err
	}
	head := chain.Current()
	if err := Guard(caller, id, head.Revision); err != nil {
		s.logger.Warn("update rejected", "id", id.Short(), "caller", string(caller))
		return ir.Entity[P]{}, err
	}

	next := head.Revision.Clone()
	next.LastUpdated = unsetTimestamp
	if err := mutate(&next); err != nil {
		return ir.Entity[P]{}, err
	}
	next.Author = head.Revision.Author
	if next.LastUpdated == unsetTimestamp {
		next.LastUpdated = max(s.clock.Now(), head.Revision.LastUpdated+1)
	}
	next.Editors = normalizeEditors(next.Editors)
	if len(next.Editors) == 0 {
		return ir.Entity[P]{}, apperror.New(apperror.ValidationError, "editor set must not be empty")
	}

	v, err := s.write(ctx, ir.Record[P]{
		Kind:   s.kind,
		Entity: id,
		Prev:   head.Hash,
		Editor: caller,
		Body:   next,
	})
	if err != nil {
		return ir.Entity[P]{}, fmt.Errorf("update %s %s: %w", s.kind, id.Short(), err)
	}
	if err := s.links.Link(ctx, head.Hash, v.Hash, ir.LinkUpdate, ""); err != nil {
		return ir.Entity[P]{}, apperror.Wrap(apperror.StorageFailure, fmt.Sprintf("link update %s", id.Short()), err)
	}

	s.logger.Info("entity updated", "id", id.Short(), "prev", head.Hash.Short(), "head", v.Hash.Short(), "editor", string(caller))
	return s.entity(id, v), nil
}

// Deprecate sets a deprecation notice on the current revision.
func (s *Store[P]) Deprecate(ctx context.Context, caller ir.AgentID, id ir.Hash, notice ir.Deprecation) (ir.Entity[P], error) {
	if notice.Message == "" {
		return ir.Entity[P]{}, apperror.New(apperror.ValidationError, "deprecation message is required")
	}
	return s.Update(ctx, caller, id, func(rev *ir.Revision[P]) error {
		n := notice
		rev.Deprecation = &n
		return nil
	})
}

// Undeprecate clears the deprecation notice.
func (s *Store[P]) Undeprecate(ctx context.Context, caller ir.AgentID, id ir.Hash) (ir.Entity[P], error) {
	return s.Update(ctx, caller, id, func(rev *ir.Revision[P]) error {
		if rev.Deprecation == nil {
			return apperror.Newf(apperror.ValidationError, "%s %s is not deprecated", s.kind, id.Short())
		}
		rev.Deprecation = nil
		return nil
	})
}

// History returns every visible revision of id, oldest first.
func (s *Store[P]) History(ctx context.Context, id ir.Hash) ([]Version[P], error) {
	chain, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return chain.Versions(), nil
}

// Heads returns the hashes of all current leaves, resolved head first.
// More than one entry means the chain is forked.
func (s *Store[P]) Heads(ctx context.Context, id ir.Hash) ([]ir.Hash, error) {
	chain, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	leaves := chain.Leaves()
	out := make([]ir.Hash, len(leaves))
	for i, l := range leaves {
		out[i] = l.Hash
	}
	return out, nil
}

// Record returns a single revision by its own hash, current or not.
func (s *Store[P]) Record(ctx context.Context, hash ir.Hash) (Version[P], error) {
	v, err := s.load(ctx, hash)
	if err != nil {
		if errors.Is(err, ir.ErrNotFound) {
			return Version[P]{}, apperror.Newf(apperror.NotFound, "record %s not found", hash.Short())
		}
		return Version[P]{}, err
	}
	return v, nil
}

// Resolve loads the creation record of id and walks update edges
// breadth-first, returning the chain of valid revisions.
//
// A successor is accepted only if its record names id as origin and the
// walked predecessor as prev, keeps the original author, and was written
// by an editor of the predecessor. Successors whose record is not yet
// visible are skipped.
func (s *Store[P]) Resolve(ctx context.Context, id ir.Hash) (*Chain[P], error) {
	root, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ir.ErrNotFound) {
			return nil, apperror.Newf(apperror.NotFound, "%s %s not found", s.kind, id.Short()).With("id", string(id))
		}
		return nil, err
	}
	if !root.Prev.IsZero() || root.Entity != id {
		return nil, apperror.Newf(apperror.NotFound, "%s %s is a revision, not an entity id", s.kind, id.Short()).With("id", string(id))
	}

	chain := NewChain(root)
	queue := []ir.Hash{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		pred, _ := chain.Version(cur)

		links, err := s.links.LinksFrom(ctx, cur, ir.LinkUpdate)
		if err != nil {
			return nil, apperror.Wrap(apperror.StorageFailure, fmt.Sprintf("read update links of %s", cur.Short()), err)
		}
		for _, l := range links {
			if chain.Has(l.Target) {
				continue
			}
			next, err := s.load(ctx, l.Target)
			if err != nil {
				if errors.Is(err, ir.ErrNotFound) {
					s.logger.Debug("successor not yet visible", "id", id.Short(), "revision", l.Target.Short())
					continue
				}
				if apperror.KindOf(err) == apperror.StorageFailure {
					return nil, err
				}
				s.logger.Warn("ignoring unreadable successor", "id", id.Short(), "revision", l.Target.Short(), "error", err)
				continue
			}
			if reason := validSuccessor(id, pred, next); reason != "" {
				s.logger.Warn("ignoring invalid successor", "id", id.Short(), "revision", l.Target.Short(), "reason", reason)
				continue
			}
			if chain.Add(next) {
				queue = append(queue, next.Hash)
			}
		}
	}

	if chain.Forked() {
		s.logger.Debug("chain forked", "id", id.Short(), "leaves", len(chain.Leaves()))
	}
	return chain, nil
}

func validSuccessor[P any](id ir.Hash, pred, next Version[P]) string {
	switch {
	case next.Entity != id:
		return "belongs to another entity"
	case next.Prev != pred.Hash:
		return "prev does not match walked predecessor"
	case next.Revision.Author != pred.Revision.Author:
		return "author changed"
	case !Authorize(next.Editor, pred.Revision):
		return "written by a non-editor"
	}
	return ""
}

// load reads and decodes the record stored under hash. A record of another
// kind is reported as ir.ErrNotFound.
func (s *Store[P]) load(ctx context.Context, hash ir.Hash) (Version[P], error) {
	data, err := s.records.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, ir.ErrNotFound) {
			return Version[P]{}, err
		}
		return Version[P]{}, apperror.Wrap(apperror.StorageFailure, fmt.Sprintf("read record %s", hash.Short()), err)
	}
	header, err := ir.DecodeHeader(data)
	if err != nil {
		return Version[P]{}, apperror.Wrap(apperror.AppError, fmt.Sprintf("record %s", hash.Short()), err)
	}
	if header.Kind != s.kind {
		return Version[P]{}, fmt.Errorf("record %s has kind %q: %w", hash.Short(), header.Kind, ir.ErrNotFound)
	}
	rec, err := ir.DecodeRecord[P](data)
	if err != nil {
		return Version[P]{}, apperror.Wrap(apperror.AppError, fmt.Sprintf("record %s", hash.Short()), err)
	}
	return versionOf(hash, rec), nil
}

// write canonicalizes rec, stores it, and returns it as read back, so
// callers see exactly what later readers will see.
func (s *Store[P]) write(ctx context.Context, rec ir.Record[P]) (Version[P], error) {
	data, err := ir.Canonicalize(rec)
	if err != nil {
		return Version[P]{}, apperror.Wrap(apperror.ValidationError, "record is not canonicalizable", err)
	}
	hash, err := s.records.Put(ctx, data)
	if err != nil {
		return Version[P]{}, apperror.Wrap(apperror.StorageFailure, "write record", err)
	}
	stored, err := ir.DecodeRecord[P](data)
	if err != nil {
		return Version[P]{}, apperror.Wrap(apperror.AppError, "decode written record", err)
	}
	return versionOf(hash, stored), nil
}

func versionOf[P any](hash ir.Hash, rec ir.Record[P]) Version[P] {
	return Version[P]{
		Hash:     hash,
		Entity:   rec.Origin(hash),
		Prev:     rec.Prev,
		Editor:   rec.Editor,
		Revision: rec.Body,
	}
}

func (s *Store[P]) entity(id ir.Hash, v Version[P]) ir.Entity[P] {
	return ir.Entity[P]{ID: id, Head: v.Hash, Kind: s.kind, Content: v.Revision}
}
