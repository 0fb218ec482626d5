// Package reconcile keeps the denormalized catalog views consistent with
// their source records.
//
// Every handler is invoked once per observed change of a source record, may
// be invoked again for the same change, and runs concurrently with handlers
// for unrelated records. There are no multi-record transactions: handlers
// read what they need, compute the minimal set of derived writes, and issue
// them through the record store. Failures are logged and swallowed; the next
// delivery or the next write to the same record converges the views.
package reconcile

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/metrics"
	"github.com/cesargomez89/discosync/internal/store"
)

// RecordStore is the document store the reconcilers read and write.
type RecordStore interface {
	Get(ctx context.Context, key store.Key, dest any) (bool, error)
	Set(ctx context.Context, key store.Key, v any) error
	SetMerge(ctx context.Context, key store.Key, v any) error
	Delete(ctx context.Context, key store.Key) error
	NewBatch() Batch
}

// Batch stages field-level updates across records and commits them together.
type Batch interface {
	Update(key store.Key, fields store.Fields)
	Commit(ctx context.Context) error
}

type dbStore struct {
	*store.DB
}

func (s dbStore) NewBatch() Batch {
	return s.DB.Batch()
}

// Store adapts the SQLite document store to RecordStore.
func Store(db *store.DB) RecordStore {
	return dbStore{DB: db}
}

// Options configures a Reconciler.
type Options struct {
	// DiscographyID is the id of the catalog's discography aggregate.
	DiscographyID string
	// CascadeSongDelete deletes a song's metadata and membership records
	// when the song itself is deleted.
	CascadeSongDelete bool
}

// Reconciler holds the propagation handlers for songs, albums and
// memberships.
type Reconciler struct {
	store  RecordStore
	logger *logger.Logger
	tracer trace.Tracer
	opts   Options
}

func New(rs RecordStore, log *logger.Logger, opts Options) *Reconciler {
	if opts.DiscographyID == "" {
		opts.DiscographyID = constants.DefaultDiscographyID
	}
	return &Reconciler{
		store:  rs,
		logger: log.WithComponent("reconcile"),
		tracer: otel.Tracer("github.com/cesargomez89/discosync/internal/reconcile"),
		opts:   opts,
	}
}

func (r *Reconciler) discographyKey() store.Key {
	return store.Doc(constants.DiscographiesCollection, r.opts.DiscographyID)
}

// run scopes one handler invocation: a span, and a single outcome counted
// when it returns.
type run struct {
	r       *Reconciler
	handler string
	span    trace.Span
	outcome string
}

func (r *Reconciler) start(ctx context.Context, handler, id string) (context.Context, *run) {
	ctx, span := r.tracer.Start(ctx, "reconcile."+handler,
		trace.WithAttributes(attribute.String("record.id", id)))
	return ctx, &run{r: r, handler: handler, span: span, outcome: metrics.OutcomeApplied}
}

func (h *run) skip(reason string, args ...any) {
	if h.outcome == metrics.OutcomeApplied {
		h.outcome = metrics.OutcomeSkipped
	}
	h.r.logger.Debug(reason, append([]any{"handler", h.handler}, args...)...)
}

// fail logs a store failure against the record it concerns. The handler
// carries on with whatever work is independent of the failed operation.
func (h *run) fail(key store.Key, msg string, err error) {
	h.outcome = metrics.OutcomeError
	h.span.RecordError(err)
	h.span.SetStatus(codes.Error, msg)
	h.r.logger.WithRecord(key.Collection, key.ID).Error(msg, "handler", h.handler, "error", err)
}

func (h *run) end() {
	metrics.ReconcileTotal.WithLabelValues(h.handler, h.outcome).Inc()
	h.span.End()
}
