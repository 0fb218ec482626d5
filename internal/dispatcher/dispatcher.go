// Package dispatcher delivers captured changes to the reconcilers.
package dispatcher

import (
	"context"
	"errors"

	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/metrics"
	"github.com/cesargomez89/discosync/internal/store"
)

var ErrUnknownCollection = errors.New("no handler for collection")

// Handler reacts to one captured change. A returned error means the change
// could not be interpreted and should be delivered again.
type Handler interface {
	Handle(ctx context.Context, change *store.Change, log *logger.Logger) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, change *store.Change, log *logger.Logger) error

func (f HandlerFunc) Handle(ctx context.Context, change *store.Change, log *logger.Logger) error {
	return f(ctx, change, log)
}

// Dispatcher routes changes to handlers by collection.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
	}
}

func (d *Dispatcher) Register(collection string, handler Handler) {
	d.handlers[collection] = handler
}

func (d *Dispatcher) Dispatch(ctx context.Context, change *store.Change, log *logger.Logger) error {
	handler, ok := d.handlers[change.Collection]
	if !ok {
		return ErrUnknownCollection
	}
	metrics.DispatchChangesTotal.WithLabelValues(change.Collection, string(change.Kind)).Inc()
	return handler.Handle(ctx, change, log)
}
