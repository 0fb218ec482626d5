package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/metrics"
	"github.com/cesargomez89/discosync/internal/store"
)

// ChangeSource is the change outbox the worker drains.
type ChangeSource interface {
	ClaimChanges(ctx context.Context, limit int, lease time.Duration) ([]*store.Change, error)
	AckChange(ctx context.Context, id string) error
	ReleaseChange(ctx context.Context, id string) error
	ResetClaims(ctx context.Context) error
}

// Worker polls the change outbox and hands each change to the dispatcher.
// Changes to the same record run one after another in capture order;
// changes to different records run concurrently up to MaxConcurrent.
type Worker struct {
	ctx           context.Context
	Source        ChangeSource
	Dispatcher    *Dispatcher
	Logger        *logger.Logger
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	MaxConcurrent int
	PollInterval  time.Duration
	BatchSize     int
	MaxAttempts   int
	Lease         time.Duration
}

func NewWorker(source ChangeSource, d *Dispatcher, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Worker{
		Source:        source,
		Dispatcher:    d,
		Logger:        log.WithComponent("dispatcher"),
		MaxConcurrent: constants.DefaultDispatchConcurrency,
		PollInterval:  constants.DefaultPollInterval,
		BatchSize:     constants.DefaultDispatchBatchSize,
		MaxAttempts:   constants.DefaultMaxAttempts,
		Lease:         constants.DefaultClaimLease,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (w *Worker) Start() {
	w.Logger.Info("Starting dispatcher", "concurrency", w.MaxConcurrent, "poll_interval", w.PollInterval)

	if err := w.Source.ResetClaims(w.ctx); err != nil {
		w.Logger.Error("Failed to reset claimed changes", "error", err)
	}

	w.wg.Add(1)
	go w.processChanges()
}

func (w *Worker) Stop() {
	w.Logger.Info("Stopping dispatcher")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) processChanges() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			// Keep draining while full batches come back.
			for {
				n, err := w.ProcessBatch(w.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						w.Logger.Error("Failed to claim changes", "error", err)
					}
					break
				}
				if n < w.BatchSize {
					break
				}
			}
		}
	}
}

// ProcessBatch claims one batch of changes, handles it and returns the
// number of changes claimed.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	changes, err := w.Source.ClaimChanges(ctx, w.BatchSize, w.Lease)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}

	var groups [][]*store.Change
	index := make(map[store.Key]int)
	for _, c := range changes {
		key := store.Doc(c.Collection, c.DocID)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}

	limit := w.MaxConcurrent
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for _, group := range groups {
		sem <- struct{}{}
		wg.Add(1)
		go func(group []*store.Change) {
			defer wg.Done()
			defer func() { <-sem }()
			for _, c := range group {
				w.runChange(ctx, c)
			}
		}(group)
	}
	wg.Wait()

	return len(changes), nil
}

func (w *Worker) runChange(ctx context.Context, c *store.Change) {
	log := w.Logger.WithRecord(c.Collection, c.DocID).WithChange(c.ID, string(c.Kind))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling change", "panic", r)
			w.retry(ctx, c, log)
		}
	}()

	err := w.Dispatcher.Dispatch(ctx, c, log)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownCollection):
		log.Warn("Dropping change for unhandled collection")
	default:
		log.Error("Failed to handle change", "attempt", c.Attempts, "error", err)
		w.retry(ctx, c, log)
		return
	}

	if err := w.Source.AckChange(ctx, c.ID); err != nil {
		log.Error("Failed to acknowledge change", "error", err)
	}
}

// retry releases the change for redelivery, or drops it once it has used
// up its attempts.
func (w *Worker) retry(ctx context.Context, c *store.Change, log *logger.Logger) {
	if w.MaxAttempts > 0 && c.Attempts >= w.MaxAttempts {
		log.Error("Dropping change after max attempts", "attempts", c.Attempts)
		metrics.DroppedChangesTotal.Inc()
		if err := w.Source.AckChange(ctx, c.ID); err != nil {
			log.Error("Failed to drop change", "error", err)
		}
		return
	}
	if err := w.Source.ReleaseChange(ctx, c.ID); err != nil {
		log.Error("Failed to release change", "error", err)
	}
}
