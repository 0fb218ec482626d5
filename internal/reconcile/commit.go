package reconcile

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cesargomez89/discosync/internal/metrics"
	"github.com/cesargomez89/discosync/internal/store"
)

// slotOp computes the field-level update for one album. It reads the album
// first, so ops for different albums run concurrently.
type slotOp struct {
	albumID string
	stage   func(ctx context.Context) (store.Fields, error)
}

// commitAttempts bounds how often a batch is re-staged after an album it
// addressed was deleted before the commit.
const commitAttempts = 2

// commitSlotOps runs every op, waits until all of them have resolved, and
// commits the staged updates as one batch. An op that fails is logged and
// contributes nothing; the others still commit. When nothing was staged no
// batch is committed. An album deleted between its read and the commit
// would fail the whole batch, so the ops are staged again; the vanished
// album then stages nothing and the rest still apply.
func (h *run) commitSlotOps(ctx context.Context, ops []slotOp) {
	sort.Slice(ops, func(i, j int) bool { return ops[i].albumID < ops[j].albumID })

	for attempt := 1; ; attempt++ {
		batch, n := h.stageSlotOps(ctx, ops)
		if n == 0 {
			h.skip("No track slots to update")
			return
		}

		err := batch.Commit(ctx)
		if err == nil {
			metrics.BatchCommitsTotal.WithLabelValues(h.handler).Inc()
			return
		}
		if errors.Is(err, store.ErrNotFound) && attempt < commitAttempts {
			h.r.logger.Debug("Album vanished before commit, restaging", "handler", h.handler, "error", err)
			continue
		}
		h.fail(albumKey(ops[0].albumID), "Failed to commit track slot batch", err)
		return
	}
}

// stageSlotOps resolves every op concurrently and stages the results in a
// new batch. It returns the batch and the number of albums staged.
func (h *run) stageSlotOps(ctx context.Context, ops []slotOp) (Batch, int) {
	staged := make([]store.Fields, len(ops))
	errs := make([]error, len(ops))
	var g errgroup.Group
	for i, op := range ops {
		g.Go(func() error {
			staged[i], errs[i] = op.stage(ctx)
			return errs[i]
		})
	}
	_ = g.Wait() // every op is reported below

	batch := h.r.store.NewBatch()
	n := 0
	for i, fields := range staged {
		if errs[i] != nil {
			h.fail(albumKey(ops[i].albumID), "Failed to read album", errs[i])
			continue
		}
		if len(fields) == 0 {
			continue
		}
		batch.Update(albumKey(ops[i].albumID), fields)
		n++
	}
	return batch, n
}
