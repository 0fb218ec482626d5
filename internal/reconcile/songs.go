package reconcile

import (
	"context"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/domain"
	"github.com/cesargomez89/discosync/internal/store"
)

// SongCreated writes the song's metadata projection and places its summary
// in every album its membership lists.
func (r *Reconciler) SongCreated(ctx context.Context, songID string, song domain.Song) {
	ctx, h := r.start(ctx, "song_created", songID)
	defer h.end()

	r.propagateSong(ctx, h, songID, song)
}

// SongUpdated re-propagates the song when its title or disabled flag
// changed. Any other edit, lyric and credit edits included, writes nothing.
func (r *Reconciler) SongUpdated(ctx context.Context, songID string, before, after domain.Song) {
	ctx, h := r.start(ctx, "song_updated", songID)
	defer h.end()

	if domain.SongSummaryEqual(before, after) {
		h.skip("Song summary unchanged", "song_id", songID)
		return
	}
	r.propagateSong(ctx, h, songID, after)
}

// SongDeleted leaves derived records alone unless cascading is enabled, in
// which case the metadata and membership records are deleted. The membership
// delete is itself a change and clears the album slots when dispatched.
func (r *Reconciler) SongDeleted(ctx context.Context, songID string, _ domain.Song) {
	ctx, h := r.start(ctx, "song_deleted", songID)
	defer h.end()

	if !r.opts.CascadeSongDelete {
		h.skip("Song delete does not cascade", "song_id", songID)
		return
	}

	for _, key := range []store.Key{
		store.Doc(constants.SongMetadatasCollection, songID),
		store.Doc(constants.SongAlbumsCollection, songID),
	} {
		if err := r.store.Delete(ctx, key); err != nil {
			h.fail(key, "Failed to delete derived record", err)
		}
	}
}

func (r *Reconciler) propagateSong(ctx context.Context, h *run, songID string, song domain.Song) {
	metaKey := store.Doc(constants.SongMetadatasCollection, songID)
	if err := r.store.SetMerge(ctx, metaKey, song.Metadata(songID)); err != nil {
		h.fail(metaKey, "Failed to write song metadata", err)
	}

	var membership domain.Membership
	memberKey := store.Doc(constants.SongAlbumsCollection, songID)
	ok, err := r.store.Get(ctx, memberKey, &membership)
	if err != nil {
		h.fail(memberKey, "Failed to read membership", err)
		return
	}
	if !ok || len(membership) == 0 {
		return
	}

	track := song.Summary(songID)
	ops := make([]slotOp, 0, len(membership))
	for albumID, trackNum := range membership {
		ops = append(ops, slotOp{albumID: albumID, stage: func(ctx context.Context) (store.Fields, error) {
			return r.writeSlot(ctx, albumID, trackNum, track)
		}})
	}
	h.commitSlotOps(ctx, ops)
}
