package reconcile

import (
	"context"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/domain"
	"github.com/cesargomez89/discosync/internal/store"
)

// readSong loads a song. A nil song with a nil error means it does not exist.
func (r *Reconciler) readSong(ctx context.Context, songID string) (*domain.Song, error) {
	var song domain.Song
	ok, err := r.store.Get(ctx, store.Doc(constants.SongsCollection, songID), &song)
	if err != nil || !ok {
		return nil, err
	}
	return &song, nil
}

// MembershipCreated places the song into every album slot the new
// membership lists.
func (r *Reconciler) MembershipCreated(ctx context.Context, songID string, m domain.Membership) {
	ctx, h := r.start(ctx, "membership_created", songID)
	defer h.end()

	song, err := r.readSong(ctx, songID)
	if err != nil {
		h.fail(store.Doc(constants.SongsCollection, songID), "Failed to read song", err)
		return
	}
	if song == nil {
		h.skip("Membership references a missing song", "song_id", songID)
		return
	}

	track := song.Summary(songID)
	ops := make([]slotOp, 0, len(m))
	for albumID, trackNum := range m {
		ops = append(ops, slotOp{albumID: albumID, stage: func(ctx context.Context) (store.Fields, error) {
			return r.writeSlot(ctx, albumID, trackNum, track)
		}})
	}
	h.commitSlotOps(ctx, ops)
}

// MembershipUpdated moves, adds and clears track slots so the albums match
// the new membership. Albums whose track number did not change are left
// alone.
func (r *Reconciler) MembershipUpdated(ctx context.Context, songID string, before, after domain.Membership) {
	ctx, h := r.start(ctx, "membership_updated", songID)
	defer h.end()

	song, err := r.readSong(ctx, songID)
	if err != nil {
		h.fail(store.Doc(constants.SongsCollection, songID), "Failed to read song", err)
		return
	}
	if song == nil {
		h.skip("Membership references a missing song", "song_id", songID)
		return
	}

	track := song.Summary(songID)
	var ops []slotOp

	for albumID, newTrack := range after {
		oldTrack, listed := before[albumID]
		switch {
		case !listed:
			ops = append(ops, slotOp{albumID: albumID, stage: func(ctx context.Context) (store.Fields, error) {
				return r.writeSlot(ctx, albumID, newTrack, track)
			}})
		case oldTrack != newTrack:
			ops = append(ops, slotOp{albumID: albumID, stage: func(ctx context.Context) (store.Fields, error) {
				return r.moveSlot(ctx, albumID, oldTrack, newTrack, track)
			}})
		}
	}

	for albumID, oldTrack := range before {
		if _, kept := after[albumID]; kept {
			continue
		}
		ops = append(ops, slotOp{albumID: albumID, stage: func(ctx context.Context) (store.Fields, error) {
			return r.removeSlot(ctx, albumID, oldTrack, songID)
		}})
	}

	if len(ops) == 0 {
		h.skip("Membership unchanged", "song_id", songID)
		return
	}
	h.commitSlotOps(ctx, ops)
}

// MembershipDeleted clears every slot the deleted membership listed, where
// the song still occupies it.
func (r *Reconciler) MembershipDeleted(ctx context.Context, songID string, m domain.Membership) {
	ctx, h := r.start(ctx, "membership_deleted", songID)
	defer h.end()

	ops := make([]slotOp, 0, len(m))
	for albumID, trackNum := range m {
		ops = append(ops, slotOp{albumID: albumID, stage: func(ctx context.Context) (store.Fields, error) {
			return r.removeSlot(ctx, albumID, trackNum, songID)
		}})
	}
	h.commitSlotOps(ctx, ops)
}
