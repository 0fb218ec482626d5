package reconcile

import (
	"context"
	"strconv"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/domain"
	"github.com/cesargomez89/discosync/internal/store"
)

func albumKey(albumID string) store.Key {
	return store.Doc(constants.AlbumsCollection, albumID)
}

func trackPath(trackNum int) string {
	return store.FieldPath(constants.TrackMapField, strconv.Itoa(trackNum))
}

// readAlbum loads an album. A nil album with a nil error means it does not
// exist.
func (r *Reconciler) readAlbum(ctx context.Context, albumID string) (*domain.Album, error) {
	var album domain.Album
	ok, err := r.store.Get(ctx, albumKey(albumID), &album)
	if err != nil || !ok {
		return nil, err
	}
	return &album, nil
}

// writeSlot stages placing track at trackNum. Nothing is staged when the
// album does not exist.
func (r *Reconciler) writeSlot(ctx context.Context, albumID string, trackNum int, track domain.Track) (store.Fields, error) {
	album, err := r.readAlbum(ctx, albumID)
	if err != nil || album == nil {
		return nil, err
	}
	return store.Fields{trackPath(trackNum): track}, nil
}

// removeSlot stages clearing trackNum, but only while expectedSongID still
// occupies it. Another writer may have placed a different song there since
// the membership changed; that song must survive a stale remove.
func (r *Reconciler) removeSlot(ctx context.Context, albumID string, trackNum int, expectedSongID string) (store.Fields, error) {
	album, err := r.readAlbum(ctx, albumID)
	if err != nil || album == nil {
		return nil, err
	}
	fields := store.Fields{}
	clearSlot(fields, album, trackNum, expectedSongID)
	return fields, nil
}

// moveSlot stages a guarded clear of oldTrack and a write of newTrack on one
// album as a single update.
func (r *Reconciler) moveSlot(ctx context.Context, albumID string, oldTrack, newTrack int, track domain.Track) (store.Fields, error) {
	album, err := r.readAlbum(ctx, albumID)
	if err != nil || album == nil {
		return nil, err
	}
	fields := store.Fields{trackPath(newTrack): track}
	if oldTrack != newTrack {
		clearSlot(fields, album, oldTrack, track.ID)
	}
	return fields, nil
}

func clearSlot(fields store.Fields, album *domain.Album, trackNum int, expectedSongID string) {
	occupant := album.Occupant(trackNum)
	if occupant == "" || occupant != expectedSongID {
		return
	}
	fields[trackPath(trackNum)] = store.Delete
}
