package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/domain"
	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/store"
)

// Reconciler is the set of propagation handlers changes are routed to.
type Reconciler interface {
	SongCreated(ctx context.Context, songID string, song domain.Song)
	SongUpdated(ctx context.Context, songID string, before, after domain.Song)
	SongDeleted(ctx context.Context, songID string, song domain.Song)

	AlbumCreated(ctx context.Context, albumID string, album domain.Album)
	AlbumUpdated(ctx context.Context, albumID string, before, after domain.Album)
	AlbumDeleted(ctx context.Context, albumID string, album domain.Album)

	MembershipCreated(ctx context.Context, songID string, m domain.Membership)
	MembershipUpdated(ctx context.Context, songID string, before, after domain.Membership)
	MembershipDeleted(ctx context.Context, songID string, m domain.Membership)
}

// RegisterReconciler routes the watched collections to r.
func (d *Dispatcher) RegisterReconciler(r Reconciler) {
	d.Register(constants.SongsCollection, route(r.SongCreated, r.SongUpdated, r.SongDeleted))
	d.Register(constants.AlbumsCollection, route(r.AlbumCreated, r.AlbumUpdated, r.AlbumDeleted))
	d.Register(constants.SongAlbumsCollection, route(r.MembershipCreated, r.MembershipUpdated, r.MembershipDeleted))
}

func route[T any](
	created func(context.Context, string, T),
	updated func(context.Context, string, T, T),
	deleted func(context.Context, string, T),
) HandlerFunc {
	return func(ctx context.Context, c *store.Change, log *logger.Logger) error {
		var before, after T
		if err := decode(c.Before, &before); err != nil {
			return fmt.Errorf("failed to decode before image: %w", err)
		}
		if err := decode(c.After, &after); err != nil {
			return fmt.Errorf("failed to decode after image: %w", err)
		}

		switch c.Kind {
		case store.ChangeCreate:
			created(ctx, c.DocID, after)
		case store.ChangeUpdate:
			updated(ctx, c.DocID, before, after)
		case store.ChangeDelete:
			deleted(ctx, c.DocID, before)
		default:
			log.Warn("Ignoring change of unknown kind")
		}
		return nil
	}
}

func decode(data []byte, v any) error {
	if data == nil {
		return nil
	}
	return json.Unmarshal(data, v)
}
