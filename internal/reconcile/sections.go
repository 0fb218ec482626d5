package reconcile

import (
	"context"

	"github.com/cesargomez89/discosync/internal/domain"
)

// readDiscography loads the catalog's discography. A nil result with a nil
// error means the aggregate does not exist.
func (r *Reconciler) readDiscography(ctx context.Context, h *run) *domain.Discography {
	var disco domain.Discography
	ok, err := r.store.Get(ctx, r.discographyKey(), &disco)
	if err != nil {
		h.fail(r.discographyKey(), "Failed to read discography", err)
		return nil
	}
	if !ok {
		h.skip("Discography does not exist", "discography_id", r.opts.DiscographyID)
		return nil
	}
	return &disco
}

func (r *Reconciler) writeDiscography(ctx context.Context, h *run, disco *domain.Discography) {
	if err := r.store.Set(ctx, r.discographyKey(), disco); err != nil {
		h.fail(r.discographyKey(), "Failed to write discography", err)
	}
}

// AlbumCreated lists the album in the section for its type, creating the
// section when needed. Albums without a type stay out of the discography.
func (r *Reconciler) AlbumCreated(ctx context.Context, albumID string, album domain.Album) {
	ctx, h := r.start(ctx, "album_created", albumID)
	defer h.end()

	album.ID = albumID
	if album.Type == "" {
		h.skip("Album has no type", "album_id", albumID)
		return
	}

	disco := r.readDiscography(ctx, h)
	if disco == nil {
		return
	}

	// A redelivered create finds the summary already listed.
	summary := album.Summary()
	for i := range disco.Sections {
		if disco.Sections[i].Type == album.Type {
			continue
		}
		if old, ok := disco.Sections[i].TakeAlbum(albumID); ok {
			summary.Extra = old.Extra
		}
	}
	section := disco.EnsureSection(album.Type)
	if i := section.AlbumIndex(albumID); i >= 0 {
		summary.Extra = section.Albums[i].Extra
		section.Albums[i] = summary
	} else {
		section.Albums = append(section.Albums, summary)
	}

	r.writeDiscography(ctx, h, disco)
}

// AlbumUpdated refreshes the album's summary and moves it to the section
// for its new type.
func (r *Reconciler) AlbumUpdated(ctx context.Context, albumID string, before, after domain.Album) {
	ctx, h := r.start(ctx, "album_updated", albumID)
	defer h.end()

	if domain.AlbumSummaryEqual(before, after) {
		h.skip("Album summary unchanged", "album_id", albumID)
		return
	}

	disco := r.readDiscography(ctx, h)
	if disco == nil {
		return
	}

	var moved domain.AlbumMetadata
	if before.Type != after.Type {
		if i := disco.SectionIndex(before.Type); i >= 0 {
			moved, _ = disco.Sections[i].TakeAlbum(albumID)
		}
	}

	if after.Type != "" {
		after.ID = albumID
		section := disco.EnsureSection(after.Type)
		if i := section.AlbumIndex(albumID); i >= 0 {
			refreshSummary(&section.Albums[i], after)
		} else {
			summary := after.Summary()
			summary.Extra = moved.Extra
			section.Albums = append(section.Albums, summary)
		}
	}

	r.writeDiscography(ctx, h, disco)
}

// refreshSummary updates a listed summary in place. Disabled is only
// written when the summary already carries it: summaries listed before the
// field existed keep their shape.
func refreshSummary(meta *domain.AlbumMetadata, album domain.Album) {
	title := album.Title
	meta.Title = &title
	meta.ReleaseDate = album.ReleaseDate
	if meta.Disabled != nil {
		disabled := album.Disabled
		meta.Disabled = &disabled
	}
}

// AlbumDeleted removes the album's summary from the section for its type.
// Nothing is written when the summary is not listed there.
func (r *Reconciler) AlbumDeleted(ctx context.Context, albumID string, album domain.Album) {
	ctx, h := r.start(ctx, "album_deleted", albumID)
	defer h.end()

	disco := r.readDiscography(ctx, h)
	if disco == nil {
		return
	}

	i := disco.SectionIndex(album.Type)
	if i < 0 {
		h.skip("No section for album type", "album_id", albumID, "type", album.Type)
		return
	}
	if !disco.Sections[i].RemoveAlbum(albumID) {
		h.skip("Album not listed in its section", "album_id", albumID)
		return
	}

	r.writeDiscography(ctx, h, disco)
}
