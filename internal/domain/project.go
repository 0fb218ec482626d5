package domain

// Metadata projects the song onto its standalone metadata record.
func (s Song) Metadata(id string) SongMetadata {
	return SongMetadata{
		ID:       id,
		Title:    s.Title,
		Lyricist: s.Lyricist,
		Composer: s.Composer,
		Arranger: s.Arranger,
		Disabled: s.Disabled,
	}
}

// Summary returns the track summary placed into album track maps.
func (s Song) Summary(id string) Track {
	return Track{
		ID:       id,
		Title:    s.Title,
		Disabled: s.Disabled,
	}
}

// Summary returns the album summary listed in a discography section.
func (a Album) Summary() AlbumMetadata {
	title := a.Title
	disabled := a.Disabled
	return AlbumMetadata{
		ID:          a.ID,
		Title:       &title,
		ReleaseDate: a.ReleaseDate,
		Disabled:    &disabled,
	}
}

// Occupant returns the id of the song at the given track number, or "" if
// the slot is empty.
func (a Album) Occupant(trackNum int) string {
	if a.Songs == nil {
		return ""
	}
	t, ok := a.Songs[trackNum]
	if !ok {
		return ""
	}
	return t.ID
}
