package domain

// TitlesEqual compares every component of two titles.
func TitlesEqual(a, b Title) bool {
	return a.English == b.English &&
		a.Chinese.Traditional == b.Chinese.Traditional &&
		a.Chinese.Pinyin == b.Chinese.Pinyin &&
		a.Chinese.English == b.Chinese.English
}

// SongSummaryEqual reports whether two versions of a song agree on the fields
// carried into albums. When true, no propagation is needed.
func SongSummaryEqual(before, after Song) bool {
	return before.Disabled == after.Disabled && TitlesEqual(before.Title, after.Title)
}

// AlbumSummaryEqual reports whether two versions of an album agree on the
// fields that shape the discography.
func AlbumSummaryEqual(before, after Album) bool {
	return before.Type == after.Type &&
		before.ReleaseDate == after.ReleaseDate &&
		before.Disabled == after.Disabled &&
		TitlesEqual(before.Title, after.Title)
}
