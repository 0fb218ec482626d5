package domain

// ChineseTitle holds the Chinese variants of a title.
type ChineseTitle struct {
	Traditional string `json:"zht"`
	Pinyin      string `json:"zhp"`
	English     string `json:"eng"`
}

// Title is the display title of a song or album.
type Title struct {
	English string       `json:"english"`
	Chinese ChineseTitle `json:"chinese"`
}

// LineType classifies a lyric line
type LineType string

const (
	LineTypeLyric LineType = "lyric"
	LineTypeBreak LineType = "break"
	LineTypeText  LineType = "text"
)

// Line is a single line of a song's lyrics.
type Line struct {
	Type        LineType `json:"type"`
	Text        string   `json:"text,omitempty"`
	Traditional string   `json:"zht,omitempty"`
	Pinyin      string   `json:"zhp,omitempty"`
	English     string   `json:"eng,omitempty"`
}

// Song is the normalized master record for a song, stored in the songs collection.
type Song struct {
	ID       string `json:"id"`
	Title    Title  `json:"title"`
	Lyricist string `json:"lyricist"`
	Composer string `json:"composer"`
	Arranger string `json:"arranger"`
	Disabled bool   `json:"disabled"`
	Lyrics   []Line `json:"lyrics,omitempty"`
}

// SongMetadata is the lyric-free projection of a Song kept for standalone lookup.
type SongMetadata struct {
	ID       string `json:"id"`
	Title    Title  `json:"title"`
	Lyricist string `json:"lyricist"`
	Composer string `json:"composer"`
	Arranger string `json:"arranger"`
	Disabled bool   `json:"disabled"`
}

// Membership maps album id to the track number a song occupies in that album.
// It is stored in the songAlbums collection under the song's id.
type Membership map[string]int

// Track is the summary of a song placed in an album's track map.
type Track struct {
	ID       string `json:"id"`
	Title    Title  `json:"title"`
	Disabled bool   `json:"disabled"`
}

// Album is a release. Songs is sparse: track numbers need not be contiguous.
type Album struct {
	ID          string        `json:"id"`
	Type        AlbumType     `json:"type,omitempty"`
	Title       Title         `json:"title"`
	ReleaseDate string        `json:"releaseDate,omitempty"`
	Disabled    bool          `json:"disabled"`
	Songs       map[int]Track `json:"songs,omitempty"`
}

// AlbumMetadata is an album summary listed in a discography section.
// Title and Disabled are pointers because summaries written before those
// fields existed must round-trip without gaining them.
type AlbumMetadata struct {
	ID          string `json:"id"`
	Title       *Title `json:"title,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Disabled    *bool  `json:"disabled,omitempty"`
	Extra       Extra  `json:"-"`
}

// Section groups album summaries sharing one album type.
type Section struct {
	Type   AlbumType       `json:"type"`
	Label  string          `json:"label,omitempty"`
	Albums []AlbumMetadata `json:"albums"`
	Extra  Extra           `json:"-"`
}

// Discography is the per-catalog aggregate of album sections.
type Discography struct {
	ID       string    `json:"id"`
	ArtistID string    `json:"artistId,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Extra    Extra     `json:"-"`
}
