// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort                = "8080"
	DefaultDBPath              = "discosync.db"
	DefaultDiscographyID       = "mayday"
	DefaultDispatchConcurrency = 4
	DefaultPollInterval        = 500 * time.Millisecond
	DefaultDispatchBatchSize   = 50
	DefaultMaxAttempts         = 5
	DefaultClaimLease          = 2 * time.Minute
	DefaultImportQuietPeriod   = 2 * time.Second
	DefaultShutdownTimeout     = 5 * time.Second
)

// Collections
const (
	SongsCollection         = "songs"
	SongMetadatasCollection = "songMetadatas"
	SongAlbumsCollection    = "songAlbums"
	AlbumsCollection        = "albums"
	DiscographiesCollection = "discos"
)

// WatchedCollections are the source collections whose writes trigger reconciliation.
var WatchedCollections = []string{
	SongsCollection,
	AlbumsCollection,
	SongAlbumsCollection,
}

// TrackMapField is the album field holding the sparse track map.
const TrackMapField = "songs"

// Read API
const (
	ScriptParam      = "script"
	ScriptSimplified = "hans"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)
