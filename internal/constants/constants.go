// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort        = "8080"
	DefaultDBPath      = "songvault.db"
	DefaultMediaDir    = "static"
	DefaultHTTPTimeout = 10 * time.Second
	DefaultRetryCount  = 3
	DefaultRetryBase   = 1 * time.Second
)

// Vendor API defaults. The search and playback endpoints live on different
// hosts; both are overridable through configuration.
const (
	DefaultSearchBaseURL = "https://complexsearch.kugou.com"
	DefaultInfoBaseURL   = "https://wwwapi.kugou.com"

	SearchPath   = "/v2/search/song"
	SongInfoPath = "/play/songinfo"

	// The vendor validates signatures positionally, so these are part of the
	// wire contract, not tunables.
	SearchPageSize = "30"
	SearchPage     = "1"
	CallbackToken  = "callback123"
	MaxCandidates  = 8

	// Minimum spacing between metadata resolution and stream URL resolution,
	// required by vendor request pacing.
	DefaultPacingDelay = 2 * time.Second

	// Minimum interval between any two vendor requests.
	DefaultVendorInterval = 500 * time.Millisecond

	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"

	// Full-width separator used by the vendor for multi-artist strings.
	ArtistSeparator = "、"
)

// Fallbacks for metadata the vendor omits
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Local media layout, relative to the media root
const (
	SongsDir  = "songs"
	ImagesDir = "music_images"

	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtJPG  = ".jpg"
)

// Streaming download
const (
	DownloadChunkSize = 8 * 1024
)

// File permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Download endpoint rate limiting (per client key)
const (
	DefaultRateWindow = 10 * time.Second
	DefaultRateBurst  = 3
)
