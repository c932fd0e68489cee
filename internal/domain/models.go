// Package domain defines the entities the acquisition pipeline reads and writes.
package domain

import (
	"time"
)

// Artist identity is its exact name; artists are created lazily on first
// encounter and never deleted by the pipeline.
type Artist struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Album is scoped to exactly one artist; the same album name under two
// artists yields two rows.
type Album struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	ArtistID       int64     `json:"artist_id" db:"artist_id"`
	ReleaseYear    int       `json:"release_year" db:"release_year"`
	CoverImageURL  string    `json:"cover_image_url" db:"cover_image_url"`
	LocalCoverPath string    `json:"local_cover_path" db:"local_cover_path"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Song identity is (name, album_id). FilePath and LocalImagePath are always
// relative to the media root so the serving layer can resolve them.
type Song struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	AlbumID        int64     `json:"album_id" db:"album_id"`
	Duration       int       `json:"duration" db:"duration"` // seconds
	ImageURL       string    `json:"image_url" db:"image_url"`
	LocalImagePath string    `json:"local_image_path" db:"local_image_path"`
	FilePath       string    `json:"file_path" db:"file_path"`
	FileSize       int64     `json:"file_size" db:"file_size"`
	DownloadCount  int64     `json:"download_count" db:"download_count"`
	LikesCount     int64     `json:"likes_count" db:"likes_count"`
	Lyrics         Lyrics    `json:"lyrics" db:"lyrics"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	// Populated by the store on reads; not a column.
	Artists []Artist `json:"artists,omitempty" db:"-"`
}

// ArtistNames returns the names of all associated artists in order.
func (s *Song) ArtistNames() []string {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		names = append(names, a.Name)
	}
	return names
}

// DownloadStatus is the outcome recorded on a provenance record.
type DownloadStatus string

const (
	DownloadStatusPending   DownloadStatus = "pending"
	DownloadStatusCompleted DownloadStatus = "completed"
	DownloadStatusFailed    DownloadStatus = "failed"
)

// Download is an append-only provenance record: who downloaded which song,
// when, from what source, with what outcome.
type Download struct {
	ID           int64          `json:"id" db:"id"`
	SongID       int64          `json:"song_id" db:"song_id"`
	UserID       *int64         `json:"user_id,omitempty" db:"user_id"`
	DownloadTime time.Time      `json:"download_time" db:"download_time"`
	SourceURL    string         `json:"source_url" db:"source_url"`
	Status       DownloadStatus `json:"status" db:"status"`
}

// TrackMetadata is the resolved vendor record for one candidate, normalized
// for persistence: duration in whole seconds, artists split and trimmed,
// lyrics parsed into the structured form.
type TrackMetadata struct {
	CandidateID string
	Name        string
	Duration    int // seconds
	ImageURL    string
	AlbumName   string
	Artists     []string
	Lyrics      Lyrics
}
