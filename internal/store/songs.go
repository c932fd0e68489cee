package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yuchenw/songvault/internal/domain"
)

// GetSongByNameAlbum looks a song up by its natural key (name, album).
// Returns (nil, nil) when absent.
func (db *DB) GetSongByNameAlbum(name string, albumID int64) (*domain.Song, error) {
	var song domain.Song
	err := db.q.Get(&song, `SELECT * FROM songs WHERE name = ? AND album_id = ?`, name, albumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// GetSongByID fetches a song with its artist associations. Returns
// (nil, nil) when absent.
func (db *DB) GetSongByID(id int64) (*domain.Song, error) {
	var song domain.Song
	err := db.q.Get(&song, `SELECT * FROM songs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	artists, err := db.GetSongArtists(id)
	if err != nil {
		return nil, err
	}
	song.Artists = artists
	return &song, nil
}

// GetSongByName returns the most recently updated song with the given name,
// with artist associations, or (nil, nil) when absent.
func (db *DB) GetSongByName(name string) (*domain.Song, error) {
	var song domain.Song
	err := db.q.Get(&song, `SELECT * FROM songs WHERE name = ? ORDER BY updated_at DESC LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	artists, err := db.GetSongArtists(song.ID)
	if err != nil {
		return nil, err
	}
	song.Artists = artists
	return &song, nil
}

// CreateSong inserts the song and fills in its generated id.
func (db *DB) CreateSong(song *domain.Song) error {
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now

	row := db.q.QueryRowx(
		`INSERT INTO songs (name, album_id, duration, image_url, local_image_path, file_path, file_size,
			download_count, likes_count, lyrics, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		song.Name, song.AlbumID, song.Duration, song.ImageURL, song.LocalImagePath,
		song.FilePath, song.FileSize, song.DownloadCount, song.LikesCount, song.Lyrics,
		song.CreatedAt, song.UpdatedAt,
	)
	if err := row.Scan(&song.ID); err != nil {
		return fmt.Errorf("failed to create song %q: %w", song.Name, err)
	}
	return nil
}

// UpdateSongMetadata overwrites the re-resolvable fields with fresher
// values. The audio file path is deliberately not touched here.
func (db *DB) UpdateSongMetadata(id int64, duration int, imageURL string, lyrics domain.Lyrics) error {
	_, err := db.q.Exec(
		`UPDATE songs SET duration = ?, image_url = ?, lyrics = ?, updated_at = ? WHERE id = ?`,
		duration, imageURL, lyrics, time.Now().UTC(), id,
	)
	return err
}

// UpdateSongFile records the completed transfer: relative path and byte count.
func (db *DB) UpdateSongFile(id int64, relPath string, size int64) error {
	result, err := db.q.Exec(
		`UPDATE songs SET file_path = ?, file_size = ?, updated_at = ? WHERE id = ?`,
		relPath, size, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("song with id %d not found", id)
	}
	return nil
}

// SetSongLocalImage records the locally cached image path.
func (db *DB) SetSongLocalImage(id int64, localPath string) error {
	_, err := db.q.Exec(
		`UPDATE songs SET local_image_path = ?, updated_at = ? WHERE id = ?`,
		localPath, time.Now().UTC(), id,
	)
	return err
}

// IncrementDownloadCount bumps the monotonic download counter by one.
func (db *DB) IncrementDownloadCount(id int64) error {
	_, err := db.q.Exec(
		`UPDATE songs SET download_count = download_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	return err
}

// ReplaceSongArtists reassigns the song's artist set to exactly the given
// ids, preserving their order.
func (db *DB) ReplaceSongArtists(songID int64, artistIDs []int64) error {
	if _, err := db.q.Exec(`DELETE FROM song_artists WHERE song_id = ?`, songID); err != nil {
		return err
	}
	now := time.Now().UTC()
	for i, artistID := range artistIDs {
		if _, err := db.q.Exec(
			`INSERT INTO song_artists (song_id, artist_id, position, created_at) VALUES (?, ?, ?, ?)`,
			songID, artistID, i, now,
		); err != nil {
			return err
		}
	}
	return nil
}

// GetSongArtists returns the song's artists in association order.
func (db *DB) GetSongArtists(songID int64) ([]domain.Artist, error) {
	var artists []domain.Artist
	err := db.q.Select(&artists,
		`SELECT a.* FROM artists a
		 JOIN song_artists sa ON sa.artist_id = a.id
		 WHERE sa.song_id = ?
		 ORDER BY sa.position ASC`, songID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return artists, nil
}
