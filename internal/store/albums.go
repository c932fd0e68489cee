package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yuchenw/songvault/internal/domain"
)

// GetAlbumByNameArtist looks an album up by its natural key (name, owning
// artist). Returns (nil, nil) when absent.
func (db *DB) GetAlbumByNameArtist(name string, artistID int64) (*domain.Album, error) {
	var album domain.Album
	err := db.q.Get(&album, `SELECT * FROM albums WHERE name = ? AND artist_id = ?`, name, artistID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// CreateAlbum inserts the album and fills in its generated id.
func (db *DB) CreateAlbum(album *domain.Album) error {
	now := time.Now().UTC()
	album.CreatedAt = now
	album.UpdatedAt = now

	row := db.q.QueryRowx(
		`INSERT INTO albums (name, artist_id, release_year, cover_image_url, local_cover_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		album.Name, album.ArtistID, album.ReleaseYear, album.CoverImageURL, album.LocalCoverPath,
		album.CreatedAt, album.UpdatedAt,
	)
	if err := row.Scan(&album.ID); err != nil {
		return fmt.Errorf("failed to create album %q: %w", album.Name, err)
	}
	return nil
}

// SetAlbumLocalCover records the locally cached cover path.
func (db *DB) SetAlbumLocalCover(albumID int64, localPath string) error {
	_, err := db.q.Exec(
		`UPDATE albums SET local_cover_path = ?, updated_at = ? WHERE id = ?`,
		localPath, time.Now().UTC(), albumID,
	)
	return err
}
