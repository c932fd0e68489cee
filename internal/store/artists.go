package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yuchenw/songvault/internal/domain"
)

// GetArtistByName looks an artist up by exact, case-sensitive name. Returns
// (nil, nil) when absent.
func (db *DB) GetArtistByName(name string) (*domain.Artist, error) {
	var artist domain.Artist
	err := db.q.Get(&artist, `SELECT * FROM artists WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// CreateArtist inserts the artist and fills in its generated id.
func (db *DB) CreateArtist(artist *domain.Artist) error {
	now := time.Now().UTC()
	artist.CreatedAt = now
	artist.UpdatedAt = now

	row := db.q.QueryRowx(
		`INSERT INTO artists (name, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		artist.Name, artist.ImageURL, artist.CreatedAt, artist.UpdatedAt,
	)
	if err := row.Scan(&artist.ID); err != nil {
		return fmt.Errorf("failed to create artist %q: %w", artist.Name, err)
	}
	return nil
}
