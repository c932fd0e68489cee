package store

import (
	"fmt"
	"time"

	"github.com/yuchenw/songvault/internal/domain"
)

// CreateDownload appends one provenance record and fills in its generated
// id. The table is append-only; records are never updated or deleted.
func (db *DB) CreateDownload(d *domain.Download) error {
	if d.DownloadTime.IsZero() {
		d.DownloadTime = time.Now().UTC()
	}
	if d.Status == "" {
		d.Status = domain.DownloadStatusPending
	}

	row := db.q.QueryRowx(
		`INSERT INTO downloads (song_id, user_id, download_time, source_url, status)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		d.SongID, d.UserID, d.DownloadTime, d.SourceURL, d.Status,
	)
	if err := row.Scan(&d.ID); err != nil {
		return fmt.Errorf("failed to record download for song %d: %w", d.SongID, err)
	}
	return nil
}

// ListDownloads returns the most recent provenance records.
func (db *DB) ListDownloads(limit int) ([]*domain.Download, error) {
	var downloads []*domain.Download
	err := db.q.Select(&downloads,
		`SELECT * FROM downloads ORDER BY download_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return downloads, nil
}

// ListDownloadsByUser returns a user's provenance records, newest first.
func (db *DB) ListDownloadsByUser(userID int64, limit int) ([]*domain.Download, error) {
	var downloads []*domain.Download
	err := db.q.Select(&downloads,
		`SELECT * FROM downloads WHERE user_id = ? ORDER BY download_time DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	return downloads, nil
}
