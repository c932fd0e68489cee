// Package library reconciles resolved vendor metadata against the local
// catalog entities.
package library

import (
	"context"
	"fmt"

	"github.com/yuchenw/songvault/internal/domain"
	"github.com/yuchenw/songvault/internal/logger"
	"github.com/yuchenw/songvault/internal/store"
)

// CoverCache stores a remote image locally and returns the relative path.
// Failures are non-fatal to an upsert; the remote URL stays authoritative.
type CoverCache interface {
	SaveImage(ctx context.Context, imageURL, name string) (string, error)
}

// Service applies at-most-once creation semantics for artists, albums and
// songs, inside one all-or-nothing unit of work per upsert.
type Service struct {
	db     *store.DB
	covers CoverCache
	log    *logger.Logger
}

func NewService(db *store.DB, covers CoverCache, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		covers: covers,
		log:    log.WithComponent("library"),
	}
}

// Upsert persists the resolved metadata transactionally:
//
//  1. Each artist is looked up by exact name and created if absent; the
//     remote cover image is attached only to the first (primary) artist so
//     art is never attributed to featured artists.
//  2. The album is keyed by (name, primary artist); on creation the cover
//     image is cached locally, best-effort.
//  3. The song is keyed by (name, album); on re-encounter the fresher
//     duration/image/lyrics overwrite the stored values while an existing
//     local audio path is left untouched.
//  4. The song's artist set is reassigned to exactly the resolved list.
//
// Any persistence error rolls the whole unit of work back.
func (s *Service) Upsert(ctx context.Context, meta *domain.TrackMetadata) (*domain.Song, error) {
	if meta == nil || meta.Name == "" {
		return nil, fmt.Errorf("upsert: metadata has no track name")
	}
	if len(meta.Artists) == 0 {
		return nil, fmt.Errorf("upsert: metadata has no artists")
	}

	var song *domain.Song
	err := s.db.RunInTx(ctx, func(tx *store.DB) error {
		artists := make([]*domain.Artist, 0, len(meta.Artists))
		for i, name := range meta.Artists {
			artist, err := tx.GetArtistByName(name)
			if err != nil {
				return fmt.Errorf("artist lookup %q: %w", name, err)
			}
			if artist == nil {
				artist = &domain.Artist{Name: name}
				if i == 0 {
					artist.ImageURL = meta.ImageURL
				}
				if err := tx.CreateArtist(artist); err != nil {
					return err
				}
				s.log.Debug("created artist", "name", name, "id", artist.ID)
			}
			artists = append(artists, artist)
		}
		primary := artists[0]

		album, err := tx.GetAlbumByNameArtist(meta.AlbumName, primary.ID)
		if err != nil {
			return fmt.Errorf("album lookup %q: %w", meta.AlbumName, err)
		}
		if album == nil {
			album = &domain.Album{
				Name:          meta.AlbumName,
				ArtistID:      primary.ID,
				CoverImageURL: meta.ImageURL,
			}
			album.LocalCoverPath = s.cacheCover(ctx, meta)
			if err := tx.CreateAlbum(album); err != nil {
				return err
			}
			s.log.Debug("created album", "name", album.Name, "id", album.ID)
		}

		song, err = tx.GetSongByNameAlbum(meta.Name, album.ID)
		if err != nil {
			return fmt.Errorf("song lookup %q: %w", meta.Name, err)
		}
		if song == nil {
			song = &domain.Song{
				Name:     meta.Name,
				AlbumID:  album.ID,
				Duration: meta.Duration,
				ImageURL: meta.ImageURL,
				Lyrics:   meta.Lyrics,
			}
			if err := tx.CreateSong(song); err != nil {
				return err
			}
			s.log.Debug("created song", "name", song.Name, "id", song.ID)
		} else {
			if err := tx.UpdateSongMetadata(song.ID, meta.Duration, meta.ImageURL, meta.Lyrics); err != nil {
				return err
			}
			song.Duration = meta.Duration
			song.ImageURL = meta.ImageURL
			song.Lyrics = meta.Lyrics
		}

		ids := make([]int64, len(artists))
		for i, a := range artists {
			ids[i] = a.ID
		}
		if err := tx.ReplaceSongArtists(song.ID, ids); err != nil {
			return err
		}

		song.Artists = make([]domain.Artist, len(artists))
		for i, a := range artists {
			song.Artists[i] = *a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return song, nil
}

// cacheCover fetches the remote cover to local storage. A miss only costs
// the local copy.
func (s *Service) cacheCover(ctx context.Context, meta *domain.TrackMetadata) string {
	if s.covers == nil || meta.ImageURL == "" {
		return ""
	}
	localPath, err := s.covers.SaveImage(ctx, meta.ImageURL, meta.AlbumName)
	if err != nil {
		s.log.Warn("cover cache failed", "album", meta.AlbumName, "error", err)
		return ""
	}
	return localPath
}
