// Package assets streams vendor payloads to local storage under the media
// root and keeps the database's relative paths in sync.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuchenw/songvault/internal/constants"
	"github.com/yuchenw/songvault/internal/domain"
	"github.com/yuchenw/songvault/internal/logger"
	"github.com/yuchenw/songvault/internal/store"
)

// Fetcher downloads audio and image payloads. Audio is streamed in fixed
// 8 KiB chunks and the song row is updated only after the transfer completes
// fully, so a mid-body failure never leaves a path to an incomplete file.
type Fetcher struct {
	client   *http.Client
	db       *store.DB
	mediaDir string
	log      *logger.Logger
}

func NewFetcher(client *http.Client, db *store.DB, mediaDir string, log *logger.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}
	return &Fetcher{
		client:   client,
		db:       db,
		mediaDir: mediaDir,
		log:      log.WithComponent("assets"),
	}
}

// Sanitize keeps only letters, digits, spaces, hyphens and underscores, then
// trims surrounding whitespace. A name with nothing left becomes "untitled".
func Sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return -1
	}, s)
	mapped = strings.TrimSpace(mapped)
	if mapped == "" {
		return "untitled"
	}
	return mapped
}

// FetchAudio streams the resolved URL to the songs directory under the media
// root, records the byte count, and persists the relative path and size onto
// the song. A name collision silently overwrites; concurrent writers race on
// last-writer-wins semantics, which is accepted for this domain.
func (f *Fetcher) FetchAudio(ctx context.Context, streamURL, displayName string, song *domain.Song) (string, error) {
	dir := filepath.Join(f.mediaDir, constants.SongsDir)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return "", fmt.Errorf("failed to create songs directory: %w", err)
	}

	fileName := Sanitize(displayName) + audioExt(streamURL)
	fullPath := filepath.Join(dir, fileName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("audio transfer failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio transfer failed: %s", resp.Status)
	}

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	written, err := io.CopyBuffer(out, resp.Body, make([]byte, constants.DownloadChunkSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Incomplete payload: drop the partial file, leave the DB untouched.
		os.Remove(fullPath)
		return "", fmt.Errorf("audio transfer aborted: %w", err)
	}

	relPath := path.Join(constants.SongsDir, fileName)
	if err := f.db.UpdateSongFile(song.ID, relPath, written); err != nil {
		return "", fmt.Errorf("failed to record audio file: %w", err)
	}
	song.FilePath = relPath
	song.FileSize = written

	f.log.Info("audio stored", "song_id", song.ID, "path", relPath, "bytes", written)
	return relPath, nil
}

// SaveImage downloads a cover image into the images directory and returns
// its relative path. Small payloads, no streaming needed.
func (f *Fetcher) SaveImage(ctx context.Context, imageURL, name string) (string, error) {
	dir := filepath.Join(f.mediaDir, constants.ImagesDir)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("image fetch failed: %w", err)
	}

	fileName := "cover_" + Sanitize(name) + constants.ExtJPG
	if err := os.WriteFile(filepath.Join(dir, fileName), data, constants.FilePermissions); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return path.Join(constants.ImagesDir, fileName), nil
}

// ReadLocal reads a media file by its stored relative path.
func (f *Fetcher) ReadLocal(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(f.mediaDir, filepath.FromSlash(relPath)))
}

// Exists reports whether a stored relative path still resolves to a file.
func (f *Fetcher) Exists(relPath string) bool {
	if relPath == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(f.mediaDir, filepath.FromSlash(relPath)))
	return err == nil && !info.IsDir()
}

// AbsPath resolves a stored relative path against the media root.
func (f *Fetcher) AbsPath(relPath string) string {
	return filepath.Join(f.mediaDir, filepath.FromSlash(relPath))
}

// audioExt derives the file extension from the resolved URL path, defaulting
// to .mp3 when the URL carries none we can tag.
func audioExt(streamURL string) string {
	u, err := url.Parse(streamURL)
	if err != nil {
		return constants.ExtMP3
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case constants.ExtFLAC:
		return constants.ExtFLAC
	default:
		return constants.ExtMP3
	}
}
