package httpapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yuchenw/songvault/internal/domain"
	"github.com/yuchenw/songvault/internal/logger"
	"github.com/yuchenw/songvault/internal/pipeline"
	"github.com/yuchenw/songvault/internal/ratelimit"
	"github.com/yuchenw/songvault/internal/store"
)

func setupRouter(t *testing.T, burst int) (chi.Router, *store.DB) {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewHandler(nil, nil, db, ratelimit.New(10*time.Second, burst), logger.Default())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, db
}

func seedSong(t *testing.T, db *store.DB) *domain.Song {
	t.Helper()
	artist := &domain.Artist{Name: "Artist"}
	if err := db.CreateArtist(artist); err != nil {
		t.Fatal(err)
	}
	album := &domain.Album{Name: "Album", ArtistID: artist.ID}
	if err := db.CreateAlbum(album); err != nil {
		t.Fatal(err)
	}
	song := &domain.Song{
		Name:    "Song",
		AlbumID: album.ID,
		Lyrics:  domain.ParseLyrics("[00:01.00]Hello"),
	}
	if err := db.CreateSong(song); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceSongArtists(song.ID, []int64{artist.ID}); err != nil {
		t.Fatal(err)
	}
	return song
}

func TestDownload_InvalidBody(t *testing.T) {
	r, _ := setupRouter(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestDownload_MissingSongName(t *testing.T) {
	r, _ := setupRouter(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader(`{"song":"  "}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestDownload_RateLimited(t *testing.T) {
	r, _ := setupRouter(t, 1)

	// First request consumes the budget; it stops at validation, but the
	// rate limit slot is already spent.
	req := httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodPost, "/api/download", strings.NewReader("{}"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
}

func TestGetSong(t *testing.T) {
	r, db := setupRouter(t, 10)
	song := seedSong(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/"+itoa(song.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got domain.Song
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ID != song.ID || got.Name != "Song" {
		t.Errorf("Unexpected song: %+v", got)
	}
	if len(got.Artists) != 1 || got.Artists[0].Name != "Artist" {
		t.Errorf("Expected artist list, got %+v", got.Artists)
	}
}

func TestGetSong_NotFound(t *testing.T) {
	r, _ := setupRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetSong_InvalidID(t *testing.T) {
	r, _ := setupRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestGetLyrics(t *testing.T) {
	r, db := setupRouter(t, 10)
	song := seedSong(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/"+itoa(song.ID)+"/lyrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var lyrics domain.Lyrics
	if err := json.NewDecoder(w.Body).Decode(&lyrics); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(lyrics.Lines) != 1 || lyrics.Lines[0].Text != "Hello" {
		t.Errorf("Unexpected lyrics: %+v", lyrics)
	}
}

func TestHistory(t *testing.T) {
	r, db := setupRouter(t, 10)
	song := seedSong(t, db)

	userID := int64(7)
	for _, d := range []*domain.Download{
		{SongID: song.ID, UserID: &userID, SourceURL: "http://a", Status: domain.DownloadStatusCompleted},
		{SongID: song.ID, SourceURL: "http://b", Status: domain.DownloadStatusFailed},
	} {
		if err := db.CreateDownload(d); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/downloads", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Downloads []domain.Download `json:"downloads"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(body.Downloads) != 2 {
		t.Errorf("Expected 2 records, got %d", len(body.Downloads))
	}

	// Narrowed to one user.
	req = httptest.NewRequest(http.MethodGet, "/api/downloads?user_id=7", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(body.Downloads) != 1 {
		t.Errorf("Expected 1 record for user 7, got %d", len(body.Downloads))
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		result pipeline.Result
		want   int
	}{
		{pipeline.Result{Success: true}, http.StatusOK},
		{pipeline.Result{Kind: pipeline.FailureNotFound}, http.StatusNotFound},
		{pipeline.Result{Kind: pipeline.FailurePersist}, http.StatusInternalServerError},
		{pipeline.Result{Kind: pipeline.FailureTransfer}, http.StatusBadGateway},
		{pipeline.Result{Kind: pipeline.FailureURLResolution}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		if got := statusFor(tt.result); got != tt.want {
			t.Errorf("statusFor(%+v) = %d, want %d", tt.result, got, tt.want)
		}
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	if got := clientKey(req); got != "10.1.2.3" {
		t.Errorf("Expected 10.1.2.3, got %s", got)
	}

	req.RemoteAddr = "bare-host"
	if got := clientKey(req); got != "bare-host" {
		t.Errorf("Expected bare-host fallback, got %s", got)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
