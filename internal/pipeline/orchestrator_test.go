package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yuchenw/songvault/internal/assets"
	"github.com/yuchenw/songvault/internal/config"
	"github.com/yuchenw/songvault/internal/constants"
	"github.com/yuchenw/songvault/internal/httpclient"
	"github.com/yuchenw/songvault/internal/kugou"
	"github.com/yuchenw/songvault/internal/library"
	"github.com/yuchenw/songvault/internal/logger"
	"github.com/yuchenw/songvault/internal/store"
)

// vendorStub drives the fake vendor endpoints. Fields may be flipped per
// test to simulate partial failures.
type vendorStub struct {
	searchEmpty   bool
	playURL       atomic.Value // string, set after the server URL is known
	streamStatus  int
	streamPayload []byte
}

func (v *vendorStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(constants.SearchPath, func(w http.ResponseWriter, r *http.Request) {
		if v.searchEmpty {
			fmt.Fprint(w, `callback123({"data":{"lists":[]}})`)
			return
		}
		fmt.Fprint(w, `callback123({"data":{"lists":[{"FileName":"Test Song - Artist One","EMixSongID":"id1"}]}})`)
	})
	mux.HandleFunc(constants.SongInfoPath, func(w http.ResponseWriter, r *http.Request) {
		playURL, _ := v.playURL.Load().(string)
		fmt.Fprintf(w, `{"data":{
			"audio_name":"Test Song",
			"timelength":215000,
			"img":"",
			"album_name":"Test Album",
			"author_name":"Artist One、Artist Two",
			"lyrics":"[00:01.00]Hello",
			"play_url":%q
		}}`, playURL)
	})
	mux.HandleFunc("/cdn/stream.mp3", func(w http.ResponseWriter, r *http.Request) {
		if v.streamStatus != 0 {
			w.WriteHeader(v.streamStatus)
			return
		}
		w.Write(v.streamPayload)
	})
	return mux
}

func setupOrchestrator(t *testing.T, stub *vendorStub) (*Orchestrator, *store.DB) {
	t.Helper()
	dir := t.TempDir()

	db, err := store.NewSQLiteDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	if stub.playURL.Load() == nil {
		stub.playURL.Store(srv.URL + "/cdn/stream.mp3")
	}
	if stub.streamPayload == nil {
		stub.streamPayload = []byte("mp3-payload-bytes")
	}

	log := logger.Default()
	cfg := &config.Config{
		SearchBaseURL: srv.URL,
		InfoBaseURL:   srv.URL,
		Vendor:        config.VendorCredentials{SecretKey: "s", AppID: "1014", ClientVer: "20000", SearchVer: "1000"},
	}
	hc := httpclient.NewClient(srv.Client(), 0)
	vendor := kugou.NewClient(cfg, hc, log)
	fetcher := assets.NewFetcher(srv.Client(), db, filepath.Join(dir, "media"), log)
	catalog := library.NewService(db, fetcher, log)

	return NewOrchestrator(vendor, catalog, fetcher, db, 0, log), db
}

func TestAcquire_Success(t *testing.T) {
	stub := &vendorStub{}
	o, db := setupOrchestrator(t, stub)

	userID := int64(7)
	result := o.Acquire(context.Background(), "Test Song", &userID)

	if !result.Success {
		t.Fatalf("Expected success, got %+v", result)
	}
	if result.RunID == "" {
		t.Error("Expected a run id")
	}
	if !strings.HasPrefix(result.FilePath, constants.SongsDir+"/") {
		t.Errorf("Expected relative path under songs/, got %q", result.FilePath)
	}

	song, err := db.GetSongByName("Test Song")
	if err != nil || song == nil {
		t.Fatalf("Expected stored song, got %v / %v", song, err)
	}
	if song.Duration != 215 {
		t.Errorf("Expected duration 215, got %d", song.Duration)
	}
	if song.FilePath != result.FilePath {
		t.Errorf("Expected stored path %q, got %q", result.FilePath, song.FilePath)
	}
	if len(song.Artists) != 2 {
		t.Errorf("Expected 2 artists, got %+v", song.Artists)
	}
	// Completed transfer with a user: one provenance record, counter bumped.
	if song.DownloadCount != 1 {
		t.Errorf("Expected download count 1, got %d", song.DownloadCount)
	}
	downloads, _ := db.ListDownloadsByUser(userID, 10)
	if len(downloads) != 1 {
		t.Fatalf("Expected 1 provenance record, got %d", len(downloads))
	}
	if downloads[0].Status != "completed" {
		t.Errorf("Expected completed status, got %s", downloads[0].Status)
	}
}

func TestAcquire_AnonymousSkipsProvenance(t *testing.T) {
	stub := &vendorStub{}
	o, db := setupOrchestrator(t, stub)

	result := o.Acquire(context.Background(), "Test Song", nil)
	if !result.Success {
		t.Fatalf("Expected success, got %+v", result)
	}

	song, _ := db.GetSongByName("Test Song")
	if song.DownloadCount != 0 {
		t.Errorf("Expected no counter bump for anonymous run, got %d", song.DownloadCount)
	}
	downloads, _ := db.ListDownloads(10)
	if len(downloads) != 0 {
		t.Errorf("Expected no provenance records, got %d", len(downloads))
	}
}

func TestAcquire_NotFound(t *testing.T) {
	stub := &vendorStub{searchEmpty: true}
	o, db := setupOrchestrator(t, stub)

	userID := int64(7)
	result := o.Acquire(context.Background(), "No Such Song", &userID)

	if result.Success {
		t.Fatal("Expected failure")
	}
	if result.Kind != FailureNotFound {
		t.Errorf("Expected not_found kind, got %s", result.Kind)
	}
	if result.Message != "song not found" {
		t.Errorf("Unexpected message %q", result.Message)
	}

	// Nothing was written: no song row means no provenance either.
	song, _ := db.GetSongByName("No Such Song")
	if song != nil {
		t.Errorf("Expected no song row, got %+v", song)
	}
	downloads, _ := db.ListDownloads(10)
	if len(downloads) != 0 {
		t.Errorf("Expected no provenance records, got %d", len(downloads))
	}
}

func TestAcquire_URLResolutionFailure(t *testing.T) {
	stub := &vendorStub{}
	stub.playURL.Store("")
	o, db := setupOrchestrator(t, stub)

	userID := int64(7)
	result := o.Acquire(context.Background(), "Test Song", &userID)

	if result.Success {
		t.Fatal("Expected failure")
	}
	if result.Kind != FailureURLResolution {
		t.Errorf("Expected url_resolution_failed kind, got %s", result.Kind)
	}
	if result.Message != "failed to resolve download url" {
		t.Errorf("Unexpected message %q", result.Message)
	}

	// Metadata was already persisted, so the failed attempt is recorded.
	song, _ := db.GetSongByName("Test Song")
	if song == nil {
		t.Fatal("Expected persisted song row")
	}
	if song.FilePath != "" {
		t.Errorf("Expected no audio path, got %q", song.FilePath)
	}
	downloads, _ := db.ListDownloadsByUser(userID, 10)
	if len(downloads) != 1 || downloads[0].Status != "failed" {
		t.Errorf("Expected one failed provenance record, got %+v", downloads)
	}
	if song.DownloadCount != 0 {
		t.Errorf("Expected no counter bump on failure, got %d", song.DownloadCount)
	}
}

func TestAcquire_TransferFailure(t *testing.T) {
	stub := &vendorStub{streamStatus: http.StatusInternalServerError}
	o, db := setupOrchestrator(t, stub)

	userID := int64(7)
	result := o.Acquire(context.Background(), "Test Song", &userID)

	if result.Success {
		t.Fatal("Expected failure")
	}
	if result.Kind != FailureTransfer {
		t.Errorf("Expected download_failed kind, got %s", result.Kind)
	}

	song, _ := db.GetSongByName("Test Song")
	if song == nil || song.FilePath != "" {
		t.Fatalf("Expected song row without audio path, got %+v", song)
	}
	downloads, _ := db.ListDownloadsByUser(userID, 10)
	if len(downloads) != 1 || downloads[0].Status != "failed" {
		t.Errorf("Expected one failed provenance record, got %+v", downloads)
	}
}

func TestAcquire_CacheHit(t *testing.T) {
	stub := &vendorStub{}
	o, db := setupOrchestrator(t, stub)

	userID := int64(7)
	first := o.Acquire(context.Background(), "Test Song", &userID)
	if !first.Success {
		t.Fatalf("First acquisition failed: %+v", first)
	}

	second := o.Acquire(context.Background(), "Test Song", &userID)
	if !second.Success {
		t.Fatalf("Second acquisition failed: %+v", second)
	}
	if !strings.Contains(second.Message, "already available") {
		t.Errorf("Expected cache-hit message, got %q", second.Message)
	}
	if second.FilePath != first.FilePath {
		t.Errorf("Expected same path, got %q vs %q", first.FilePath, second.FilePath)
	}

	// The cache hit appends provenance but only a completed transfer moves
	// the counter.
	song, _ := db.GetSongByName("Test Song")
	if song.DownloadCount != 1 {
		t.Errorf("Expected download count to stay 1, got %d", song.DownloadCount)
	}
	downloads, _ := db.ListDownloadsByUser(userID, 10)
	if len(downloads) != 2 {
		t.Errorf("Expected 2 provenance records, got %d", len(downloads))
	}
}

func TestAcquire_PacingAbortFailsResolution(t *testing.T) {
	stub := &vendorStub{}
	o, _ := setupOrchestrator(t, stub)
	o.pacingDelay = constants.DefaultPacingDelay
	o.sleep = func(ctx context.Context, d time.Duration) error {
		if d != constants.DefaultPacingDelay {
			t.Errorf("Expected pacing delay %v, got %v", constants.DefaultPacingDelay, d)
		}
		return context.Canceled
	}

	result := o.Acquire(context.Background(), "Test Song", nil)
	if result.Success {
		t.Fatal("Expected failure when pacing is aborted")
	}
	if result.Kind != FailureURLResolution {
		t.Errorf("Expected url_resolution_failed kind, got %s", result.Kind)
	}
}

func TestSleepCtx(t *testing.T) {
	if err := sleepCtx(context.Background(), 0); err != nil {
		t.Errorf("Expected nil for zero delay, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Minute); err == nil {
		t.Error("Expected error for canceled context")
	}
}
