// Package pipeline sequences the acquisition steps: search, metadata
// resolution, catalog upsert, pacing delay, asset fetch and provenance
// recording. It is the only unit the rest of the application calls.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yuchenw/songvault/internal/assets"
	"github.com/yuchenw/songvault/internal/domain"
	"github.com/yuchenw/songvault/internal/kugou"
	"github.com/yuchenw/songvault/internal/library"
	"github.com/yuchenw/songvault/internal/logger"
	"github.com/yuchenw/songvault/internal/store"
	"github.com/yuchenw/songvault/internal/tagging"
)

// State names the stage an acquisition run is in. Runs move strictly
// forward; any stage can fall to StateFailed.
type State string

const (
	StateSearching           State = "searching"
	StateResolving           State = "resolving"
	StatePersisting          State = "persisting"
	StateAwaitingPacingDelay State = "awaiting_pacing_delay"
	StateFetchingAsset       State = "fetching_asset"
	StateRecordingProvenance State = "recording_provenance"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// Result is the outcome reported to the caller. Kind is set only on
// failure and names the stage that stopped the run.
type Result struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Kind     FailureKind  `json:"kind,omitempty"`
	Song     *domain.Song `json:"song,omitempty"`
	FilePath string       `json:"file_path,omitempty"`
	RunID    string       `json:"run_id"`
}

// Orchestrator runs one acquisition synchronously to completion. Steps fail
// fast; the only resilience behavior is the fixed pacing delay before stream
// URL resolution.
type Orchestrator struct {
	vendor  *kugou.Client
	library *library.Service
	fetcher *assets.Fetcher
	db      *store.DB
	log     *logger.Logger

	pacingDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(vendor *kugou.Client, lib *library.Service, fetcher *assets.Fetcher, db *store.DB, pacingDelay time.Duration, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		vendor:      vendor,
		library:     lib,
		fetcher:     fetcher,
		db:          db,
		log:         log.WithComponent("pipeline"),
		pacingDelay: pacingDelay,
		sleep:       sleepCtx,
	}
}

// Acquire locates songName in the vendor catalog, reconciles its metadata
// into the local catalog and downloads the audio payload. With a user
// context it also appends one provenance record per attempt; the song's
// download counter increments only on a completed transfer.
func (o *Orchestrator) Acquire(ctx context.Context, songName string, userID *int64) Result {
	runID := uuid.NewString()
	log := o.log.WithRun(runID, songName)

	log.Info("acquisition started", "state", StateSearching)
	candidates, err := o.vendor.Search(ctx, songName)
	if err != nil {
		return o.fail(log, runID, FailureNotFound, err, nil, userID, "")
	}
	best := candidates[0]
	log.Info("candidate selected", "file_name", best.FileName, "audio_id", best.AudioID)

	log.Debug("resolving metadata", "state", StateResolving)
	meta, err := o.vendor.SongInfo(ctx, best.AudioID)
	if err != nil {
		return o.fail(log, runID, FailureMetadata, err, nil, userID, "")
	}

	log.Debug("persisting metadata", "state", StatePersisting)
	song, err := o.library.Upsert(ctx, meta)
	if err != nil {
		return o.fail(log, runID, FailurePersist, err, nil, userID, "")
	}
	log = log.WithSong(song.ID, song.Name)

	// Cache hit: the asset is already on disk. Report success without
	// re-fetching; still append provenance, but the download counter only
	// moves on completed transfers.
	if o.fetcher.Exists(song.FilePath) {
		o.recordProvenance(log, song, userID, song.FilePath, domain.DownloadStatusCompleted)
		log.Info("acquisition served from cache", "state", StateDone, "path", song.FilePath)
		return Result{
			Success:  true,
			Message:  fmt.Sprintf("file already available at: %s", song.FilePath),
			Song:     song,
			FilePath: song.FilePath,
			RunID:    runID,
		}
	}

	log.Debug("pacing before url resolution", "state", StateAwaitingPacingDelay, "delay", o.pacingDelay)
	if err := o.sleep(ctx, o.pacingDelay); err != nil {
		return o.fail(log, runID, FailureURLResolution, err, song, userID, "")
	}

	streamURL, err := o.vendor.PlayURL(ctx, best.AudioID)
	if err != nil {
		return o.fail(log, runID, FailureURLResolution, err, song, userID, "")
	}

	log.Info("fetching asset", "state", StateFetchingAsset)
	relPath, err := o.fetcher.FetchAudio(ctx, streamURL, best.FileName, song)
	if err != nil {
		return o.fail(log, runID, FailureTransfer, err, song, userID, streamURL)
	}

	o.finishAsset(ctx, log, meta, song, relPath)

	log.Debug("recording provenance", "state", StateRecordingProvenance)
	if userID != nil {
		o.recordProvenance(log, song, userID, streamURL, domain.DownloadStatusCompleted)
		if err := o.db.IncrementDownloadCount(song.ID); err != nil {
			log.Warn("download counter update failed", "error", err)
		} else {
			song.DownloadCount++
		}
	}

	log.Info("acquisition completed", "state", StateDone, "path", relPath)
	return Result{
		Success:  true,
		Message:  fmt.Sprintf("file saved to: %s", relPath),
		Song:     song,
		FilePath: relPath,
		RunID:    runID,
	}
}

// finishAsset caches the cover image for the song and tags the audio file.
// Both are best-effort: the transfer already succeeded.
func (o *Orchestrator) finishAsset(ctx context.Context, log *logger.Logger, meta *domain.TrackMetadata, song *domain.Song, relPath string) {
	var art []byte
	if meta.ImageURL != "" {
		localImg, err := o.fetcher.SaveImage(ctx, meta.ImageURL, meta.Name)
		if err != nil {
			log.Warn("song image cache failed", "error", err)
		} else if err := o.db.SetSongLocalImage(song.ID, localImg); err != nil {
			log.Warn("song image path update failed", "error", err)
		} else {
			song.LocalImagePath = localImg
			art, _ = o.fetcher.ReadLocal(localImg)
		}
	}

	if err := tagging.TagFile(o.fetcher.AbsPath(relPath), meta, art); err != nil {
		log.Warn("tagging failed", "error", err)
	}
}

// fail logs the failure, appends a failed provenance record when a song row
// exists to reference, and shapes the user-facing result.
func (o *Orchestrator) fail(log *logger.Logger, runID string, kind FailureKind, cause error, song *domain.Song, userID *int64, sourceURL string) Result {
	stepErr := &StepError{Kind: kind, Err: cause}
	log.Error("acquisition failed", "state", StateFailed, "error", stepErr)

	if song != nil {
		o.recordProvenance(log, song, userID, sourceURL, domain.DownloadStatusFailed)
	}

	return Result{
		Success: false,
		Message: kind.Message(),
		Kind:    kind,
		RunID:   runID,
	}
}

// recordProvenance appends one Download record when a user context is
// present. Provenance failures never override the acquisition outcome.
func (o *Orchestrator) recordProvenance(log *logger.Logger, song *domain.Song, userID *int64, sourceURL string, status domain.DownloadStatus) {
	if userID == nil {
		return
	}
	d := &domain.Download{
		SongID:    song.ID,
		UserID:    userID,
		SourceURL: sourceURL,
		Status:    status,
	}
	if err := o.db.CreateDownload(d); err != nil {
		log.Warn("provenance record failed", "error", err)
	}
}

// sleepCtx blocks for d without freezing the process, honoring cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
