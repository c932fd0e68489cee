// Package httpapp exposes the acquisition pipeline and catalog reads as a
// JSON API.
package httpapp

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yuchenw/songvault/internal/kugou"
	"github.com/yuchenw/songvault/internal/logger"
	"github.com/yuchenw/songvault/internal/pipeline"
	"github.com/yuchenw/songvault/internal/ratelimit"
	"github.com/yuchenw/songvault/internal/store"
)

type Handler struct {
	Orchestrator *pipeline.Orchestrator
	Vendor       *kugou.Client
	DB           *store.DB
	Limiter      *ratelimit.KeyedLimiter
	Log          *logger.Logger
}

func NewHandler(o *pipeline.Orchestrator, vendor *kugou.Client, db *store.DB, limiter *ratelimit.KeyedLimiter, log *logger.Logger) *Handler {
	return &Handler{
		Orchestrator: o,
		Vendor:       vendor,
		DB:           db,
		Limiter:      limiter,
		Log:          log.WithComponent("httpapp"),
	}
}

type downloadRequest struct {
	Song   string `json:"song"`
	UserID *int64 `json:"user_id"`
}

// Download runs one synchronous acquisition for the requested song name.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.Limiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "too many download requests, slow down")
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Song = strings.TrimSpace(req.Song)
	if req.Song == "" {
		writeError(w, http.StatusBadRequest, "song name is required")
		return
	}

	result := h.Orchestrator.Acquire(r.Context(), req.Song, req.UserID)
	writeJSON(w, statusFor(result), result)
}

type searchResult struct {
	CandidateID string   `json:"candidate_id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	Duration    int      `json:"duration"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// Search looks the query up in the vendor catalog and resolves metadata for
// each candidate. Candidates whose metadata cannot be resolved are skipped.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	candidates, err := h.Vendor.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusNotFound, "song not found")
		return
	}

	results := make([]searchResult, 0, len(candidates))
	for _, c := range candidates {
		meta, err := h.Vendor.SongInfo(r.Context(), c.AudioID)
		if err != nil {
			h.Log.Warn("candidate metadata skipped", "audio_id", c.AudioID, "error", err)
			continue
		}
		results = append(results, searchResult{
			CandidateID: c.AudioID,
			Name:        meta.Name,
			Artists:     meta.Artists,
			Album:       meta.AlbumName,
			Duration:    meta.Duration,
			ImageURL:    meta.ImageURL,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GetSong returns one catalog song with its artist list.
func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	song, err := h.DB.GetSongByID(id)
	if err != nil {
		h.Log.Error("song lookup failed", "song_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load song")
		return
	}
	if song == nil {
		writeError(w, http.StatusNotFound, "song not found")
		return
	}

	writeJSON(w, http.StatusOK, song)
}

// GetLyrics returns the stored structured lyrics for a song.
func (h *Handler) GetLyrics(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	song, err := h.DB.GetSongByID(id)
	if err != nil {
		h.Log.Error("song lookup failed", "song_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load song")
		return
	}
	if song == nil {
		writeError(w, http.StatusNotFound, "song not found")
		return
	}

	writeJSON(w, http.StatusOK, song.Lyrics)
}

// History lists download provenance records, newest first. An optional
// user_id query parameter narrows the list to one user.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var (
		downloads any
		err       error
	)
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		downloads, err = h.DB.ListDownloadsByUser(userID, limit)
	} else {
		downloads, err = h.DB.ListDownloads(limit)
	}
	if err != nil {
		h.Log.Error("history lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load downloads")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"downloads": downloads})
}

// statusFor maps an acquisition outcome to an HTTP status.
func statusFor(result pipeline.Result) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Kind {
	case pipeline.FailureNotFound:
		return http.StatusNotFound
	case pipeline.FailurePersist:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// clientKey identifies a client for rate limiting by its remote IP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
