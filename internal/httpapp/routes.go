package httpapp

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/download", h.Download)
		r.Get("/search", h.Search)
		r.Get("/songs/{id}", h.GetSong)
		r.Get("/songs/{id}/lyrics", h.GetLyrics)
		r.Get("/downloads", h.History)
	})
}
