package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the API route tree. Static note routes are registered
// before the {id} parameter routes so "search" and friends never match as ids.
func NewRouter(h *Handler, auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	if auth != nil {
		r.Use(auth)
	}

	r.Route("/notes", func(r chi.Router) {
		r.Post("/", h.CreateNote)
		r.Get("/", h.ListNotes)
		r.Post("/from-template", h.CreateNoteFromTemplate)
		r.Get("/search", h.SearchNotes)
		r.Get("/most-linked", h.MostLinkedNotes)
		r.Post("/analyze", h.AnalyzeContent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Patch("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Get("/backlinks", h.GetBacklinks)
			r.Get("/links", h.GetOutgoingLinks)
		})
	})

	r.Get("/entities/{id}/backlinks", h.GetEntityBacklinks)
	r.Post("/tenants", h.RegisterTenant)

	return r
}
