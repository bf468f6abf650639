package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flashdeck/internal/deckservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *deckservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Hierarchy.
	r.Get("/tags", h.ListTags)
	r.Get("/tags/*", h.GetTag)
	r.Get("/cards", h.ListCards)
	r.Get("/cards/{id}", h.GetCard)
	r.Get("/search", h.Search)
	r.Post("/summary", h.Summarize)
	r.Post("/reload", h.Reload)

	// Studies.
	r.Route("/studies", func(r chi.Router) {
		r.Get("/", h.ListStudies)
		r.Post("/", h.CreateStudy)
		r.Get("/{id}", h.GetStudy)
		r.Delete("/{id}", h.DeleteStudy)
		r.Post("/{id}/reviews", h.ReviewCard)
		r.Post("/{id}/finish", h.FinishStudy)
	})

	// Source files.
	r.Get("/sources", h.ListSources)
	r.Post("/sources/move", h.MoveSource)
	r.Get("/sources/*", h.GetSource)
	r.Put("/sources/*", h.PutSource)
	r.Delete("/sources/*", h.DeleteSource)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
