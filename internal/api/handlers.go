package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flashdeck/internal/deckservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *deckservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *deckservice.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts the trailing wildcard of the URL. Supports encoded
// slashes from OpenAPI clients (e.g. math%2Falgebra.typ).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListTags handles GET /api/tags.
//
//	@Summary		Get the tag forest
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagTreeResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TagTreeResponse{Tags: h.svc.Tree(r.Context())})
}

// GetTag handles GET /api/tags/*.
//
//	@Summary		Get a tag by full path
//	@Tags			tags
//	@Produce		json
//	@Param			path	path		string	true	"Dotted tag path"
//	@Success		200		{object}	deckservice.TagDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/{path} [get]
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	tag, err := h.svc.GetTag(r.Context(), path)
	if err != nil {
		writeServiceError(w, r, "get tag", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// ListCards handles GET /api/cards.
//
//	@Summary		List cards with optional tag filter and pagination
//	@Tags			cards
//	@Produce		json
//	@Param			tag		query		string	false	"Only cards under this tag"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	CardListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	cards, total, err := h.svc.ListCards(r.Context(), q.Get("tag"), limit, offset)
	if err != nil {
		writeServiceError(w, r, "list cards", err)
		return
	}
	writeJSON(w, http.StatusOK, CardListResponse{Cards: cards, Total: total})
}

// GetCard handles GET /api/cards/{id}.
//
//	@Summary		Get a card by ID
//	@Tags			cards
//	@Produce		json
//	@Param			id	path		string	true	"Card ID"
//	@Success		200	{object}	deckservice.CardDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{id} [get]
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.svc.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "get card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across cards
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Summarize handles POST /api/summary.
//
//	@Summary		Condense a card selection into tags and cards
//	@Tags			summary
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SummaryRequest	true	"Selected card IDs"
//	@Success		200		{object}	deckservice.Summary
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/summary [post]
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Summarize(r.Context(), req.CardIDs))
}

// Reload handles POST /api/reload.
//
//	@Summary		Re-scan the deck directory and rebuild the hierarchy
//	@Tags			deck
//	@Produce		json
//	@Success		200	{object}	deckservice.ReloadResult
//	@Security		BearerAuth
//	@Router			/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reload(r.Context())
	if err != nil {
		writeServiceError(w, r, "reload", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
