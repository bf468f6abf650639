package api

import (
	"net/http"
	"strings"
)

func ifMatch(r *http.Request) string {
	// Strip surrounding quotes if present (standard ETag format).
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

// ListSources handles GET /api/sources.
//
//	@Summary		List deck source files
//	@Tags			sources
//	@Produce		json
//	@Success		200	{object}	SourceListResponse
//	@Security		BearerAuth
//	@Router			/sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListSources(r.Context())
	if err != nil {
		writeServiceError(w, r, "list sources", err)
		return
	}
	writeJSON(w, http.StatusOK, SourceListResponse{Sources: list})
}

// GetSource handles GET /api/sources/*.
//
//	@Summary		Read a source file
//	@Tags			sources
//	@Produce		json
//	@Param			path	path		string	true	"Source path"
//	@Success		200		{object}	models.Source
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/{path} [get]
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	src, err := h.svc.GetSource(r.Context(), path)
	if err != nil {
		writeServiceError(w, r, "get source", err)
		return
	}
	w.Header().Set("ETag", `"`+src.Checksum+`"`)
	writeJSON(w, http.StatusOK, src)
}

// PutSource handles PUT /api/sources/*.
//
//	@Summary		Create or replace a source file with optimistic concurrency
//	@Tags			sources
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string				true	"Source path"
//	@Param			If-Match	header		string				false	"SHA-256 checksum of the current content"
//	@Param			body		body		PutSourceRequest	true	"New content"
//	@Success		200			{object}	models.Source
//	@Success		201			{object}	models.Source
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/{path} [put]
func (h *Handler) PutSource(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req PutSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	src, created, err := h.svc.PutSource(r.Context(), path, []byte(req.Content), ifMatch(r))
	if err != nil {
		writeServiceError(w, r, "put source", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("ETag", `"`+src.Checksum+`"`)
	writeJSON(w, status, src)
}

// DeleteSource handles DELETE /api/sources/*.
//
//	@Summary		Delete a source file and its cards
//	@Tags			sources
//	@Param			path		path	string	true	"Source path"
//	@Param			If-Match	header	string	false	"SHA-256 checksum of the current content"
//	@Success		204			"Source deleted"
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/{path} [delete]
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteSource(r.Context(), path, ifMatch(r)); err != nil {
		writeServiceError(w, r, "delete source", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveSource handles POST /api/sources/move.
//
//	@Summary		Rename a source file
//	@Tags			sources
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveSourceRequest	true	"Old and new path"
//	@Success		200		{object}	models.Source
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sources/move [post]
func (h *Handler) MoveSource(w http.ResponseWriter, r *http.Request) {
	var req MoveSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	src, err := h.svc.MoveSource(r.Context(), req.From, req.To)
	if err != nil {
		writeServiceError(w, r, "move source", err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}
