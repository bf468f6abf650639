package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListStudies handles GET /api/studies.
//
//	@Summary		List studies, newest first
//	@Tags			studies
//	@Produce		json
//	@Success		200	{object}	StudyListResponse
//	@Security		BearerAuth
//	@Router			/studies [get]
func (h *Handler) ListStudies(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListStudies(r.Context())
	if err != nil {
		writeServiceError(w, r, "list studies", err)
		return
	}
	writeJSON(w, http.StatusOK, StudyListResponse{Studies: list})
}

// CreateStudy handles POST /api/studies.
//
//	@Summary		Create a study over a card selection
//	@Tags			studies
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateStudyRequest	true	"Study to create"
//	@Success		201		{object}	deckservice.StudyView
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/studies [post]
func (h *Handler) CreateStudy(w http.ResponseWriter, r *http.Request) {
	var req CreateStudyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.svc.CreateStudy(r.Context(), req.Name, req.CardIDs)
	if err != nil {
		writeServiceError(w, r, "create study", err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetStudy handles GET /api/studies/{id}.
//
//	@Summary		Get a study with its selection summary
//	@Tags			studies
//	@Produce		json
//	@Param			id	path		string	true	"Study ID"
//	@Success		200	{object}	deckservice.StudyView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/studies/{id} [get]
func (h *Handler) GetStudy(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStudy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "get study", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteStudy handles DELETE /api/studies/{id}.
//
//	@Summary		Delete a study
//	@Tags			studies
//	@Param			id	path	string	true	"Study ID"
//	@Success		204	"Study deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/studies/{id} [delete]
func (h *Handler) DeleteStudy(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteStudy(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, "delete study", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReviewCard handles POST /api/studies/{id}/reviews.
//
//	@Summary		Rate one card of a study
//	@Tags			studies
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Study ID"
//	@Param			body	body		ReviewRequest	true	"Card and rating"
//	@Success		200		{object}	deckservice.StudyView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/studies/{id}/reviews [post]
func (h *Handler) ReviewCard(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.svc.ReviewCard(r.Context(), chi.URLParam(r, "id"), req.CardID, req.Rating)
	if err != nil {
		writeServiceError(w, r, "review card", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// FinishStudy handles POST /api/studies/{id}/finish.
//
//	@Summary		Mark a study as finished
//	@Tags			studies
//	@Produce		json
//	@Param			id	path		string	true	"Study ID"
//	@Success		200	{object}	deckservice.StudyView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/studies/{id}/finish [post]
func (h *Handler) FinishStudy(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.FinishStudy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "finish study", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
