package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/flashdeck/internal/deckservice"
	"github.com/starford/flashdeck/internal/index"
	"github.com/starford/flashdeck/internal/models"
)

// SummaryRequest is the request body for summarizing a selection.
type SummaryRequest struct {
	CardIDs []string `json:"card_ids" example:"c1,c2" validate:"required"`
}

// Validate checks the request.
func (r *SummaryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CardIDs, validation.NotNil, validation.Each(validation.Required)),
	)
}

// CreateStudyRequest is the request body for creating a study.
type CreateStudyRequest struct {
	Name    string   `json:"name" example:"Algebra exam" validate:"required"`
	CardIDs []string `json:"card_ids" example:"c1,c2" validate:"required"`
}

// Validate checks the request.
func (r *CreateStudyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.CardIDs, validation.Required, validation.Each(validation.Required)),
	)
}

// ReviewRequest is the request body for rating one card of a study.
type ReviewRequest struct {
	CardID string `json:"card_id" example:"c1" validate:"required"`
	Rating string `json:"rating" example:"Good" validate:"required"`
}

// Validate checks the request.
func (r *ReviewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CardID, validation.Required),
		validation.Field(&r.Rating, validation.Required),
	)
}

// PutSourceRequest is the request body for writing a source file.
type PutSourceRequest struct {
	Content string `json:"content" example:"#card(\"c1\", \"Name\", (\"tag\",))" validate:"required"`
}

// Validate checks the request. Empty content is allowed and yields a source
// without cards.
func (r *PutSourceRequest) Validate() error { return nil }

// MoveSourceRequest is the request body for renaming a source file.
type MoveSourceRequest struct {
	From string `json:"from" example:"algebra.typ" validate:"required"`
	To   string `json:"to" example:"math/algebra.typ" validate:"required"`
}

// Validate checks the request.
func (r *MoveSourceRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required),
	)
}

// TagTreeResponse wraps the tag forest.
type TagTreeResponse struct {
	Tags []deckservice.TagNode `json:"tags" validate:"required"`
}

// CardListResponse wraps paginated card listings.
type CardListResponse struct {
	Cards []deckservice.CardRef `json:"cards" validate:"required"`
	Total int                   `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// StudyListResponse wraps the study list.
type StudyListResponse struct {
	Studies []deckservice.StudyView `json:"studies" validate:"required"`
}

// SourceListResponse wraps the source file list.
type SourceListResponse struct {
	Sources []models.Source `json:"sources" validate:"required"`
}
