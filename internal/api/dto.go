package api

import (
	"github.com/starford/til/internal/index"
	"github.com/starford/til/internal/models"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = models.Note

// NoteListResponse wraps paginated note listings. Total ignores pagination.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// TopicsResponse lists every topic with its note count.
type TopicsResponse struct {
	Topics []models.TopicCount `json:"topics" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
