package dto

import "github.com/campusrate/campusrate-api/internal/models"

// TagResponse serializes one vocabulary tag.
type TagResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// NewTagResponseSlice converts tag models into DTOs.
func NewTagResponseSlice(tags []models.Tag) []TagResponse {
	responses := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		responses = append(responses, TagResponse{ID: tag.ID, Label: tag.Label})
	}

	return responses
}
