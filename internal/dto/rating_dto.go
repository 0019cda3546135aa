package dto

import (
	"time"

	"github.com/campusrate/campusrate-api/internal/models"
)

// RatingSubmitRequest is the JSON body accepted by the submission endpoint.
type RatingSubmitRequest struct {
	Scores      map[string]float64 `json:"scores" validate:"required,min=1"`
	Review      string             `json:"review"`
	IsAnonymous bool               `json:"is_anonymous"`
	TagIDs      []string           `json:"tag_ids" validate:"omitempty,max=16,dive,required"`
}

// RatingSubmitResponse acknowledges an accepted submission.
type RatingSubmitResponse struct {
	RecordID  uint      `json:"record_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingResponse serializes one accepted rating for read endpoints.
type RatingResponse struct {
	ID          uint           `json:"id"`
	EntityKind  string         `json:"entity_kind"`
	EntityID    string         `json:"entity_id"`
	UserID      *string        `json:"user_id,omitempty"`
	Scores      map[string]int `json:"scores"`
	Review      string         `json:"review"`
	IsAnonymous bool           `json:"is_anonymous"`
	TagIDs      []string       `json:"tag_ids"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RatingSummaryResponse carries the cached aggregate view for an entity.
type RatingSummaryResponse struct {
	EntityKind string             `json:"entity_kind"`
	EntityID   string             `json:"entity_id"`
	Count      int                `json:"count"`
	Averages   map[string]float64 `json:"averages"`
}

// NewRatingResponse converts a Rating model into a DTO. Identity is stripped
// from anonymous records.
func NewRatingResponse(model models.Rating) RatingResponse {
	response := RatingResponse{
		ID:          model.ID,
		EntityKind:  model.EntityKind,
		EntityID:    model.EntityID,
		Scores:      make(map[string]int, len(model.Scores)),
		Review:      model.Review,
		IsAnonymous: model.IsAnonymous,
		TagIDs:      model.TagIDs(),
		CreatedAt:   model.CreatedAt,
	}

	if !model.IsAnonymous && model.UserID != nil {
		response.UserID = model.UserID
	}

	for field, raw := range model.Scores {
		switch value := raw.(type) {
		case float64:
			response.Scores[field] = int(value)
		case int:
			response.Scores[field] = value
		case int64:
			response.Scores[field] = int(value)
		}
	}

	return response
}

// NewRatingResponseSlice converts rating models into DTOs.
func NewRatingResponseSlice(ratings []models.Rating) []RatingResponse {
	responses := make([]RatingResponse, 0, len(ratings))
	for _, rating := range ratings {
		responses = append(responses, NewRatingResponse(rating))
	}

	return responses
}
