package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campusrate/campusrate-api/internal/dto"
	"github.com/campusrate/campusrate-api/internal/models"
	"github.com/campusrate/campusrate-api/internal/repository"
)

// SummaryCacheKey is the redis key holding the cached aggregate view for an
// entity. The gateway deletes this key after every accepted submission.
func SummaryCacheKey(kind models.EntityKind, entityID string) string {
	return fmt.Sprintf("ratings:summary:%s:%s", kind, entityID)
}

// RatingQuery serves the read surfaces fed by the gateway's writes.
type RatingQuery struct {
	ratings  repository.RatingRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewRatingQuery builds the query service. The redis client may be nil.
func NewRatingQuery(ratings repository.RatingRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *RatingQuery {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RatingQuery{
		ratings:  ratings,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "rating_query").Logger(),
	}
}

// Summary returns per-dimension averages for the entity, read through the
// redis cache.
func (s *RatingQuery) Summary(ctx context.Context, kind models.EntityKind, entityID string) (dto.RatingSummaryResponse, error) {
	cacheKey := SummaryCacheKey(kind, entityID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.RatingSummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("entity_id", entityID).Msg("summary cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read summary cache")
		}
	}

	ratings, err := s.ratings.ListForEntity(ctx, kind, entityID)
	if err != nil {
		return dto.RatingSummaryResponse{}, err
	}

	response := buildSummary(kind, entityID, ratings)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store summary cache")
			}
		}
	}

	return response, nil
}

// Recent returns the newest ratings for the entity, identity stripped for
// anonymous records.
func (s *RatingQuery) Recent(ctx context.Context, kind models.EntityKind, entityID string, limit int) ([]dto.RatingResponse, error) {
	ratings, err := s.ratings.ListRecent(ctx, kind, entityID, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewRatingResponseSlice(ratings), nil
}

func buildSummary(kind models.EntityKind, entityID string, ratings []models.Rating) dto.RatingSummaryResponse {
	totals := map[string]float64{}
	counts := map[string]int{}

	for _, rating := range ratings {
		for field, raw := range rating.Scores {
			value, ok := numeric(raw)
			if !ok {
				continue
			}
			totals[field] += value
			counts[field]++
		}
	}

	averages := make(map[string]float64, len(totals))
	for field, total := range totals {
		averages[field] = total / float64(counts[field])
	}

	return dto.RatingSummaryResponse{
		EntityKind: string(kind),
		EntityID:   entityID,
		Count:      len(ratings),
		Averages:   averages,
	}
}

func numeric(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		return parsed, err == nil
	default:
		return 0, false
	}
}
