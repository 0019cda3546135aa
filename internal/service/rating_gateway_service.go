package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campusrate/campusrate-api/internal/models"
	"github.com/campusrate/campusrate-api/internal/observability"
	"github.com/campusrate/campusrate-api/internal/repository"
)

// SubmitStatus enumerates the terminal outcomes of the submission pipeline.
type SubmitStatus string

const (
	// SubmitOK means the rating was accepted and persisted.
	SubmitOK SubmitStatus = "ok"
	// SubmitDenied means the cooldown window is still active.
	SubmitDenied SubmitStatus = "denied"
	// SubmitRejected means the payload failed validation.
	SubmitRejected SubmitStatus = "rejected"
	// SubmitFailed means a storage or infrastructure error occurred.
	SubmitFailed SubmitStatus = "failed"
)

// SubmitRequest carries one rating submission through the gateway.
type SubmitRequest struct {
	EntityKind  models.EntityKind
	EntityID    string
	UserID      string
	ClientAddr  string
	Scores      map[string]float64
	Review      string
	IsAnonymous bool
	TagIDs      []string
}

// SubmitResult is the single terminal result every submission receives.
// Exactly the fields relevant to Status are populated.
type SubmitResult struct {
	Status     SubmitStatus
	RecordID   uint
	CreatedAt  time.Time
	RetryAfter time.Duration
	Field      string
	Reason     string
}

type invalidationEvent struct {
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	RecordID   uint      `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RatingGateway runs the fixed submission pipeline: resolve identity, check
// the cooldown guard, validate the payload, write the record with its tag
// links, then signal cache invalidation.
type RatingGateway struct {
	ratings      repository.RatingRepository
	tags         repository.TagRepository
	resolver     *IdentityResolver
	guard        *AbuseGuard
	validator    *RatingValidator
	cache        *redis.Client
	events       *nats.Conn
	guardTimeout time.Duration
	writeTimeout time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewRatingGateway constructs the gateway. The redis client and NATS
// connection may be nil; invalidation then degrades to a no-op.
func NewRatingGateway(
	ratings repository.RatingRepository,
	tags repository.TagRepository,
	resolver *IdentityResolver,
	guard *AbuseGuard,
	ratingValidator *RatingValidator,
	cache *redis.Client,
	events *nats.Conn,
	guardTimeout, writeTimeout time.Duration,
	logger zerolog.Logger,
) *RatingGateway {
	if guardTimeout <= 0 {
		guardTimeout = 2 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	return &RatingGateway{
		ratings:      ratings,
		tags:         tags,
		resolver:     resolver,
		guard:        guard,
		validator:    ratingValidator,
		cache:        cache,
		events:       events,
		guardTimeout: guardTimeout,
		writeTimeout: writeTimeout,
		logger:       logger.With().Str("component", "rating_gateway").Logger(),
		tracer:       otel.Tracer("github.com/campusrate/campusrate-api/internal/service/rating_gateway"),
		now:          time.Now,
	}
}

// Submit runs the pipeline for one rating submission and always returns a
// terminal result. Raw storage errors are logged, never surfaced.
func (s *RatingGateway) Submit(ctx context.Context, req SubmitRequest) SubmitResult {
	ctx, span := s.tracer.Start(ctx, "rating.submit", trace.WithAttributes(
		attribute.String("entity.kind", string(req.EntityKind)),
		attribute.String("entity.id", req.EntityID),
	))
	defer span.End()

	start := s.now()
	result := s.submit(ctx, req)

	span.SetAttributes(attribute.String("submission.status", string(result.Status)))
	observability.Submissions().WithLabelValues(string(req.EntityKind), string(result.Status)).Inc()
	observability.SubmissionLatency().WithLabelValues(string(req.EntityKind)).Observe(s.now().Sub(start).Seconds())

	return result
}

func (s *RatingGateway) submit(ctx context.Context, req SubmitRequest) SubmitResult {
	key := s.resolver.Resolve(req.UserID, req.ClientAddr)

	guardCtx, cancelGuard := context.WithTimeout(ctx, s.guardTimeout)
	defer cancelGuard()

	decision, err := s.guard.Check(guardCtx, key, req.EntityKind, req.EntityID)
	if err != nil {
		s.logger.Error().Err(err).Str("entity_id", req.EntityID).Msg("guard lookup failed")
		return SubmitResult{Status: SubmitFailed, Reason: "submission could not be processed"}
	}
	if !decision.Allowed {
		return SubmitResult{Status: SubmitDenied, RetryAfter: decision.RetryAfter}
	}

	knownTags, err := s.tags.KnownIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("tag vocabulary lookup failed")
		return SubmitResult{Status: SubmitFailed, Reason: "submission could not be processed"}
	}

	review, rejection := s.validator.Validate(req.EntityKind, req.Scores, req.Review, req.TagIDs, knownTags)
	if rejection != nil {
		return SubmitResult{Status: SubmitRejected, Field: rejection.Field, Reason: rejection.Reason}
	}

	window := s.guard.Window(key)
	createdAt := s.now().UTC()

	rating := models.Rating{
		EntityKind:  string(req.EntityKind),
		EntityID:    req.EntityID,
		RateKey:     key.RateKey(),
		TimeBucket:  createdAt.Unix() / int64(window.Seconds()),
		Scores:      scoresToJSON(req.Scores),
		Review:      review,
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   createdAt,
	}
	if key.Anonymous() {
		hash := key.AnonHash
		rating.AnonHash = &hash
	} else {
		userID := key.UserID
		rating.UserID = &userID
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, s.writeTimeout)
	defer cancelWrite()

	if err := s.ratings.CreateWithTags(writeCtx, &rating, dedupe(req.TagIDs)); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent submission from the same
			// identity; surface the same denial a sequential check yields.
			return SubmitResult{Status: SubmitDenied, RetryAfter: s.retryAfter(ctx, key, req)}
		}
		s.logger.Error().Err(err).Str("entity_id", req.EntityID).Msg("rating write failed")
		return SubmitResult{Status: SubmitFailed, Reason: "submission could not be processed"}
	}

	s.invalidate(req.EntityKind, req.EntityID, rating.ID)

	s.logger.Info().
		Uint("rating_id", rating.ID).
		Str("entity_kind", string(req.EntityKind)).
		Str("entity_id", req.EntityID).
		Bool("anonymous", key.Anonymous()).
		Msg("rating accepted")

	return SubmitResult{Status: SubmitOK, RecordID: rating.ID, CreatedAt: rating.CreatedAt}
}

// retryAfter recomputes the denial hint for a write-conflict loser from the
// record that won the race.
func (s *RatingGateway) retryAfter(ctx context.Context, key IdentityKey, req SubmitRequest) time.Duration {
	guardCtx, cancel := context.WithTimeout(ctx, s.guardTimeout)
	defer cancel()

	decision, err := s.guard.Check(guardCtx, key, req.EntityKind, req.EntityID)
	if err == nil && !decision.Allowed {
		return decision.RetryAfter
	}

	return s.guard.Window(key)
}

// invalidate signals downstream caches that aggregates for the entity are
// stale. Fire-and-forget: failures are counted and logged, never returned.
func (s *RatingGateway) invalidate(kind models.EntityKind, entityID string, recordID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Del(ctx, SummaryCacheKey(kind, entityID)).Err(); err != nil {
			observability.InvalidationsDropped().Inc()
			s.logger.Warn().Err(err).Str("entity_id", entityID).Msg("failed to invalidate summary cache")
		}
	}

	if s.events != nil {
		payload, err := json.Marshal(invalidationEvent{
			EntityKind: string(kind),
			EntityID:   entityID,
			RecordID:   recordID,
			OccurredAt: s.now().UTC(),
		})
		if err == nil {
			if err := s.events.Publish(fmt.Sprintf("ratings.invalidate.%s", kind), payload); err != nil {
				observability.InvalidationsDropped().Inc()
				s.logger.Warn().Err(err).Str("entity_id", entityID).Msg("failed to publish invalidation event")
			}
		}
	}
}

func scoresToJSON(scores map[string]float64) datatypes.JSONMap {
	payload := make(datatypes.JSONMap, len(scores))
	for field, value := range scores {
		payload[field] = int(value)
	}
	return payload
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
