package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campusrate/campusrate-api/internal/models"
	"github.com/campusrate/campusrate-api/internal/repository"
)

// GuardDecision is the outcome of a cooldown check.
type GuardDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// AbuseGuard enforces the per-identity cooldown between submissions against
// one entity. Authenticated identities get a longer window than anonymous
// ones: per-account abuse is rarer but noisier, while many legitimate users
// can share one network address.
type AbuseGuard struct {
	ratings    repository.RatingRepository
	authWindow time.Duration
	anonWindow time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAbuseGuard constructs the guard with the configured cooldown windows.
func NewAbuseGuard(ratings repository.RatingRepository, authWindow, anonWindow time.Duration, logger zerolog.Logger) *AbuseGuard {
	if authWindow <= 0 {
		authWindow = 24 * time.Hour
	}
	if anonWindow <= 0 {
		anonWindow = 12 * time.Hour
	}

	return &AbuseGuard{
		ratings:    ratings,
		authWindow: authWindow,
		anonWindow: anonWindow,
		logger:     logger.With().Str("component", "abuse_guard").Logger(),
		now:        time.Now,
	}
}

// Window returns the cooldown applicable to the identity.
func (g *AbuseGuard) Window(key IdentityKey) time.Duration {
	if key.Anonymous() {
		return g.anonWindow
	}
	return g.authWindow
}

// Check looks up the most recent accepted submission from the identity against
// the entity and decides whether a new one may proceed. Lookup errors are
// infrastructure failures, not denials.
func (g *AbuseGuard) Check(ctx context.Context, key IdentityKey, kind models.EntityKind, entityID string) (GuardDecision, error) {
	latest, err := g.ratings.FindLatest(ctx, key.RateKey(), kind, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GuardDecision{Allowed: true}, nil
		}
		return GuardDecision{}, err
	}

	window := g.Window(key)
	elapsed := g.now().Sub(latest.CreatedAt)
	if elapsed < window {
		g.logger.Debug().
			Str("entity_kind", string(kind)).
			Str("entity_id", entityID).
			Dur("retry_after", window-elapsed).
			Msg("submission denied by cooldown")
		return GuardDecision{Allowed: false, RetryAfter: window - elapsed}, nil
	}

	return GuardDecision{Allowed: true}, nil
}
