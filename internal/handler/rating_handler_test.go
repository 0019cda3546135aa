package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campusrate/campusrate-api/internal/config"
	"github.com/campusrate/campusrate-api/internal/handler"
	"github.com/campusrate/campusrate-api/internal/middleware"
	"github.com/campusrate/campusrate-api/internal/models"
	"github.com/campusrate/campusrate-api/internal/repository"
	"github.com/campusrate/campusrate-api/internal/router"
	"github.com/campusrate/campusrate-api/internal/service"
)

const testJWTSecret = "test-jwt-secret"

func setupRatingApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Rating{}, &models.RatingTag{}, &models.Tag{}))

	ratingRepo := repository.NewRatingRepository(db)
	tagRepo := repository.NewTagRepository(db)
	require.NoError(t, tagRepo.Seed(context.Background(), models.DefaultTags()))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	resolver := service.NewIdentityResolver("test-identity-secret")
	guard := service.NewAbuseGuard(ratingRepo, 24*time.Hour, 12*time.Hour, logger)
	ratingValidator := service.NewRatingValidator(2000)
	gateway := service.NewRatingGateway(ratingRepo, tagRepo, resolver, guard, ratingValidator, nil, nil, 2*time.Second, 5*time.Second, logger)
	query := service.NewRatingQuery(ratingRepo, nil, time.Minute, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		RatingHandler:  handler.NewRatingHandler(gateway, query, validate, logger),
		TagHandler:     handler.NewTagHandler(tagRepo, logger),
		AuthMiddleware: middleware.OptionalAuth(testJWTSecret),
	})

	return app, db
}

func submitBody(t *testing.T, overall float64, tagIDs []string) *bytes.Buffer {
	t.Helper()
	payload := map[string]interface{}{
		"scores":  map[string]float64{"overall": overall},
		"review":  "Concise and helpful",
		"tag_ids": tagIDs,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func TestSubmitRatingAcceptedThenDenied(t *testing.T) {
	app, db := setupRatingApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/professor/prof-h-1/ratings", submitBody(t, 5, []string{"caring"}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "42"))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			RecordID  uint      `json:"record_id"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"data"`
	}
	decodeBody(t, resp, &created)
	require.True(t, created.Success)
	require.NotZero(t, created.Data.RecordID)

	var links int64
	require.NoError(t, db.Model(&models.RatingTag{}).Where("rating_id = ?", created.Data.RecordID).Count(&links).Error)
	require.Equal(t, int64(1), links)

	// Same user, same entity, still inside the 24h window.
	again := httptest.NewRequest(http.MethodPost, "/api/v1/professor/prof-h-1/ratings", submitBody(t, 4, nil))
	again.Header.Set("Content-Type", "application/json")
	again.Header.Set("Authorization", "Bearer "+signToken(t, "42"))

	resp, err = app.Test(again, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	retryHeader := resp.Header.Get(fiber.HeaderRetryAfter)
	require.NotEmpty(t, retryHeader)
	seconds, err := strconv.Atoi(retryHeader)
	require.NoError(t, err)
	require.Greater(t, seconds, 0)

	var denied struct {
		Success bool `json:"success"`
		Details struct {
			RetryAfterSeconds int `json:"retry_after_seconds"`
		} `json:"details"`
	}
	decodeBody(t, resp, &denied)
	require.False(t, denied.Success)
	require.Equal(t, seconds, denied.Details.RetryAfterSeconds)
}

func TestSubmitRatingRejectedNamesField(t *testing.T) {
	app, db := setupRatingApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campus/campus-h-2/ratings", submitBody(t, 6, nil))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var rejected struct {
		Success bool `json:"success"`
		Details struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"details"`
	}
	decodeBody(t, resp, &rejected)
	require.False(t, rejected.Success)
	require.Equal(t, "overall", rejected.Details.Field)
	require.Equal(t, "out_of_range", rejected.Details.Reason)

	var count int64
	require.NoError(t, db.Model(&models.Rating{}).Where("entity_id = ?", "campus-h-2").Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmitRatingAnonymousKeyedByAddress(t *testing.T) {
	app, _ := setupRatingApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campus/campus-h-3/ratings", submitBody(t, 4, nil))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Second anonymous submission from the same address is throttled.
	again := httptest.NewRequest(http.MethodPost, "/api/v1/campus/campus-h-3/ratings", submitBody(t, 4, nil))
	again.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(again, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestSubmitRatingUnknownKind(t *testing.T) {
	app, _ := setupRatingApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/planet/x/ratings", submitBody(t, 4, nil))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRecentAndSummaryEndpoints(t *testing.T) {
	app, _ := setupRatingApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/professor/prof-h-4/ratings", submitBody(t, 5, []string{"inspiring"}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "77"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/professor/prof-h-4/ratings", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Data []struct {
			Scores map[string]int `json:"scores"`
			TagIDs []string       `json:"tag_ids"`
		} `json:"data"`
	}
	decodeBody(t, resp, &listed)
	require.Len(t, listed.Data, 1)
	require.Equal(t, 5, listed.Data[0].Scores["overall"])
	require.Equal(t, []string{"inspiring"}, listed.Data[0].TagIDs)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/professor/prof-h-4/ratings/summary", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary struct {
		Data struct {
			Count    int                `json:"count"`
			Averages map[string]float64 `json:"averages"`
		} `json:"data"`
	}
	decodeBody(t, resp, &summary)
	require.Equal(t, 1, summary.Data.Count)
	require.InDelta(t, 5.0, summary.Data.Averages["overall"], 0.01)
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
