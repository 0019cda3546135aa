package handler

import (
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campusrate/campusrate-api/internal/dto"
	"github.com/campusrate/campusrate-api/internal/middleware"
	"github.com/campusrate/campusrate-api/internal/models"
	"github.com/campusrate/campusrate-api/internal/service"
	"github.com/campusrate/campusrate-api/internal/utils"
)

// RatingHandler manages rating submission and read endpoints for one entity.
type RatingHandler struct {
	gateway   *service.RatingGateway
	query     *service.RatingQuery
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRatingHandler builds a rating handler instance.
func NewRatingHandler(gateway *service.RatingGateway, query *service.RatingQuery, validate *validator.Validate, logger zerolog.Logger) *RatingHandler {
	return &RatingHandler{
		gateway:   gateway,
		query:     query,
		validator: validate,
		logger:    logger.With().Str("component", "rating_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The submit
// limiter, when non-nil, runs in front of the POST route only.
func (h *RatingHandler) Register(router fiber.Router, submitLimiter fiber.Handler) {
	if submitLimiter != nil {
		router.Post("", submitLimiter, h.submit)
	} else {
		router.Post("", h.submit)
	}
	router.Get("", h.recent)
	router.Get("/summary", h.summary)
}

func (h *RatingHandler) submit(c *fiber.Ctx) error {
	kind, entityID, err := entityFromParams(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var payload dto.RatingSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	if err := h.validator.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if ok := asValidationErrors(err, &validationErrors); ok {
			return utils.Fail(c, fiber.StatusBadRequest, validationErrors.Error(), nil)
		}
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	result := h.gateway.Submit(c.Context(), service.SubmitRequest{
		EntityKind:  kind,
		EntityID:    entityID,
		UserID:      middleware.UserIDFromLocals(c),
		ClientAddr:  c.IP(),
		Scores:      payload.Scores,
		Review:      payload.Review,
		IsAnonymous: payload.IsAnonymous,
		TagIDs:      payload.TagIDs,
	})

	switch result.Status {
	case service.SubmitOK:
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rating accepted", dto.RatingSubmitResponse{
			RecordID:  result.RecordID,
			CreatedAt: result.CreatedAt,
		})
	case service.SubmitDenied:
		retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return utils.Fail(c, fiber.StatusTooManyRequests, "cooldown active", fiber.Map{
			"retry_after_seconds": retryAfter,
		})
	case service.SubmitRejected:
		return utils.Fail(c, fiber.StatusBadRequest, "invalid rating payload", fiber.Map{
			"field":  result.Field,
			"reason": result.Reason,
		})
	default:
		return utils.SendError(c, fiber.StatusInternalServerError, "submission failed")
	}
}

func (h *RatingHandler) recent(c *fiber.Ctx) error {
	kind, entityID, err := entityFromParams(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid limit", nil)
	}

	ratings, err := h.query.Recent(c.Context(), kind, entityID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("entity_id", entityID).Msg("failed to list ratings")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "ratings retrieved", ratings)
}

func (h *RatingHandler) summary(c *fiber.Ctx) error {
	kind, entityID, err := entityFromParams(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	summary, err := h.query.Summary(c.Context(), kind, entityID)
	if err != nil {
		h.logger.Error().Err(err).Str("entity_id", entityID).Msg("failed to build summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "summary retrieved", summary)
}

func entityFromParams(c *fiber.Ctx) (models.EntityKind, string, error) {
	kind, ok := models.ParseEntityKind(c.Params("kind"))
	if !ok {
		return "", "", fiber.NewError(fiber.StatusBadRequest, "unknown entity kind")
	}

	entityID := c.Params("id")
	if entityID == "" {
		return "", "", fiber.NewError(fiber.StatusBadRequest, "entity id is required")
	}

	return kind, entityID, nil
}
