package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campusrate/campusrate-api/internal/dto"
	"github.com/campusrate/campusrate-api/internal/repository"
	"github.com/campusrate/campusrate-api/internal/utils"
)

// TagHandler serves the descriptive tag vocabulary.
type TagHandler struct {
	tags   repository.TagRepository
	logger zerolog.Logger
}

// NewTagHandler builds a tag handler instance.
func NewTagHandler(tags repository.TagRepository, logger zerolog.Logger) *TagHandler {
	return &TagHandler{
		tags:   tags,
		logger: logger.With().Str("component", "tag_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TagHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *TagHandler) list(c *fiber.Ctx) error {
	tags, err := h.tags.ListActive(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list tags")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "tags retrieved", dto.NewTagResponseSlice(tags))
}
