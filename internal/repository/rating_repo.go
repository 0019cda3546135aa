package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campusrate/campusrate-api/internal/models"
)

// RatingRepository defines data operations for rating records.
type RatingRepository interface {
	// FindLatest returns the most recent rating from the given identity key
	// against the given entity, or gorm.ErrRecordNotFound.
	FindLatest(ctx context.Context, rateKey string, kind models.EntityKind, entityID string) (models.Rating, error)
	// CreateWithTags persists a rating and its tag links as one transaction.
	// A cooldown-window conflict surfaces as gorm.ErrDuplicatedKey.
	CreateWithTags(ctx context.Context, rating *models.Rating, tagIDs []string) error
	ListRecent(ctx context.Context, kind models.EntityKind, entityID string, limit int) ([]models.Rating, error)
	ListForEntity(ctx context.Context, kind models.EntityKind, entityID string) ([]models.Rating, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository instantiates the repository.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) FindLatest(ctx context.Context, rateKey string, kind models.EntityKind, entityID string) (models.Rating, error) {
	var rating models.Rating
	if err := r.db.WithContext(ctx).
		Where("rate_key = ?", rateKey).
		Where("entity_kind = ?", string(kind)).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		First(&rating).Error; err != nil {
		return models.Rating{}, err
	}

	return rating, nil
}

func (r *ratingRepository) CreateWithTags(ctx context.Context, rating *models.Rating, tagIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rating).Error; err != nil {
			return err
		}

		if len(tagIDs) == 0 {
			return nil
		}

		links := make([]models.RatingTag, 0, len(tagIDs))
		for _, tagID := range tagIDs {
			links = append(links, models.RatingTag{RatingID: rating.ID, TagID: tagID})
		}

		if err := tx.Create(&links).Error; err != nil {
			return err
		}

		rating.Tags = links
		return nil
	})
}

func (r *ratingRepository) ListRecent(ctx context.Context, kind models.EntityKind, entityID string, limit int) ([]models.Rating, error) {
	if limit <= 0 {
		limit = 20
	}

	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("entity_kind = ?", string(kind)).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ratings).Error; err != nil {
		return nil, err
	}

	return ratings, nil
}

func (r *ratingRepository) ListForEntity(ctx context.Context, kind models.EntityKind, entityID string) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Where("entity_kind = ?", string(kind)).
		Where("entity_id = ?", entityID).
		Find(&ratings).Error; err != nil {
		return nil, err
	}

	return ratings, nil
}
