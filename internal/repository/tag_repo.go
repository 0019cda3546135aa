package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campusrate/campusrate-api/internal/models"
)

// TagRepository defines data operations for the tag vocabulary.
type TagRepository interface {
	ListActive(ctx context.Context) ([]models.Tag, error)
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	// Seed inserts the given tags when the vocabulary table is empty.
	Seed(ctx context.Context, tags []models.Tag) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository instantiates the repository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) ListActive(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&tags).Error; err != nil {
		return nil, err
	}

	return tags, nil
}

func (r *tagRepository) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("active = ?", true).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	return known, nil
}

func (r *tagRepository) Seed(ctx context.Context, tags []models.Tag) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Tag{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 || len(tags) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&tags).Error
}
