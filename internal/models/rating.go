package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rating is an accepted rating submission. Records are immutable after creation;
// corrections are modeled as new records, never updates.
//
// The composite unique index over (rate_key, entity_kind, entity_id, time_bucket)
// closes the check-then-insert race on the cooldown guard at the storage layer:
// two concurrent submissions from one identity land in the same bucket and the
// second insert fails with a duplicate-key error.
type Rating struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	EntityKind  string            `gorm:"size:16;not null;uniqueIndex:idx_rating_cooldown" json:"entity_kind"`
	EntityID    string            `gorm:"size:64;not null;uniqueIndex:idx_rating_cooldown" json:"entity_id"`
	RateKey     string            `gorm:"size:128;not null;uniqueIndex:idx_rating_cooldown" json:"-"`
	TimeBucket  int64             `gorm:"not null;uniqueIndex:idx_rating_cooldown" json:"-"`
	UserID      *string           `gorm:"size:64" json:"user_id,omitempty"`
	AnonHash    *string           `gorm:"size:64" json:"-"`
	Scores      datatypes.JSONMap `gorm:"not null" json:"scores"`
	Review      string            `gorm:"type:text" json:"review"`
	IsAnonymous bool              `json:"is_anonymous"`
	CreatedAt   time.Time         `json:"created_at"`
	Tags        []RatingTag       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"tags"`
}

// RatingTag links a rating to one descriptive tag. Rows live and die with the
// parent rating; they are never managed independently.
type RatingTag struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RatingID uint   `gorm:"not null;uniqueIndex:idx_rating_tag" json:"rating_id"`
	TagID    string `gorm:"size:64;not null;uniqueIndex:idx_rating_tag" json:"tag_id"`
}

// TagIDs returns the tag identifiers linked to the rating.
func (r Rating) TagIDs() []string {
	ids := make([]string, 0, len(r.Tags))
	for _, tag := range r.Tags {
		ids = append(ids, tag.TagID)
	}
	return ids
}
