package service

import (
	"math"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/campusrate/campusrate-api/internal/models"
)

// Rejection names the offending field and the reason a payload was refused.
type Rejection struct {
	Field  string
	Reason string
}

// Rejection reasons returned by the payload validator.
const (
	ReasonUnknownKind      = "unknown_entity_kind"
	ReasonRequired         = "required"
	ReasonNotInteger       = "not_integer"
	ReasonOutOfRange       = "out_of_range"
	ReasonUnknownDimension = "unknown_dimension"
	ReasonTooLong          = "too_long"
	ReasonUnknownTag       = "unknown_tag"
)

const (
	scoreMin = 1
	scoreMax = 5
)

// RatingValidator checks submitted rating payloads against declared bounds.
// Validation is pure: it performs no I/O and must run before any persistence
// attempt. The caller supplies the known tag set.
type RatingValidator struct {
	maxReviewLen int
	sanitizer    *bluemonday.Policy
}

// NewRatingValidator constructs a validator with the configured review length cap.
func NewRatingValidator(maxReviewLen int) *RatingValidator {
	if maxReviewLen <= 0 {
		maxReviewLen = 2000
	}

	return &RatingValidator{
		maxReviewLen: maxReviewLen,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

// Validate checks the submission payload. On success it returns the sanitized
// review text; otherwise a Rejection naming the first offending field.
func (v *RatingValidator) Validate(kind models.EntityKind, scores map[string]float64, review string, tagIDs []string, knownTags map[string]struct{}) (string, *Rejection) {
	dims, ok := kind.Dimensions()
	if !ok {
		return "", &Rejection{Field: "entity_kind", Reason: ReasonUnknownKind}
	}

	for _, required := range dims.Required {
		if _, present := scores[required]; !present {
			return "", &Rejection{Field: required, Reason: ReasonRequired}
		}
	}

	for _, field := range sortedKeys(scores) {
		value := scores[field]
		if !dims.Allows(field) {
			return "", &Rejection{Field: field, Reason: ReasonUnknownDimension}
		}
		if value != math.Trunc(value) {
			return "", &Rejection{Field: field, Reason: ReasonNotInteger}
		}
		if value < scoreMin || value > scoreMax {
			return "", &Rejection{Field: field, Reason: ReasonOutOfRange}
		}
	}

	sanitized := strings.TrimSpace(v.sanitizer.Sanitize(review))
	if len(sanitized) > v.maxReviewLen {
		return "", &Rejection{Field: "review", Reason: ReasonTooLong}
	}

	for _, tagID := range tagIDs {
		if _, known := knownTags[tagID]; !known {
			return "", &Rejection{Field: "tag_ids", Reason: ReasonUnknownTag}
		}
	}

	return sanitized, nil
}

func sortedKeys(scores map[string]float64) []string {
	keys := make([]string, 0, len(scores))
	for key := range scores {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
