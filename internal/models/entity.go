package models

// EntityKind identifies the kind of thing a rating targets.
type EntityKind string

const (
	// EntityKindProfessor marks ratings submitted against a professor profile.
	EntityKindProfessor EntityKind = "professor"
	// EntityKindCampus marks ratings submitted against a campus page.
	EntityKindCampus EntityKind = "campus"
)

// RatingDimensions declares which score dimensions an entity kind accepts.
type RatingDimensions struct {
	Required []string
	Optional []string
}

var dimensionsByKind = map[EntityKind]RatingDimensions{
	EntityKindProfessor: {
		Required: []string{"overall"},
		Optional: []string{"clarity", "helpfulness", "difficulty"},
	},
	EntityKindCampus: {
		Required: []string{"overall"},
		Optional: []string{"reputation", "facilities", "food", "internet", "location", "safety", "social", "happiness", "opportunities", "clubs"},
	},
}

// ParseEntityKind validates a raw kind string from the request path.
func ParseEntityKind(raw string) (EntityKind, bool) {
	kind := EntityKind(raw)
	_, ok := dimensionsByKind[kind]
	return kind, ok
}

// Dimensions returns the declared score dimensions for the kind.
func (k EntityKind) Dimensions() (RatingDimensions, bool) {
	dims, ok := dimensionsByKind[k]
	return dims, ok
}

// Allows reports whether the kind declares the given score dimension.
func (d RatingDimensions) Allows(name string) bool {
	for _, dim := range d.Required {
		if dim == name {
			return true
		}
	}
	for _, dim := range d.Optional {
		if dim == name {
			return true
		}
	}
	return false
}
