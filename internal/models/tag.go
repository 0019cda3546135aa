package models

// Tag is an entry in the descriptive tag vocabulary ratings may reference.
type Tag struct {
	ID     string `gorm:"primaryKey;size:64" json:"id"`
	Label  string `gorm:"size:128;not null" json:"label"`
	Active bool   `gorm:"not null;default:true" json:"active"`
}

// DefaultTags returns the vocabulary seeded into an empty database.
func DefaultTags() []Tag {
	return []Tag{
		{ID: "tough-grader", Label: "Tough grader", Active: true},
		{ID: "caring", Label: "Caring", Active: true},
		{ID: "clear-lectures", Label: "Clear lectures", Active: true},
		{ID: "attendance-required", Label: "Attendance required", Active: true},
		{ID: "group-projects", Label: "Group projects", Active: true},
		{ID: "extra-credit", Label: "Extra credit", Active: true},
		{ID: "heavy-workload", Label: "Heavy workload", Active: true},
		{ID: "inspiring", Label: "Inspiring", Active: true},
		{ID: "great-facilities", Label: "Great facilities", Active: true},
		{ID: "good-food", Label: "Good food", Active: true},
		{ID: "active-clubs", Label: "Active clubs", Active: true},
		{ID: "safe-at-night", Label: "Safe at night", Active: true},
	}
}
