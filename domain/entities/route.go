package entities

import "strings"

// Difficulty rates how demanding a route is to walk.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyMedium      Difficulty = "medium"
	DifficultyHard        Difficulty = "hard"
	DifficultyUnspecified Difficulty = "unspecified"
)

// ParseDifficulty matches case-insensitively; anything outside the known set
// maps to DifficultyUnspecified.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyUnspecified
	}
}

// GeoPoint is a single point on a route path.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
	Order     int
}

// Route is a walkable path to a destination place. Numeric fields the
// backend did not supply hold ValueNotAvailable rather than zero.
// IsPopular and IsWellRated are opaque server-provided flags; this layer
// never recomputes them.
type Route struct {
	ID                   string
	Name                 string
	Description          string
	Destination          *Place
	DistanceMeters       float64
	EstimatedTimeMinutes int
	Difficulty           Difficulty
	AverageRating        float64
	TotalRatings         int
	IsActive             bool
	IsPopular            bool
	IsWellRated          bool

	// Points is only populated by the route-details operation.
	Points []GeoPoint
}

// Equal reports identity equality.
func (r Route) Equal(other Route) bool {
	return r.ID == other.ID
}

// HasRating reports whether the backend supplied a rating at all.
func (r Route) HasRating() bool {
	return r.AverageRating != ValueNotAvailable && r.TotalRatings > 0
}
