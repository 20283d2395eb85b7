// Package entities holds the canonical domain model: stable shapes that are
// independent of any backend wire format. Instances are produced by the
// normalization layer and, apart from the two local-only fields on Place,
// are treated as immutable value objects.
package entities

import "strings"

// PlaceType tags a place with its campus function.
type PlaceType string

const (
	TypeClassroom  PlaceType = "classroom"
	TypeLaboratory PlaceType = "laboratory"
	TypeLibrary    PlaceType = "library"
	TypeCafeteria  PlaceType = "cafeteria"
	TypeOffice     PlaceType = "office"
	TypeAuditorium PlaceType = "auditorium"
	TypeService    PlaceType = "service"
	TypeParking    PlaceType = "parking"
	TypeRecreation PlaceType = "recreation"
	TypeEntrance   PlaceType = "entrance"
)

var placeTypes = map[string]PlaceType{
	"classroom":  TypeClassroom,
	"laboratory": TypeLaboratory,
	"library":    TypeLibrary,
	"cafeteria":  TypeCafeteria,
	"office":     TypeOffice,
	"auditorium": TypeAuditorium,
	"service":    TypeService,
	"parking":    TypeParking,
	"recreation": TypeRecreation,
	"entrance":   TypeEntrance,
}

// ParsePlaceType matches case-insensitively against the known tag set.
// Unrecognized or empty values normalize to TypeService; the second return
// reports whether the input matched a known tag.
func ParsePlaceType(s string) (PlaceType, bool) {
	if t, ok := placeTypes[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, true
	}
	return TypeService, false
}

// IsAcademic reports whether the place serves an academic function.
func (t PlaceType) IsAcademic() bool {
	return t == TypeClassroom || t == TypeLaboratory || t == TypeLibrary
}

// IsPublic reports whether the place is open to everyone on campus.
func (t PlaceType) IsPublic() bool {
	return t == TypeCafeteria || t == TypeService || t == TypeRecreation || t == TypeEntrance
}

// Campus-center fallback applied when a payload carries no coordinates.
const (
	DefaultLatitude  = -0.210759
	DefaultLongitude = -78.487359
)

// ValueNotAvailable is the sentinel for numeric fields the backend did not
// supply. It is distinguished from a legitimate zero.
const ValueNotAvailable = -1

// Place is a point of interest on campus. Identity and equality are defined
// solely by ID. IsFavorite and DistanceMeters are local-only: the UI may
// mutate them in place and they are never sent back to the backend.
type Place struct {
	ID          string
	Name        string
	Category    string
	Description string
	What3Words  string
	Latitude    float64
	Longitude   float64
	IsAvailable bool
	Type        PlaceType
	Capacity    int
	Schedule    string
	ImageURL    string

	BuildingName          string
	FloorNumber           int
	RoomCode              string
	Equipment             []string
	AccessibilityFeatures []string

	IsRouteDestination bool
	RouteCount         int

	// Local-only fields, not backend-authoritative.
	DistanceMeters float64
	IsFavorite     bool
}

// Equal reports identity equality.
func (p Place) Equal(other Place) bool {
	return p.ID == other.ID
}

// MatchesQuery reports whether the place matches a free-text search across
// name, category, description and geocode. An empty query matches.
func (p Place) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Category), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.What3Words), q)
}
