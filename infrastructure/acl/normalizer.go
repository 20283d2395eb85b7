// Package acl is the anti-corruption layer between raw backend payloads and
// the canonical domain model. Conversion never fails: every field read is
// checked for absence, null or a wrong type and substituted with its
// documented default. Only a list element that cannot be decoded into an
// object at all is dropped, so one malformed record never empties an
// otherwise valid result set.
package acl

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lugares-client/domain/entities"
	"lugares-client/infrastructure/observability"
)

// Defaults substituted for missing or invalid payload fields.
const (
	defaultName        = "Unnamed place"
	defaultCategory    = "Uncategorized"
	defaultDescription = "No description"
	defaultSchedule    = "Not specified"
)

// Normalizer converts raw backend payloads into domain values. It is pure
// with respect to its input: normalizing the same payload twice yields
// identical output.
type Normalizer struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewNormalizer builds a Normalizer. Both arguments may be nil.
func NewNormalizer(logger *zap.Logger, metrics *observability.Metrics) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger, metrics: metrics}
}

// ToPlace converts one raw place object.
func (n *Normalizer) ToPlace(raw map[string]any) entities.Place {
	id := stringField(raw, "id", "")
	if id == "" {
		// Records without a stable identity still render; they just get
		// a synthetic one so equality and dedup keep working.
		id = "unknown-" + uuid.NewString()
		n.logger.Warn("place payload without id, assigned synthetic identity", zap.String("id", id))
	}

	typeTag := stringField(raw, "placeType", "")
	placeType, known := entities.ParsePlaceType(typeTag)
	if !known && typeTag != "" {
		n.logger.Warn("unknown place type, defaulting to service", zap.String("placeType", typeTag))
		n.metrics.UnknownTag("placeType")
	}

	capacity := intField(raw, "capacity", 0)
	if capacity < 0 {
		capacity = 0
	}
	routeCount := intField(raw, "routeCount", 0)
	if routeCount < 0 {
		routeCount = 0
	}

	return entities.Place{
		ID:          id,
		Name:        stringField(raw, "name", defaultName),
		Category:    stringField(raw, "category", defaultCategory),
		Description: stringField(raw, "description", defaultDescription),
		What3Words:  stringField(raw, "what3words", ""),
		Latitude:    floatField(raw, "latitude", entities.DefaultLatitude),
		Longitude:   floatField(raw, "longitude", entities.DefaultLongitude),
		IsAvailable: boolField(raw, "isAvailable", true),
		Type:        placeType,
		Capacity:    capacity,
		Schedule:    stringField(raw, "schedule", defaultSchedule),
		ImageURL:    stringField(raw, "imageUrl", ""),

		BuildingName:          stringField(raw, "buildingName", ""),
		FloorNumber:           intField(raw, "floorNumber", 0),
		RoomCode:              stringField(raw, "roomCode", ""),
		Equipment:             stringSetField(raw, "equipment"),
		AccessibilityFeatures: stringSetField(raw, "accessibilityFeatures"),

		IsRouteDestination: boolField(raw, "isRouteDestination", false),
		RouteCount:         routeCount,

		DistanceMeters: entities.ValueNotAvailable,
		IsFavorite:     false,
	}
}

// ToPlaceList converts a raw JSON array of place objects, dropping (and
// logging) any element that cannot be decoded into an object.
func (n *Normalizer) ToPlaceList(data json.RawMessage) []entities.Place {
	return decodeList(n, data, "places", n.ToPlace)
}

// ToRoute converts one raw route object. Unavailable numeric fields get the
// not-available sentinel so callers can tell "unknown" from zero.
func (n *Normalizer) ToRoute(raw map[string]any) entities.Route {
	id := stringField(raw, "id", "")
	if id == "" {
		id = "unknown-" + uuid.NewString()
		n.logger.Warn("route payload without id, assigned synthetic identity", zap.String("id", id))
	}

	difficultyTag := stringField(raw, "difficulty", "")
	difficulty := entities.ParseDifficulty(difficultyTag)
	if difficulty == entities.DifficultyUnspecified && difficultyTag != "" {
		n.logger.Warn("unknown route difficulty", zap.String("difficulty", difficultyTag))
		n.metrics.UnknownTag("difficulty")
	}

	var destination *entities.Place
	if destRaw, ok := objectField(raw, "destinationPlace"); ok {
		dest := n.ToPlace(destRaw)
		destination = &dest
	}

	rating := floatField(raw, "averageRating", entities.ValueNotAvailable)
	if rating != entities.ValueNotAvailable {
		if rating < 0 {
			rating = 0
		} else if rating > 5 {
			rating = 5
		}
	}
	totalRatings := intField(raw, "totalRatings", 0)
	if totalRatings < 0 {
		totalRatings = 0
	}

	return entities.Route{
		ID:                   id,
		Name:                 stringField(raw, "name", "Unnamed route"),
		Description:          stringField(raw, "description", ""),
		Destination:          destination,
		DistanceMeters:       floatField(raw, "distanceMeters", entities.ValueNotAvailable),
		EstimatedTimeMinutes: intField(raw, "estimatedTimeMinutes", entities.ValueNotAvailable),
		Difficulty:           difficulty,
		AverageRating:        rating,
		TotalRatings:         totalRatings,
		IsActive:             boolField(raw, "isActive", true),
		IsPopular:            boolField(raw, "isPopular", false),
		IsWellRated:          boolField(raw, "isWellRated", false),
		Points:               n.toPoints(raw),
	}
}

func (n *Normalizer) toPoints(raw map[string]any) []entities.GeoPoint {
	items, ok := raw["points"].([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	points := make([]entities.GeoPoint, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		points = append(points, entities.GeoPoint{
			Latitude:  floatField(obj, "latitude", entities.DefaultLatitude),
			Longitude: floatField(obj, "longitude", entities.DefaultLongitude),
			Order:     intField(obj, "orderIndex", i),
		})
	}
	return points
}

// ToRouteList converts a raw JSON array of route objects.
func (n *Normalizer) ToRouteList(data json.RawMessage) []entities.Route {
	return decodeList(n, data, "routes", n.ToRoute)
}

// ToUser converts one raw user object.
func (n *Normalizer) ToUser(raw map[string]any) entities.User {
	return entities.User{
		ID:        stringField(raw, "id", ""),
		Email:     stringField(raw, "email", ""),
		FullName:  stringField(raw, "fullName", ""),
		StudentID: stringField(raw, "studentId", ""),
		Type:      entities.ParseUserType(stringField(raw, "userType", "")),
		IsActive:  boolField(raw, "isActive", true),
	}
}

// DecodeObject decodes a single raw payload into the loose object shape the
// To* methods consume.
func DecodeObject(data json.RawMessage) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func decodeList[V any](n *Normalizer, data json.RawMessage, resource string, convert func(map[string]any) V) []V {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		n.logger.Warn("payload is not a list", zap.String("resource", resource), zap.Error(err))
		n.metrics.RecordDropped(resource)
		return []V{}
	}

	out := make([]V, 0, len(elements))
	for i, element := range elements {
		obj, ok := DecodeObject(element)
		if !ok {
			n.logger.Warn("dropping undecodable record",
				zap.String("resource", resource),
				zap.Int("index", i),
			)
			n.metrics.RecordDropped(resource)
			continue
		}
		out = append(out, convert(obj))
	}
	return out
}
