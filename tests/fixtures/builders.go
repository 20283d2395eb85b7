// Package fixtures builds backend payloads for tests. The builders emit
// the raw JSON shapes the backend sends, so tests exercise the same
// normalization path production does.
package fixtures

import (
	"encoding/json"
	"fmt"

	"lugares-client/infrastructure/remote"
)

// PlaceBuilder assembles a backend place payload with sane defaults.
type PlaceBuilder struct {
	fields map[string]any
}

func NewPlaceBuilder() *PlaceBuilder {
	return &PlaceBuilder{fields: map[string]any{
		"id":          "place-1",
		"name":        "Central Library",
		"category":    "library",
		"description": "Main campus library",
		"latitude":    -0.210759,
		"longitude":   -78.487359,
		"isAvailable": true,
		"placeType":   "LIBRARY",
		"capacity":    200,
	}}
}

func (b *PlaceBuilder) WithID(id string) *PlaceBuilder {
	b.fields["id"] = id
	return b
}

func (b *PlaceBuilder) WithName(name string) *PlaceBuilder {
	b.fields["name"] = name
	return b
}

func (b *PlaceBuilder) WithType(t string) *PlaceBuilder {
	b.fields["placeType"] = t
	return b
}

func (b *PlaceBuilder) WithCoordinates(lat, lng float64) *PlaceBuilder {
	b.fields["latitude"] = lat
	b.fields["longitude"] = lng
	return b
}

func (b *PlaceBuilder) WithAvailability(available bool) *PlaceBuilder {
	b.fields["isAvailable"] = available
	return b
}

// WithField sets an arbitrary field, including wrong-typed values for
// normalization tests.
func (b *PlaceBuilder) WithField(key string, value any) *PlaceBuilder {
	b.fields[key] = value
	return b
}

// WithoutField removes a field to simulate a sparse payload.
func (b *PlaceBuilder) WithoutField(key string) *PlaceBuilder {
	delete(b.fields, key)
	return b
}

func (b *PlaceBuilder) Build() map[string]any {
	out := make(map[string]any, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// RouteBuilder assembles a backend route payload.
type RouteBuilder struct {
	fields map[string]any
}

func NewRouteBuilder() *RouteBuilder {
	return &RouteBuilder{fields: map[string]any{
		"id":               "route-1",
		"name":             "Main path to library",
		"description":      "Paved path from the entrance",
		"distanceMeters":   350.0,
		"estimatedTimeMinutes": 5,
		"difficulty":       "EASY",
		"averageRating":    4.2,
		"totalRatings":     17,
		"isActive":         true,
		"destinationPlace": NewPlaceBuilder().Build(),
		"points": []any{
			map[string]any{"latitude": -0.2107, "longitude": -78.4873, "orderIndex": 0},
			map[string]any{"latitude": -0.2105, "longitude": -78.4870, "orderIndex": 1},
		},
	}}
}

func (b *RouteBuilder) WithID(id string) *RouteBuilder {
	b.fields["id"] = id
	return b
}

func (b *RouteBuilder) WithDestination(place map[string]any) *RouteBuilder {
	b.fields["destinationPlace"] = place
	return b
}

func (b *RouteBuilder) WithRating(avg float64, total int) *RouteBuilder {
	b.fields["averageRating"] = avg
	b.fields["totalRatings"] = total
	return b
}

func (b *RouteBuilder) WithField(key string, value any) *RouteBuilder {
	b.fields[key] = value
	return b
}

func (b *RouteBuilder) WithoutField(key string) *RouteBuilder {
	delete(b.fields, key)
	return b
}

func (b *RouteBuilder) Build() map[string]any {
	out := make(map[string]any, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// UserBuilder assembles a backend user payload.
type UserBuilder struct {
	fields map[string]any
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{fields: map[string]any{
		"id":       "user-1",
		"email":    "ana@example.edu",
		"fullName": "Ana Quishpe",
		"userType": "STUDENT",
	}}
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.fields["email"] = email
	return b
}

func (b *UserBuilder) WithType(t string) *UserBuilder {
	b.fields["userType"] = t
	return b
}

func (b *UserBuilder) WithField(key string, value any) *UserBuilder {
	b.fields[key] = value
	return b
}

func (b *UserBuilder) Build() map[string]any {
	out := make(map[string]any, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// SuccessEnvelope wraps data in a successful backend envelope.
func SuccessEnvelope(data any) *remote.Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(fmt.Sprintf("fixtures: marshaling envelope data: %v", err))
	}
	return &remote.Envelope{Success: true, Message: "ok", Data: raw}
}

// FailureEnvelope wraps a backend-reported failure.
func FailureEnvelope(message string) *remote.Envelope {
	return &remote.Envelope{Success: false, Message: message}
}

// AuthEnvelope wraps a token plus user payload the way the auth
// endpoints respond.
func AuthEnvelope(token string, user map[string]any) *remote.Envelope {
	return SuccessEnvelope(map[string]any{
		"token": token,
		"user":  user,
	})
}

// RawList marshals payload maps into the JSON array the list endpoints
// return.
func RawList(items ...map[string]any) json.RawMessage {
	raw, err := json.Marshal(items)
	if err != nil {
		panic(fmt.Sprintf("fixtures: marshaling list: %v", err))
	}
	return raw
}
