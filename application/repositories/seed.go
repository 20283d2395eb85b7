// Package repositories composes the caches, the normalizer and the shared
// fallback orchestration into one facade per resource family.
package repositories

import "lugares-client/domain/entities"

// Seed data: the minimal hard-coded dataset served when both the network
// and the cache are unavailable. Each call returns fresh copies because the
// UI may mutate the local-only fields in place.

// SeedPlaces returns the built-in campus landmarks.
func SeedPlaces() []entities.Place {
	return []entities.Place{
		{
			ID:                 "seed-1",
			Name:               "Central Library",
			Category:           "Library",
			Description:        "Main library with academic resources and study spaces",
			What3Words:         "///sample.library.campus",
			Latitude:           -0.210759,
			Longitude:          -78.487359,
			IsAvailable:        true,
			Type:               entities.TypeLibrary,
			Capacity:           200,
			Schedule:           "Monday to Friday: 7:00 - 21:00",
			IsRouteDestination: true,
			DistanceMeters:     entities.ValueNotAvailable,
		},
		{
			ID:                 "seed-2",
			Name:               "Main Cafeteria",
			Category:           "Food",
			Description:        "Cafeteria with a variety of food and drinks for the university community",
			What3Words:         "///sample.cafeteria.campus",
			Latitude:           -0.210959,
			Longitude:          -78.487159,
			IsAvailable:        true,
			Type:               entities.TypeCafeteria,
			Capacity:           150,
			Schedule:           "Monday to Friday: 6:30 - 18:00",
			IsRouteDestination: true,
			DistanceMeters:     entities.ValueNotAvailable,
		},
		{
			ID:             "seed-3",
			Name:           "Main Entrance",
			Category:       "Access",
			Description:    "Main entrance to the university campus",
			What3Words:     "///sample.entrance.campus",
			Latitude:       -0.211059,
			Longitude:      -78.487259,
			IsAvailable:    true,
			Type:           entities.TypeEntrance,
			Capacity:       0,
			Schedule:       "24 hours",
			DistanceMeters: entities.ValueNotAvailable,
		},
	}
}

// SeedRoutes returns the built-in walking routes, keyed off the seed
// places they lead to.
func SeedRoutes() []entities.Route {
	places := SeedPlaces()
	library := places[0]
	cafeteria := places[1]

	return []entities.Route{
		{
			ID:                   "seed-route-1",
			Name:                 "Main walkway to the library",
			Description:          "Paved path from the main entrance to the central library",
			Destination:          &library,
			DistanceMeters:       350,
			EstimatedTimeMinutes: 5,
			Difficulty:           entities.DifficultyEasy,
			AverageRating:        entities.ValueNotAvailable,
			IsActive:             true,
		},
		{
			ID:                   "seed-route-2",
			Name:                 "Courtyard route to the cafeteria",
			Description:          "Route through the central courtyard to the main cafeteria",
			Destination:          &cafeteria,
			DistanceMeters:       220,
			EstimatedTimeMinutes: 3,
			Difficulty:           entities.DifficultyEasy,
			AverageRating:        entities.ValueNotAvailable,
			IsActive:             true,
		},
	}
}

// SeedRoutesTo filters the seed routes by destination.
func SeedRoutesTo(placeID string) []entities.Route {
	routes := SeedRoutes()
	out := make([]entities.Route, 0, len(routes))
	for _, route := range routes {
		if route.Destination != nil && route.Destination.ID == placeID {
			out = append(out, route)
		}
	}
	return out
}
