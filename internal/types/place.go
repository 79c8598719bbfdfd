package types

import (
	"github.com/google/uuid"
)

// Place is a physical venue discovered by the mining pipeline. ExternalID is
// the stable identifier from the discovery provider and the natural key for
// deduplication; rows are created once and never updated by the pipeline.
type Place struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Address    *string   `json:"address,omitempty"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	Rating     *float64  `json:"rating,omitempty"`
	PriceLevel *int      `json:"price_level,omitempty"`
}

// CafeResult is one row of the proximity query: the place, its vibes when a
// vibe record exists (nil otherwise, never an empty object), and the distance
// from the search point in kilometers rounded to two decimals.
type CafeResult struct {
	Place
	Vibes      *VibeRecord `json:"vibes"`
	DistanceKm float64     `json:"distance_km"`
}

// CityRequest is one row of the unbounded request log filled by the
// submission endpoint.
type CityRequest struct {
	City  string  `json:"city"`
	Email *string `json:"email,omitempty"`
}
