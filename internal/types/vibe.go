package types

// VibeRecord holds the AI-derived study-suitability attributes for exactly one
// place. Every field is optional: the extractor keeps whatever subset the model
// produced, and a nil pointer means the model did not answer for that field.
type VibeRecord struct {
	Summary      *string `json:"summary,omitempty"`
	SeatingTip   *string `json:"seating_tip,omitempty"`
	BusynessInfo *string `json:"busyness_info,omitempty"`

	NoiseLevel       *string `json:"noise_level,omitempty"`
	WifiQuality      *string `json:"wifi_quality,omitempty"`
	OutletsLevel     *string `json:"outlets_level,omitempty"`
	ComfortLevel     *string `json:"comfort_level,omitempty"`
	FoodType         *string `json:"food_type,omitempty"`
	GroupSuitability *string `json:"group_suitability,omitempty"`
	TimeLimitStatus  *string `json:"time_limit_status,omitempty"`
	BathroomStatus   *string `json:"bathroom_status,omitempty"`
	PricePerception  *string `json:"price_perception,omitempty"`

	VibeTags []string `json:"vibe_tags,omitempty"`
	BestFor  []string `json:"best_for,omitempty"`

	IsLateNight     *bool `json:"is_late_night,omitempty"`
	HasNaturalLight *bool `json:"has_natural_light,omitempty"`
}
