package mining

import "fmt"

func vibeExtractionPrompt(reviewsText string) string {
	return fmt.Sprintf(`
        Analyze these reviews for a student study spot app.
        Infer each field from the reviews instead of answering "unknown".
        Return strictly ONE VALID JSON object. No markdown, no code fences.

        Reviews:
        %s

        Output format:
        {
            "noise_level": "Quiet" | "Moderate" | "Loud",
            "wifi": "Fast" | "Spotty" | "None",
            "outlets_level": "Many" | "Scarce" | "None",
            "comfort_level": "Cozy" | "Spacious" | "Hard Seats",
            "food_type": "Full Meals" | "Pastries" | "Coffee Only",

            "best_for": ["Study", "Social", "Group Work", "Date", "Lunch"],
            "group_suitability": "Good for Groups" | "Best for Pairs" | "Solo Only",
            "seating_tip": "Specific tip (e.g. 'Basement is quiet'). Max 8 words.",
            "busyness_info": "Crowd pattern (e.g. 'Packed Sat 2pm'). Max 8 words.",

            "is_late_night": true/false (true if reviews mention being open late or good for evenings),
            "time_limit_status": "None" | "Strict" | "Weekends Only",
            "bathroom_status": "Public" | "Code Required" | "None",
            "has_natural_light": true/false (look for 'bright', 'sunny', 'windows'),
            "price_perception": "Cheap" | "Fair" | "Pricey",

            "vibes": ["tag1", "tag2"],
            "summary": "1 short sentence summary."
        }
    `, reviewsText)
}
