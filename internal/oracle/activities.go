package oracle

import "log"

// Generate asks the oracle for three activities suited to the mood score,
// substituting the static fallback table for that mood bucket when the
// oracle is unavailable or its output does not parse.
func Generate(c Client, moodScore float64, recent []string) []Activity {
	if c != nil {
		activities, err := c.GenerateActivities(moodScore, recent)
		if err == nil {
			return activities
		}
		log.Printf("[oracle] activity generation failed, using fallback list: %v", err)
	}
	return FallbackActivities(moodLabel(moodScore))
}

// FallbackActivities is the fixed per-bucket activity table used when
// generation fails. Unknown buckets get the neutral list.
func FallbackActivities(bucket string) []Activity {
	switch bucket {
	case "low":
		return []Activity{
			{Name: "Gentle Breathing", Description: "Take 10 deep breaths", Points: 10, Category: "mindfulness"},
			{Name: "Comfort Music", Description: "Listen to your favorite calm song", Points: 15, Category: "mindfulness"},
			{Name: "Mood Journal", Description: "Write down your current feelings", Points: 20, Category: "reflection"},
		}
	case "positive":
		return []Activity{
			{Name: "Share Joy", Description: "Send a positive message to someone", Points: 20, Category: "social"},
			{Name: "Creative Time", Description: "Draw or doodle for 5 minutes", Points: 15, Category: "creative"},
			{Name: "Achievement List", Description: "Write down 3 recent accomplishments", Points: 15, Category: "reflection"},
		}
	default:
		return []Activity{
			{Name: "Quick Walk", Description: "Take a 5-minute walk", Points: 15, Category: "exercise"},
			{Name: "Gratitude", Description: "List 3 good things about today", Points: 10, Category: "reflection"},
			{Name: "Stretch Break", Description: "Do some basic stretches", Points: 10, Category: "exercise"},
		}
	}
}
