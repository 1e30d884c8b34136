package tracker

// Activity categories understood by the recommendation policy. Generated
// activities may also carry "social" or "creative"; the policy only ever
// selects from the first three.
const (
	CategoryMindfulness = "mindfulness"
	CategoryExercise    = "exercise"
	CategoryReflection  = "reflection"
	CategorySocial      = "social"
	CategoryCreative    = "creative"
	CategoryTracking    = "tracking"
)

// Mood display buckets. Labels only, never control flow.
const (
	MoodLow      = "low"
	MoodNeutral  = "neutral"
	MoodPositive = "positive"
)

// ChatEntry is one persisted conversation turn.
type ChatEntry struct {
	ID             int64
	Timestamp      string
	UserMessage    string
	Response       string
	SentimentScore float64
}

// Activity is a catalog entry. Name is the external key: lookups and
// completions are by name, the surrogate id exists for joins only.
type Activity struct {
	ID          int64
	Name        string
	Description string
	Points      int
	Category    string
}

// Completion is one user_progress row.
type Completion struct {
	ID           int64
	Timestamp    string
	ActivityID   int64
	Completed    bool
	PointsEarned int
}

// DayActivity is a completion joined to its activity and any same-day note.
// The note association is best-effort: notes reference the activity, not the
// completion row, so multiple same-day completions of one activity share it.
type DayActivity struct {
	ID        int64
	Name      string
	Category  string
	Points    int
	Notes     string
	Timestamp string
}

// TrendPoint is one calendar day of the mood trend. Days without samples are
// omitted, so a 7-day trend may hold fewer than 7 points.
type TrendPoint struct {
	Day     string
	AvgMood float64
	Samples int
}

// ProgressRow is a per-activity completion tally over the trailing week.
type ProgressRow struct {
	Name   string
	Count  int
	Points int
}

// WeekStats is the aggregate panel for one Monday-anchored week.
type WeekStats struct {
	ActivityCount int
	Points        int
	MoodAvg       float64
}

// WeekRoster holds activity names completed on each day of a week,
// index 0=Monday .. 6=Sunday. Every bucket is present even when empty.
type WeekRoster [7][]string

// BucketFor maps a mood score to its display bucket.
func BucketFor(score float64) string {
	switch {
	case score < 0.3:
		return MoodLow
	case score < 0.7:
		return MoodNeutral
	default:
		return MoodPositive
	}
}
