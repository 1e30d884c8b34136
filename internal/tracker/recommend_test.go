package tracker

import (
	"testing"
	"time"
)

func TestRecommendedCategory_Boundaries(t *testing.T) {
	tests := []struct {
		mood float64
		want string
	}{
		{0.0, CategoryMindfulness},
		{0.29, CategoryMindfulness},
		{0.3, CategoryExercise},
		{0.5, CategoryExercise},
		{0.69, CategoryExercise},
		{0.7, CategoryReflection},
		{1.0, CategoryReflection},
	}
	for _, tt := range tests {
		if got := RecommendedCategory(tt.mood); got != tt.want {
			t.Errorf("RecommendedCategory(%.2f) = %s, want %s", tt.mood, got, tt.want)
		}
	}
}

func TestBucketFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.0, MoodLow},
		{0.3, MoodNeutral},
		{0.7, MoodPositive},
	}
	for _, tt := range tests {
		if got := BucketFor(tt.score); got != tt.want {
			t.Errorf("BucketFor(%.2f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestRecommendations_CategoryPure(t *testing.T) {
	s, _ := testStore(t)

	// Low mood selects mindfulness; the seed catalog has exactly two.
	picks, _, err := s.Recommendations(0.1)
	if err != nil {
		t.Fatalf("Recommendations error: %v", err)
	}
	if len(picks) != 2 {
		t.Fatalf("picks = %d, want 2", len(picks))
	}
	for _, a := range picks {
		if a.Category != CategoryMindfulness {
			t.Errorf("pick %s category = %s, want mindfulness", a.Name, a.Category)
		}
	}
}

func TestRecommendations_AtMostThree(t *testing.T) {
	s, _ := testStore(t)

	for _, name := range []string{"Calm A", "Calm B", "Calm C"} {
		if _, err := s.AddActivity(Activity{Name: name, Points: 10, Category: CategoryMindfulness}); err != nil {
			t.Fatalf("AddActivity error: %v", err)
		}
	}

	picks, _, err := s.Recommendations(0.1)
	if err != nil {
		t.Fatalf("Recommendations error: %v", err)
	}
	if len(picks) != 3 {
		t.Errorf("picks = %d, want 3", len(picks))
	}
}

func TestRecommendations_RecentNames(t *testing.T) {
	s, setNow := testStore(t)

	now := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

	setNow(now.Add(-2 * time.Hour))
	_, _ = s.CompleteActivity("Walking")
	setNow(now.Add(-time.Hour))
	_, _ = s.CompleteActivity("Meditation")
	setNow(now)
	_, _ = s.CompleteActivity("Walking") // repeat: dedup, bumps recency

	_, recent, err := s.Recommendations(0.5)
	if err != nil {
		t.Fatalf("Recommendations error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %v, want 2 distinct names", recent)
	}
	if recent[0] != "Walking" || recent[1] != "Meditation" {
		t.Errorf("recent = %v, want [Walking Meditation]", recent)
	}
}

func TestRecommendations_RecentCapAtFive(t *testing.T) {
	s, setNow := testStore(t)

	now := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)
	names := []string{"A1", "A2", "A3", "A4", "A5", "A6"}
	for i, name := range names {
		if _, err := s.AddActivity(Activity{Name: name, Points: 5, Category: CategoryCreative}); err != nil {
			t.Fatalf("AddActivity error: %v", err)
		}
		setNow(now.Add(time.Duration(i) * time.Minute))
		_, _ = s.CompleteActivity(name)
	}

	_, recent, err := s.Recommendations(0.5)
	if err != nil {
		t.Fatalf("Recommendations error: %v", err)
	}
	if len(recent) != 5 {
		t.Errorf("recent len = %d, want 5", len(recent))
	}
	if recent[0] != "A6" {
		t.Errorf("recent[0] = %s, want A6 (most recent first)", recent[0])
	}
}
