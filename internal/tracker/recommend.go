package tracker

import "fmt"

// RecommendedCategory maps a mood score onto the activity category the
// policy suggests: grounding activities when low, activating ones in the
// middle band, reflective ones when high.
func RecommendedCategory(mood float64) string {
	switch {
	case mood < 0.3:
		return CategoryMindfulness
	case mood < 0.7:
		return CategoryExercise
	default:
		return CategoryReflection
	}
}

// Recommendations returns up to 3 catalog entries of the category matching
// the mood score, sampled uniformly at random, plus up to 5 most recently
// completed distinct activity names from the trailing 7 days (most recent
// first). The two halves are read independently; callers combine them.
func (s *Store) Recommendations(mood float64) ([]Activity, []string, error) {
	category := RecommendedCategory(mood)

	rows, err := s.db.Query(`
		SELECT DISTINCT id, name, description, points, category
		FROM activities
		WHERE category = ?
		ORDER BY RANDOM()
		LIMIT 3
	`, category)
	if err != nil {
		return nil, nil, fmt.Errorf("recommendations: %w", err)
	}
	defer rows.Close()

	picks := make([]Activity, 0, 3)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Points, &a.Category); err != nil {
			return nil, nil, fmt.Errorf("scan recommendation: %w", err)
		}
		picks = append(picks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate recommendations: %w", err)
	}

	recent, err := s.recentCompletionNames(5)
	if err != nil {
		return nil, nil, err
	}
	return picks, recent, nil
}

func (s *Store) recentCompletionNames(limit int) ([]string, error) {
	weekAgo := s.clock.Timestamp(s.clock.Now().AddDate(0, 0, -7))
	rows, err := s.db.Query(`
		SELECT a.name
		FROM user_progress p
		JOIN activities a ON p.activity_id = a.id
		WHERE p.timestamp > ?
		GROUP BY a.name
		ORDER BY MAX(p.timestamp) DESC
		LIMIT ?
	`, weekAgo, limit)
	if err != nil {
		return nil, fmt.Errorf("recent completions: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, limit)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan recent completion: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent completions: %w", err)
	}
	return names, nil
}
