package tracker

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Aggregation queries. All date bucketing happens inside SQLite on the
// naive reporting-zone timestamps written by the store; callers never
// re-bucket in Go.

// DailyMood returns the mean mood score and sample count for one calendar
// day. Zero samples yield (0.0, 0).
func (s *Store) DailyMood(day time.Time) (float64, int, error) {
	row := s.db.QueryRow(`
		SELECT COALESCE(AVG(mood_score), 0), COUNT(*)
		FROM mood_tracking
		WHERE date(timestamp) = ?
	`, s.clock.DayKey(day))
	var avg float64
	var n int
	if err := row.Scan(&avg, &n); err != nil {
		return 0, 0, fmt.Errorf("daily mood: %w", err)
	}
	return avg, n, nil
}

// DailyMoodAverage is the mean mood for the given day, 0.0 when empty.
func (s *Store) DailyMoodAverage(day time.Time) (float64, error) {
	avg, _, err := s.DailyMood(day)
	return avg, err
}

// WeeklyMoodAverage is the mean mood over the trailing 7 days, 0.0 when empty.
func (s *Store) WeeklyMoodAverage() (float64, error) {
	weekAgo := s.clock.Timestamp(s.clock.Now().AddDate(0, 0, -7))
	row := s.db.QueryRow(`
		SELECT COALESCE(AVG(mood_score), 0)
		FROM mood_tracking
		WHERE timestamp > ?
	`, weekAgo)
	var avg float64
	if err := row.Scan(&avg); err != nil {
		return 0, fmt.Errorf("weekly mood average: %w", err)
	}
	return avg, nil
}

// MoodTrend returns per-day mood averages for the window ending today,
// ascending by date. Only days with at least one sample appear; callers
// must not assume a dense days-length sequence.
func (s *Store) MoodTrend(days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 7
	}
	start := s.clock.DayKey(s.clock.Now().AddDate(0, 0, -(days - 1)))
	rows, err := s.db.Query(`
		SELECT date(timestamp) AS day, AVG(mood_score), COUNT(*)
		FROM mood_tracking
		WHERE date(timestamp) >= ?
		GROUP BY date(timestamp)
		ORDER BY date(timestamp)
	`, start)
	if err != nil {
		return nil, fmt.Errorf("mood trend: %w", err)
	}
	defer rows.Close()

	result := make([]TrendPoint, 0)
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Day, &p.AvgMood, &p.Samples); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend: %w", err)
	}
	return result, nil
}

// WeeklyProgress tallies completions per activity name over the trailing
// 7 days.
func (s *Store) WeeklyProgress() ([]ProgressRow, error) {
	weekAgo := s.clock.Timestamp(s.clock.Now().AddDate(0, 0, -7))
	rows, err := s.db.Query(`
		SELECT a.name, COUNT(*), COALESCE(SUM(p.points_earned), 0)
		FROM user_progress p
		JOIN activities a ON p.activity_id = a.id
		WHERE p.timestamp > ?
		GROUP BY a.name
	`, weekAgo)
	if err != nil {
		return nil, fmt.Errorf("weekly progress: %w", err)
	}
	defer rows.Close()

	result := make([]ProgressRow, 0)
	for rows.Next() {
		var r ProgressRow
		if err := rows.Scan(&r.Name, &r.Count, &r.Points); err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return result, nil
}

// ActivitiesForWeek enumerates completed activity names for the 7 days
// starting at startOfWeek (Monday). The date sequence is generated inside
// SQLite so every bucket exists even with zero completions; a calendar UI
// always gets a full week.
func (s *Store) ActivitiesForWeek(startOfWeek time.Time) (WeekRoster, error) {
	var roster WeekRoster
	for i := range roster {
		roster[i] = []string{}
	}

	startKey := s.clock.DayKey(startOfWeek)
	endKey := s.clock.DayKey(startOfWeek.AddDate(0, 0, 6))
	if err := s.fillRoster(&roster, startKey, endKey); err != nil {
		return roster, fmt.Errorf("activities for week: %w", err)
	}
	return roster, nil
}

// WeekActivities enumerates completed activity names for the current week,
// capped at today: the date sequence stops at the current day, so future
// weekday buckets are never generated. The second return is the number of
// elapsed day buckets (today's Monday-first index plus one).
func (s *Store) WeekActivities() (WeekRoster, int, error) {
	var roster WeekRoster
	for i := range roster {
		roster[i] = []string{}
	}

	now := s.clock.Now()
	elapsed := WeekdayIndex(now) + 1
	startKey := s.clock.DayKey(s.clock.StartOfWeek(now))
	todayKey := s.clock.DayKey(now)
	if err := s.fillRoster(&roster, startKey, todayKey); err != nil {
		return roster, elapsed, fmt.Errorf("week activities: %w", err)
	}
	return roster, elapsed, nil
}

func (s *Store) fillRoster(roster *WeekRoster, startKey, endKey string) error {
	rows, err := s.db.Query(`
		WITH RECURSIVE dates(date) AS (
			SELECT date(?)
			UNION ALL
			SELECT date(date, '+1 day')
			FROM dates
			WHERE date < date(?, '+6 day')
		)
		SELECT
			CAST(strftime('%w', d.date) AS INTEGER) AS day_index,
			GROUP_CONCAT(a.name) AS names
		FROM dates d
		LEFT JOIN user_progress p ON date(p.timestamp) = d.date
		LEFT JOIN activities a ON p.activity_id = a.id
		WHERE d.date <= date(?)
		GROUP BY d.date
		ORDER BY d.date
	`, startKey, startKey, endKey)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sqliteDay int
		var names sql.NullString
		if err := rows.Scan(&sqliteDay, &names); err != nil {
			return fmt.Errorf("scan week roster: %w", err)
		}
		// strftime('%w'): 0=Sunday. Remap to 0=Monday.
		idx := sqliteDay - 1
		if sqliteDay == 0 {
			idx = 6
		}
		if names.Valid && names.String != "" {
			roster[idx] = strings.Split(names.String, ",")
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate week roster: %w", err)
	}
	return nil
}

// DayActivities lists completions for one calendar day, newest first, with
// best-effort same-day notes attached.
func (s *Store) DayActivities(day time.Time) ([]DayActivity, error) {
	rows, err := s.db.Query(`
		SELECT
			p.id,
			a.name,
			a.category,
			p.points_earned,
			COALESCE(n.notes, ''),
			p.timestamp
		FROM user_progress p
		JOIN activities a ON p.activity_id = a.id
		LEFT JOIN activity_notes n ON n.activity_id = p.activity_id
			AND date(n.timestamp) = date(p.timestamp)
		WHERE date(p.timestamp) = ?
		GROUP BY p.id
		ORDER BY p.timestamp DESC
	`, s.clock.DayKey(day))
	if err != nil {
		return nil, fmt.Errorf("day activities: %w", err)
	}
	defer rows.Close()

	result := make([]DayActivity, 0)
	for rows.Next() {
		var d DayActivity
		if err := rows.Scan(&d.ID, &d.Name, &d.Category, &d.Points, &d.Notes, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan day activity: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day activities: %w", err)
	}
	return result, nil
}

// TodaysActivities lists today's completions.
func (s *Store) TodaysActivities() ([]DayActivity, error) {
	return s.DayActivities(s.clock.Now())
}

// StatsForWeek aggregates completions and mood over the 7 days starting at
// startOfWeek. Empty windows yield zero values.
func (s *Store) StatsForWeek(startOfWeek time.Time) (WeekStats, error) {
	startKey := s.clock.DayKey(startOfWeek)
	endKey := s.clock.DayKey(startOfWeek.AddDate(0, 0, 6))

	var stats WeekStats
	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(points_earned), 0)
		FROM user_progress
		WHERE date(timestamp) BETWEEN ? AND ?
	`, startKey, endKey)
	if err := row.Scan(&stats.ActivityCount, &stats.Points); err != nil {
		return stats, fmt.Errorf("week stats: %w", err)
	}

	row = s.db.QueryRow(`
		SELECT COALESCE(AVG(mood_score), 0)
		FROM mood_tracking
		WHERE date(timestamp) BETWEEN ? AND ?
	`, startKey, endKey)
	if err := row.Scan(&stats.MoodAvg); err != nil {
		return stats, fmt.Errorf("week stats mood: %w", err)
	}
	return stats, nil
}

// TotalPoints sums every completion's frozen point value, 0 when empty.
func (s *Store) TotalPoints() (int, error) {
	row := s.db.QueryRow(`SELECT COALESCE(SUM(points_earned), 0) FROM user_progress`)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("total points: %w", err)
	}
	return total, nil
}

// WeeklyActivityCount counts completions over the trailing 7 days.
func (s *Store) WeeklyActivityCount() (int, error) {
	weekAgo := s.clock.Timestamp(s.clock.Now().AddDate(0, 0, -7))
	row := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM user_progress
		WHERE timestamp > ?
	`, weekAgo)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("weekly activity count: %w", err)
	}
	return count, nil
}
