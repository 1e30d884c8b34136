package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup by id or name matches no row.
var ErrNotFound = errors.New("tracker: not found")

// Store is the durable event store for chat turns, mood samples, the
// activity catalog, completions and notes. Reads return documented zero
// defaults on empty data; writes commit immediately except
// DeleteCompletion, which is a single atomic unit.
type Store struct {
	db    *sql.DB
	clock *Clock
	mu    sync.Mutex
}

// Open opens (creating if needed) the tracker database at dbPath, applies
// pragmas, creates the schema if absent and seeds the default activity
// catalog when empty. Startup never destructively alters existing rows.
func Open(dbPath string, clock *Clock) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db, clock: clock}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.seedDefaults(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			sentiment_score REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS mood_tracking (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			mood_score REAL NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT 'mindfulness'
		)`,
		`CREATE TABLE IF NOT EXISTS user_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			activity_id INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 1,
			points_earned INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (activity_id) REFERENCES activities (id)
		)`,
		`CREATE TABLE IF NOT EXISTS activity_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			activity_id INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			notes TEXT NOT NULL,
			FOREIGN KEY (activity_id) REFERENCES activities (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_timestamp ON chat_history(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_timestamp ON mood_tracking(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_timestamp ON user_progress(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_activity ON activity_notes(activity_id, timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) seedDefaults() error {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM activities`)
	var count int
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("count activities: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []Activity{
		{Name: "Deep Breathing", Description: "Practice deep breathing for 5 minutes", Points: 10, Category: CategoryMindfulness},
		{Name: "Gratitude Journal", Description: "Write down 3 things you are grateful for", Points: 15, Category: CategoryReflection},
		{Name: "Walking", Description: "Take a 10-minute walk outside", Points: 20, Category: CategoryExercise},
		{Name: "Meditation", Description: "Complete a 5-minute guided meditation", Points: 25, Category: CategoryMindfulness},
		{Name: "Mood Check-in", Description: "Record your current mood and feelings", Points: 5, Category: CategoryTracking},
	}
	for _, a := range defaults {
		if _, err := s.db.Exec(`
			INSERT INTO activities (name, description, points, category)
			VALUES (?, ?, ?, ?)
		`, a.Name, a.Description, a.Points, a.Category); err != nil {
			return fmt.Errorf("seed activities: %w", err)
		}
	}
	return nil
}

// AddChatEntry persists one conversation turn with its sentiment score.
func (s *Store) AddChatEntry(userMessage, response string, sentiment float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO chat_history (timestamp, message, response, sentiment_score)
		VALUES (?, ?, ?, ?)
	`, s.clock.Timestamp(s.clock.Now()), userMessage, response, sentiment)
	if err != nil {
		return fmt.Errorf("add chat entry: %w", err)
	}
	return nil
}

// RecentChats returns the latest turns, most recent first.
func (s *Store) RecentChats(limit int) ([]ChatEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, timestamp, message, response, sentiment_score
		FROM chat_history
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent chats: %w", err)
	}
	defer rows.Close()
	return scanChats(rows)
}

// AllChats returns the full transcript in chronological order.
func (s *Store) AllChats() ([]ChatEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, message, response, sentiment_score
		FROM chat_history
		ORDER BY timestamp ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("all chats: %w", err)
	}
	defer rows.Close()
	return scanChats(rows)
}

// ClearHistory deletes the chat transcript in bulk. Mood history and
// activity data are untouched.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM chat_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// AddMoodSample records a mood score at the current instant.
func (s *Store) AddMoodSample(score float64, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO mood_tracking (timestamp, mood_score, notes)
		VALUES (?, ?, ?)
	`, s.clock.Timestamp(s.clock.Now()), score, notes)
	if err != nil {
		return fmt.Errorf("add mood sample: %w", err)
	}
	return nil
}

// AddActivity inserts a catalog entry and returns its id. Names are unique;
// inserting a duplicate fails rather than shadowing the existing entry.
func (s *Store) AddActivity(a Activity) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(a.Name)
	if name == "" {
		return 0, fmt.Errorf("add activity: empty name")
	}
	if a.Points < 0 {
		return 0, fmt.Errorf("add activity %q: negative points", name)
	}
	res, err := s.db.Exec(`
		INSERT INTO activities (name, description, points, category)
		VALUES (?, ?, ?, ?)
	`, name, a.Description, a.Points, a.Category)
	if err != nil {
		return 0, fmt.Errorf("add activity %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add activity %q: %w", name, err)
	}
	return id, nil
}

// ActivityByName looks up a catalog entry by its external key.
func (s *Store) ActivityByName(name string) (*Activity, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, points, category
		FROM activities
		WHERE name = ?
	`, name)
	var a Activity
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Points, &a.Category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("activity by name: %w", err)
	}
	return &a, nil
}

// Activities returns the full catalog.
func (s *Store) Activities() ([]Activity, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, points, category
		FROM activities
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	result := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Points, &a.Category); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return result, nil
}

// CompleteActivity records a completion of the named activity, freezing its
// current point value into the row. Unknown names are a soft no-op returning
// zero points: never block the user over a typo.
func (s *Store) CompleteActivity(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, points FROM activities WHERE name = ?`, name)
	var id int64
	var points int
	if err := row.Scan(&id, &points); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("complete activity %q: %w", name, err)
	}

	_, err := s.db.Exec(`
		INSERT INTO user_progress (timestamp, activity_id, completed, points_earned)
		VALUES (?, ?, 1, ?)
	`, s.clock.Timestamp(s.clock.Now()), id, points)
	if err != nil {
		return 0, fmt.Errorf("complete activity %q: %w", name, err)
	}
	return points, nil
}

// AddNote attaches a note to the named activity at the current instant.
// Notes associate to completions by same-day proximity, not a direct
// foreign key; with multiple same-day completions of one activity the
// association is best-effort.
func (s *Store) AddNote(activityName, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id FROM activities WHERE name = ?`, activityName)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("add note: activity %q: %w", activityName, ErrNotFound)
		}
		return fmt.Errorf("add note: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT INTO activity_notes (activity_id, timestamp, notes)
		VALUES (?, ?, ?)
	`, id, s.clock.Timestamp(s.clock.Now()), text)
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	return nil
}

// DeleteCompletion removes one completion and undoes its footprint on the
// completion's own calendar day: that day's notes for the activity are
// deleted and every mood sample of that day is decremented by points*0.01.
// Completion ids are durable, so the day comes from the stored row, never
// from the caller's clock. The whole unit is one transaction; on any
// failure nothing is observable.
func (s *Store) DeleteCompletion(completionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete completion: begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		SELECT id, timestamp, date(timestamp), activity_id, completed, points_earned
		FROM user_progress
		WHERE id = ?
	`, completionID)
	var comp Completion
	var dayKey string
	if err := row.Scan(&comp.ID, &comp.Timestamp, &dayKey, &comp.ActivityID, &comp.Completed, &comp.PointsEarned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete completion %d: %w", completionID, ErrNotFound)
		}
		return fmt.Errorf("delete completion %d: %w", completionID, err)
	}

	if _, err := tx.Exec(`DELETE FROM user_progress WHERE id = ?`, completionID); err != nil {
		return fmt.Errorf("delete completion %d: %w", completionID, err)
	}

	if _, err := tx.Exec(`
		DELETE FROM activity_notes
		WHERE activity_id = ? AND date(timestamp) = ?
	`, comp.ActivityID, dayKey); err != nil {
		return fmt.Errorf("delete completion %d: notes: %w", completionID, err)
	}

	// Fixed coupling between points and mood: every sample of that day is
	// adjusted, approximating the undo of the activity's mood effect.
	if _, err := tx.Exec(`
		UPDATE mood_tracking
		SET mood_score = mood_score - ?
		WHERE date(timestamp) = ?
	`, float64(comp.PointsEarned)*0.01, dayKey); err != nil {
		return fmt.Errorf("delete completion %d: mood adjust: %w", completionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete completion %d: commit: %w", completionID, err)
	}
	return nil
}

func scanChats(rows *sql.Rows) ([]ChatEntry, error) {
	result := make([]ChatEntry, 0)
	for rows.Next() {
		var c ChatEntry
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.UserMessage, &c.Response, &c.SentimentScore); err != nil {
			return nil, fmt.Errorf("scan chat entry: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return result, nil
}
