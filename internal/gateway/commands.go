package gateway

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/stellarlinkco/stillwater/internal/oracle"
	"github.com/stellarlinkco/stillwater/internal/refresh"
	"github.com/stellarlinkco/stillwater/internal/tracker"
)

const helpText = `Commands:
/help - show this message
/mood - current mood score
/stats - aggregate stats panel
/today - today's completed activities
/week - this week's activity calendar
/trend - mood trend over the last 7 days
/suggest - activity suggestions for your mood
/generate - generate fresh activities
/complete <name> - mark an activity done
/custom <description> - add your own activity
/note <name>: <text> - attach a note to an activity
/delete <id> - remove a completion (undoes its points and notes)
/points - total points earned
/clear - wipe the chat transcript

Anything else is just conversation.`

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Commands routes slash commands to the tracker. Every handler returns user
// text; write failures come back as error lines rather than silence.
type Commands struct {
	store   *tracker.Store
	clock   *tracker.Clock
	mood    *tracker.Mood
	orc     oracle.Client
	refresh *refresh.Service
}

func NewCommands(store *tracker.Store, clock *tracker.Clock, mood *tracker.Mood, orc oracle.Client, refresh *refresh.Service) *Commands {
	return &Commands{store: store, clock: clock, mood: mood, orc: orc, refresh: refresh}
}

// Handle dispatches text starting with "/". The second return is false when
// the text is not a command and should go to the assistant instead.
func (c *Commands) Handle(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help", "/start":
		return helpText, true
	case "/mood":
		return c.handleMood(), true
	case "/stats":
		return c.handleStats(), true
	case "/today":
		return c.handleToday(), true
	case "/week":
		return c.handleWeek(), true
	case "/trend":
		return c.handleTrend(), true
	case "/suggest":
		return c.handleSuggest(), true
	case "/generate":
		return c.handleGenerate(), true
	case "/complete":
		return c.handleComplete(arg), true
	case "/custom":
		return c.handleCustom(arg), true
	case "/note":
		return c.handleNote(arg), true
	case "/delete":
		return c.handleDelete(arg), true
	case "/points":
		return c.handlePoints(), true
	case "/clear":
		return c.handleClear(), true
	default:
		return fmt.Sprintf("Unknown command %s. Try /help.", cmd), true
	}
}

func (c *Commands) handleMood() string {
	score := c.mood.Current()
	return fmt.Sprintf("Current mood: %.2f (%s)", score, tracker.BucketFor(score))
}

func (c *Commands) handleStats() string {
	snap := c.refresh.Snapshot()
	var b strings.Builder
	b.WriteString("📊 Stats\n")
	fmt.Fprintf(&b, "Today's mood average: %.2f\n", snap.DailyMood)
	fmt.Fprintf(&b, "Weekly mood average: %.2f\n", snap.WeeklyMood)
	fmt.Fprintf(&b, "Activities this week: %d\n", snap.WeeklyCount)
	fmt.Fprintf(&b, "Total points: %d", snap.TotalPoints)
	return b.String()
}

func (c *Commands) handleToday() string {
	acts, err := c.store.TodaysActivities()
	if err != nil {
		return "Error reading today's activities: " + err.Error()
	}
	if len(acts) == 0 {
		return "No activities completed today yet. /suggest can get you started."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today (%s):\n", c.clock.Today())
	for _, a := range acts {
		fmt.Fprintf(&b, "• [%d] %s (+%d pts, %s)", a.ID, a.Name, a.Points, a.Category)
		if a.Notes != "" {
			b.WriteString(" - " + a.Notes)
		}
		b.WriteString("\n")
	}
	b.WriteString("Use /delete <id> to remove one.")
	return b.String()
}

func (c *Commands) handleWeek() string {
	start := c.clock.StartOfWeek(c.clock.Now())
	roster, elapsed, err := c.store.WeekActivities()
	if err != nil {
		return "Error reading week calendar: " + err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Week of %s:\n", c.clock.DayKey(start))
	for i := 0; i < elapsed; i++ {
		if len(roster[i]) == 0 {
			fmt.Fprintf(&b, "%s: —\n", weekdayNames[i])
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", weekdayNames[i], strings.Join(roster[i], ", "))
	}

	stats, err := c.store.StatsForWeek(start)
	if err != nil {
		return strings.TrimRight(b.String(), "\n")
	}
	fmt.Fprintf(&b, "Total: %d activities, %d points, mood avg %.2f", stats.ActivityCount, stats.Points, stats.MoodAvg)
	return b.String()
}

func (c *Commands) handleTrend() string {
	points, err := c.store.MoodTrend(7)
	if err != nil {
		return "Error reading mood trend: " + err.Error()
	}
	if len(points) == 0 {
		return "No mood samples in the last 7 days."
	}

	var b strings.Builder
	b.WriteString("Mood trend (last 7 days):\n")
	for _, p := range points {
		// Deletion adjustments can push a day's average below zero.
		bars := int(p.AvgMood*10 + 0.5)
		if bars < 0 {
			bars = 0
		}
		fmt.Fprintf(&b, "%s %.2f %s (%d samples)\n", p.Day, p.AvgMood, strings.Repeat("▇", bars), p.Samples)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Commands) handleSuggest() string {
	score := c.mood.Current()
	picks, recent, err := c.store.Recommendations(score)
	if err != nil {
		return "Error building suggestions: " + err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suggestions for your mood (%.2f, %s):\n", score, tracker.RecommendedCategory(score))
	if len(picks) == 0 {
		b.WriteString("Nothing in that category yet, try /generate.\n")
	}
	for _, a := range picks {
		fmt.Fprintf(&b, "• %s (+%d pts) - %s\n", a.Name, a.Points, a.Description)
	}
	if len(recent) > 0 {
		b.WriteString("Recently completed: " + strings.Join(recent, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Commands) handleGenerate() string {
	_, recent, err := c.store.Recommendations(c.mood.Current())
	if err != nil {
		recent = nil
	}

	generated := oracle.Generate(c.orc, c.mood.Current(), recent)
	var b strings.Builder
	b.WriteString("New activities:\n")
	added := 0
	for _, a := range generated {
		_, err := c.store.AddActivity(tracker.Activity{
			Name:        a.Name,
			Description: a.Description,
			Points:      a.Points,
			Category:    a.Category,
		})
		if err != nil {
			// Duplicate names stay as they were.
			log.Printf("[commands] skip generated activity %q: %v", a.Name, err)
			continue
		}
		added++
		fmt.Fprintf(&b, "• %s (+%d pts, %s) - %s\n", a.Name, a.Points, a.Category, a.Description)
	}
	if added == 0 {
		return "No new activities this time, the generated ones already exist. /suggest shows the catalog picks."
	}
	b.WriteString("Complete one with /complete <name>.")
	return b.String()
}

func (c *Commands) handleComplete(name string) string {
	if name == "" {
		return "Usage: /complete <activity name>"
	}
	points, err := c.store.CompleteActivity(name)
	if err != nil {
		return "Error completing activity: " + err.Error()
	}
	if points == 0 {
		if _, lookupErr := c.store.ActivityByName(name); errors.Is(lookupErr, tracker.ErrNotFound) {
			return fmt.Sprintf("No activity named %q. /suggest lists some.", name)
		}
	}
	c.refresh.Refresh()
	return fmt.Sprintf("✅ %s completed, +%d points!", name, points)
}

func (c *Commands) handleCustom(description string) string {
	if description == "" {
		return "Usage: /custom <describe what you did>"
	}

	parsed := parseCustom(c.orc, description)
	if _, err := c.store.AddActivity(tracker.Activity{
		Name:        parsed.Name,
		Description: parsed.Description,
		Points:      parsed.Points,
		Category:    parsed.Category,
	}); err != nil {
		return "Error saving custom activity: " + err.Error()
	}

	points, err := c.store.CompleteActivity(parsed.Name)
	if err != nil {
		return "Error completing custom activity: " + err.Error()
	}
	c.refresh.Refresh()
	return fmt.Sprintf("✅ Added and completed %s (+%d pts, %s)", parsed.Name, points, parsed.Category)
}

func (c *Commands) handleNote(arg string) string {
	name, text, found := strings.Cut(arg, ":")
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)
	if !found || name == "" || text == "" {
		return "Usage: /note <activity name>: <your note>"
	}

	if err := c.store.AddNote(name, text); err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			return fmt.Sprintf("No activity named %q to note on.", name)
		}
		return "Error saving note: " + err.Error()
	}
	return fmt.Sprintf("📝 Note added to %s.", name)
}

func (c *Commands) handleDelete(arg string) string {
	if arg == "" {
		return "Usage: /delete <completion id> (ids are shown by /today)"
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Sprintf("%q is not a completion id. /today shows the ids.", arg)
	}

	if err := c.store.DeleteCompletion(id); err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			return fmt.Sprintf("No completion with id %d.", id)
		}
		return "Error deleting completion: " + err.Error()
	}
	c.refresh.Refresh()
	return fmt.Sprintf("🗑 Completion %d removed, its points and its day's notes undone.", id)
}

func (c *Commands) handlePoints() string {
	total, err := c.store.TotalPoints()
	if err != nil {
		return "Error reading points: " + err.Error()
	}
	return fmt.Sprintf("🏆 Total points: %d", total)
}

func (c *Commands) handleClear() string {
	if err := c.store.ClearHistory(); err != nil {
		return "Error clearing history: " + err.Error()
	}
	return "Chat history cleared. Mood and activity data are untouched."
}

// parseCustom structures a free-text activity, falling back to a plain
// mindfulness entry when the oracle is unreachable.
func parseCustom(orc oracle.Client, description string) oracle.Activity {
	if orc != nil {
		a, err := orc.ParseCustomActivity(description)
		if err == nil {
			return *a
		}
		log.Printf("[commands] custom parse failed, using fallback: %v", err)
	}

	name := description
	if words := strings.Fields(description); len(words) > 4 {
		name = strings.Join(words[:4], " ")
	}
	return oracle.Activity{
		Name:        name,
		Description: description,
		Points:      15,
		Category:    tracker.CategoryMindfulness,
	}
}
