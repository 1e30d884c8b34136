package assistant

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stellarlinkco/stillwater/internal/oracle"
	"github.com/stellarlinkco/stillwater/internal/tracker"
)

const apologyReply = "Sorry, I'm having trouble reaching the assistant right now. Please try again in a moment."

const systemPromptHeader = `You are Still, a friendly and empathetic wellbeing assistant.
Guidelines:
- Be very specific about today's completed activities when asked
- Include timing information for activities when available
- If activities were completed today, acknowledge them positively
- If no activities were completed today, encourage starting with a simple one
- Keep responses conversational and natural
- Only mention crisis resources (988) if the user expresses serious distress`

// Service orchestrates one conversation turn: sentiment, mood transition,
// contextual reply, persistence. Construction wires the explicit mood
// state object rather than ambient globals.
type Service struct {
	store *tracker.Store
	mood  *tracker.Mood
	orc   oracle.Client
	clock *tracker.Clock
}

// Reply is the outcome of one turn. MoodNote is a presentation-only
// annotation, set when the applied delta crosses the display threshold;
// the transition itself is always persisted regardless.
type Reply struct {
	Text       string
	Sentiment  oracle.Sentiment
	Transition tracker.Transition
	MoodNote   string
}

func New(store *tracker.Store, mood *tracker.Mood, orc oracle.Client, clock *tracker.Clock) *Service {
	return &Service{store: store, mood: mood, orc: orc, clock: clock}
}

// Mood exposes the state machine for command handlers.
func (s *Service) Mood() *tracker.Mood {
	return s.mood
}

// Respond handles one user message. Oracle failures degrade to the local
// heuristic and the apology reply; store write failures are returned to
// the caller (losing a user's turn silently is worse than showing an
// error) with the reply still usable for display.
func (s *Service) Respond(text string) (Reply, error) {
	sent := oracle.Analyze(s.orc, text)

	transition, applyErr := s.mood.Apply(sent.Impact)

	replyText := s.chat(text)

	var reply Reply
	reply.Text = replyText
	reply.Sentiment = sent
	reply.Transition = transition
	if sent.Impact >= 0.01 {
		reply.MoodNote = fmt.Sprintf("Mood increased by %.2f (%.2f)", sent.Impact, transition.After)
	} else if sent.Impact <= -0.01 {
		reply.MoodNote = fmt.Sprintf("Mood decreased by %.2f (%.2f)", -sent.Impact, transition.After)
	}

	if applyErr != nil {
		return reply, applyErr
	}
	if err := s.store.AddChatEntry(text, replyText, sent.Score); err != nil {
		return reply, err
	}
	return reply, nil
}

func (s *Service) chat(userText string) string {
	if s.orc == nil {
		return apologyReply
	}

	history := s.history(3)
	system := s.buildSystemPrompt()

	replyText, err := s.orc.Chat(history, system, userText)
	if err != nil {
		log.Printf("[assistant] chat error: %v", err)
		return apologyReply
	}
	return replyText
}

// history returns the last n turns in chronological order, skipping slash
// commands: they are UI traffic, not conversation.
func (s *Service) history(n int) []oracle.Turn {
	chats, err := s.store.RecentChats(n)
	if err != nil {
		log.Printf("[assistant] load history warning: %v", err)
		return nil
	}

	turns := make([]oracle.Turn, 0, len(chats))
	for i := len(chats) - 1; i >= 0; i-- {
		if strings.HasPrefix(chats[i].UserMessage, "/") {
			continue
		}
		turns = append(turns, oracle.Turn{User: chats[i].UserMessage, Assistant: chats[i].Response})
	}
	return turns
}

func (s *Service) buildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(systemPromptHeader)

	sb.WriteString("\n\nToday's Activities:")
	if lines := s.todaysActivityLines(); len(lines) > 0 {
		for _, line := range lines {
			sb.WriteString("\n• ")
			sb.WriteString(line)
		}
	} else {
		sb.WriteString("\nNo activities completed today yet.")
	}

	if recent, points := s.activityHistory(); len(recent) > 0 {
		sb.WriteString("\n\nUser's recent activities: ")
		sb.WriteString(strings.Join(recent, ", "))
		sb.WriteString(fmt.Sprintf("\nTotal points earned: %d", points))
	}

	return sb.String()
}

// todaysActivityLines groups today's completions by category with times
// and notes, e.g. "Exercise: Walking (20pts at 08:15 AM) - Note: felt good".
func (s *Service) todaysActivityLines() []string {
	activities, err := s.store.TodaysActivities()
	if err != nil {
		log.Printf("[assistant] load today's activities warning: %v", err)
		return nil
	}
	if len(activities) == 0 {
		return nil
	}

	byCategory := make(map[string][]string)
	order := make([]string, 0)
	for _, a := range activities {
		entry := fmt.Sprintf("%s (%dpts at %s)", a.Name, a.Points, formatClockTime(a.Timestamp))
		if a.Notes != "" {
			entry += " - Note: " + a.Notes
		}
		if _, seen := byCategory[a.Category]; !seen {
			order = append(order, a.Category)
		}
		byCategory[a.Category] = append(byCategory[a.Category], entry)
	}

	lines := make([]string, 0, len(order))
	for _, category := range order {
		lines = append(lines, titleCase(category)+": "+strings.Join(byCategory[category], ", "))
	}
	return lines
}

func (s *Service) activityHistory() ([]string, int) {
	_, recent, err := s.store.Recommendations(0.5)
	if err != nil {
		log.Printf("[assistant] load activity history warning: %v", err)
		return nil, 0
	}
	points, err := s.store.TotalPoints()
	if err != nil {
		log.Printf("[assistant] load total points warning: %v", err)
		return recent, 0
	}
	return recent, points
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatClockTime(ts string) string {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		return ts
	}
	return t.Format("03:04 PM")
}
