package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stellarlinkco/stillwater/internal/config"
)

const (
	sentimentPrompt = `Analyze the emotional state in this message.
Respond ONLY with a JSON object containing:
- score: float between 0-1 (0 = very negative, 1 = very positive)
- mood: string (low/neutral/positive)
- impact: float between -0.05 and 0.05 (how much this should affect overall mood)
Example: {"score": 0.2, "mood": "low", "impact": -0.03}`

	generatePrompt = `You are an assistant that generates mental health activities.
Respond ONLY with a JSON array containing exactly 3 activities.
Each activity must be a JSON object with these exact keys:
- "name": string
- "description": string
- "points": integer between 5 and 30
- "category": string, one of ["mindfulness", "exercise", "reflection", "social", "creative"]

Example response format:
[
    {"name": "Nature Walk", "description": "Take a 10-minute walk outside and observe nature", "points": 20, "category": "exercise"},
    {"name": "Gratitude List", "description": "Write down three things you're grateful for", "points": 15, "category": "reflection"},
    {"name": "Deep Breathing", "description": "Practice deep breathing for 5 minutes", "points": 10, "category": "mindfulness"}
]`

	parseCustomPrompt = `You are an assistant that categorizes and scores mental health activities.
Convert the user's activity description into a structured format.
Respond ONLY with a JSON object containing:
- "name": A concise 2-4 word title for the activity
- "description": A clear, brief description
- "points": integer between 5-30 based on effort/impact
- "category": one of ["mindfulness", "exercise", "reflection", "social", "creative"]

Example: "went on a long walk in the park" becomes:
{"name": "Park Walk", "description": "Took an extended walk in the park", "points": 20, "category": "exercise"}`
)

// Turn is one prior user/assistant exchange supplied as chat context.
type Turn struct {
	User      string
	Assistant string
}

// Sentiment is the oracle's (or the fallback's) reading of one message.
// Impact is the bounded mood delta the state machine folds in.
type Sentiment struct {
	Score  float64 `json:"score"`
	Mood   string  `json:"mood"`
	Impact float64 `json:"impact"`

	// FromOracle distinguishes a model answer from the local heuristic.
	FromOracle bool `json:"-"`
}

// Activity is a catalog candidate produced by generation or custom parsing.
type Activity struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Category    string `json:"category"`
}

// Client is the sentiment/assistant oracle. All methods are blocking
// network calls bounded by the HTTP client timeout; callers keep them off
// the interactive path. Every method can fail and every call site has a
// deterministic fallback.
type Client interface {
	Chat(history []Turn, system, user string) (string, error)
	AnalyzeSentiment(text string) (*Sentiment, error)
	GenerateActivities(moodScore float64, recent []string) ([]Activity, error)
	ParseCustomActivity(description string) (*Activity, error)
}

type httpClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient builds a client for any OpenAI-compatible chat-completions
// endpoint (Ollama's /v1 included).
func NewClient(cfg *config.Config) Client {
	return &httpClient{
		apiKey:     cfg.Provider.APIKey,
		baseURL:    cfg.Provider.BaseURL,
		model:      cfg.Provider.Model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *httpClient) Chat(history []Turn, system, user string) (string, error) {
	messages := make([]chatMessage, 0, len(history)*2+2)
	for _, t := range history {
		messages = append(messages,
			chatMessage{Role: "user", Content: t.User},
			chatMessage{Role: "assistant", Content: t.Assistant},
		)
	}
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})
	return c.complete(messages)
}

func (c *httpClient) AnalyzeSentiment(text string) (*Sentiment, error) {
	raw, err := c.complete([]chatMessage{
		{Role: "system", Content: sentimentPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze sentiment: %w", err)
	}

	obj, ok := firstJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("analyze sentiment: no JSON object in response")
	}
	var s Sentiment
	if err := json.Unmarshal([]byte(obj), &s); err != nil {
		return nil, fmt.Errorf("parse sentiment: %w", err)
	}
	s.FromOracle = true
	return &s, nil
}

func (c *httpClient) GenerateActivities(moodScore float64, recent []string) ([]Activity, error) {
	userMsg := fmt.Sprintf(
		"Generate 3 unique activities for %s mood (score: %.2f).",
		moodLabel(moodScore), moodScore,
	)
	if len(recent) > 0 {
		userMsg += "\nRecently completed activities: " + strings.Join(recent, ", ")
	}
	userMsg += "\nMake them specific, achievable within 30 minutes, and appropriate for the current mood."

	raw, err := c.complete([]chatMessage{
		{Role: "system", Content: generatePrompt},
		{Role: "user", Content: userMsg},
	})
	if err != nil {
		return nil, fmt.Errorf("generate activities: %w", err)
	}

	arr, ok := firstJSONArray(raw)
	if !ok {
		return nil, fmt.Errorf("generate activities: no JSON array in response")
	}
	activities, err := decodeActivities([]byte(arr))
	if err != nil {
		return nil, fmt.Errorf("generate activities: %w", err)
	}
	return activities, nil
}

func (c *httpClient) ParseCustomActivity(description string) (*Activity, error) {
	raw, err := c.complete([]chatMessage{
		{Role: "system", Content: parseCustomPrompt},
		{Role: "user", Content: "Parse this activity: " + description},
	})
	if err != nil {
		return nil, fmt.Errorf("parse custom activity: %w", err)
	}

	obj, ok := firstJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("parse custom activity: no JSON object in response")
	}
	a, err := decodeActivity([]byte(obj))
	if err != nil {
		return nil, fmt.Errorf("parse custom activity: %w", err)
	}
	return a, nil
}

func (c *httpClient) complete(messages []chatMessage) (string, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(c.baseURL), "/")
	if baseURL == "" {
		return "", fmt.Errorf("missing oracle base url")
	}
	if c.model == "" {
		return "", fmt.Errorf("missing oracle model")
	}

	payload, err := json.Marshal(map[string]any{
		"model":    c.model,
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("oracle http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content in response")
	}
	return content, nil
}

// decodeActivities validates the generated list: required keys present and
// points coerced to int (models occasionally emit floats).
func decodeActivities(data []byte) ([]Activity, error) {
	var raw []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Points      *float64 `json:"points"`
		Category    string   `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	result := make([]Activity, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" || r.Description == "" || r.Category == "" || r.Points == nil {
			return nil, fmt.Errorf("invalid activity format")
		}
		result = append(result, Activity{
			Name:        r.Name,
			Description: r.Description,
			Points:      int(*r.Points),
			Category:    r.Category,
		})
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("empty activity list")
	}
	return result, nil
}

func decodeActivity(data []byte) (*Activity, error) {
	activities, err := decodeActivities(append(append([]byte{'['}, data...), ']'))
	if err != nil {
		return nil, err
	}
	return &activities[0], nil
}

func moodLabel(score float64) string {
	switch {
	case score < 0.3:
		return "low"
	case score < 0.7:
		return "neutral"
	default:
		return "positive"
	}
}
