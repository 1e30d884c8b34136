package oracle

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// completionServer returns a test server that answers chat completions with
// the given content, recording the last request body.
func completionServer(t *testing.T, content string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var lastReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&lastReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &lastReq
}

func testHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL:    baseURL,
		model:      "test-model",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestClient_Chat(t *testing.T) {
	srv, lastReq := completionServer(t, "hello there")
	c := testHTTPClient(srv.URL)

	reply, err := c.Chat([]Turn{{User: "hi", Assistant: "hey"}}, "be kind", "how are you")
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if reply != "hello there" {
		t.Errorf("reply = %q, want 'hello there'", reply)
	}

	msgs := (*lastReq)["messages"].([]any)
	if len(msgs) != 4 {
		t.Fatalf("messages len = %d, want 4 (history pair + system + user)", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "hi" {
		t.Errorf("messages[0] = %v, want history user turn", first)
	}
	system := msgs[2].(map[string]any)
	if system["role"] != "system" {
		t.Errorf("messages[2] role = %v, want system", system["role"])
	}
	if (*lastReq)["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", (*lastReq)["model"])
	}
}

func TestClient_Chat_SkipsEmptySystem(t *testing.T) {
	srv, lastReq := completionServer(t, "ok")
	c := testHTTPClient(srv.URL)

	if _, err := c.Chat(nil, "  ", "hello"); err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	msgs := (*lastReq)["messages"].([]any)
	if len(msgs) != 1 {
		t.Errorf("messages len = %d, want 1 (no system message)", len(msgs))
	}
}

func TestClient_AnalyzeSentiment_NoisyResponse(t *testing.T) {
	srv, _ := completionServer(t, "Sure, here is my analysis:\n```json\n{\"score\": 0.2, \"mood\": \"low\", \"impact\": -0.03}\n```")
	c := testHTTPClient(srv.URL)

	s, err := c.AnalyzeSentiment("feeling down")
	if err != nil {
		t.Fatalf("AnalyzeSentiment error: %v", err)
	}
	if s.Score != 0.2 || s.Mood != "low" || s.Impact != -0.03 {
		t.Errorf("sentiment = %+v, want score 0.2 low -0.03", s)
	}
	if !s.FromOracle {
		t.Error("FromOracle should be set")
	}
}

func TestClient_AnalyzeSentiment_NoJSON(t *testing.T) {
	srv, _ := completionServer(t, "I cannot answer that.")
	c := testHTTPClient(srv.URL)

	if _, err := c.AnalyzeSentiment("hello"); err == nil {
		t.Error("expected error for response without JSON")
	}
}

func TestClient_GenerateActivities_CoercesFloatPoints(t *testing.T) {
	srv, lastReq := completionServer(t, `[
		{"name": "Nature Walk", "description": "Walk outside", "points": 20.0, "category": "exercise"},
		{"name": "Gratitude List", "description": "Write 3 things", "points": 15, "category": "reflection"},
		{"name": "Box Breathing", "description": "Breathe in squares", "points": 10, "category": "mindfulness"}
	]`)
	c := testHTTPClient(srv.URL)

	activities, err := c.GenerateActivities(0.5, []string{"Walking"})
	if err != nil {
		t.Fatalf("GenerateActivities error: %v", err)
	}
	if len(activities) != 3 {
		t.Fatalf("len = %d, want 3", len(activities))
	}
	if activities[0].Points != 20 {
		t.Errorf("points = %d, want 20 (coerced from float)", activities[0].Points)
	}

	msgs := (*lastReq)["messages"].([]any)
	user := msgs[1].(map[string]any)["content"].(string)
	if !contains(user, "Walking") {
		t.Errorf("user message should mention recent activities, got %q", user)
	}
}

func TestClient_GenerateActivities_MissingKeys(t *testing.T) {
	srv, _ := completionServer(t, `[{"name": "Incomplete"}]`)
	c := testHTTPClient(srv.URL)

	if _, err := c.GenerateActivities(0.5, nil); err == nil {
		t.Error("expected error for activity missing keys")
	}
}

func TestClient_ParseCustomActivity(t *testing.T) {
	srv, _ := completionServer(t, `{"name": "Park Walk", "description": "Walked in the park", "points": 20, "category": "exercise"}`)
	c := testHTTPClient(srv.URL)

	a, err := c.ParseCustomActivity("went on a long walk in the park")
	if err != nil {
		t.Fatalf("ParseCustomActivity error: %v", err)
	}
	if a.Name != "Park Walk" || a.Points != 20 || a.Category != "exercise" {
		t.Errorf("activity = %+v, want Park Walk 20 exercise", a)
	}
}

func TestClient_Complete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()
	c := testHTTPClient(srv.URL)

	_, err := c.Chat(nil, "", "hello")
	if err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()
	c := testHTTPClient(srv.URL)

	if _, err := c.Chat(nil, "", "hello"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestClient_Complete_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"choices": [{"message": {"content": "ok"}}]}`)
	}))
	defer srv.Close()

	c := testHTTPClient(srv.URL)
	c.apiKey = "secret-key"

	if _, err := c.Chat(nil, "", "hello"); err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q, want Bearer secret-key", gotAuth)
	}
}

func TestClient_Complete_MissingConfig(t *testing.T) {
	c := &httpClient{httpClient: &http.Client{}}
	if _, err := c.Chat(nil, "", "hi"); err == nil {
		t.Error("expected error for missing base url")
	}

	c = &httpClient{baseURL: "http://localhost:9", httpClient: &http.Client{}}
	if _, err := c.Chat(nil, "", "hi"); err == nil {
		t.Error("expected error for missing model")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
