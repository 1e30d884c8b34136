package gateway

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stellarlinkco/stillwater/internal/bus"
	"github.com/stellarlinkco/stillwater/internal/config"
	"github.com/stellarlinkco/stillwater/internal/oracle"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Tracker.Timezone = "UTC"
	cfg.Tracker.DBPath = filepath.Join(t.TempDir(), "tracker.db")
	return cfg
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long message", 10, "this is a ..."},
		{"", 5, ""},
	}

	for _, tt := range tests {
		got := truncate(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestNewWithOptions_MockOracle(t *testing.T) {
	cfg := testConfig(t)
	orc := &mockOracle{}

	g, err := NewWithOptions(cfg, Options{Oracle: orc})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	defer g.Shutdown()

	if g.orc != oracle.Client(orc) {
		t.Error("oracle should be the mock")
	}
	if g.bus == nil || g.store == nil || g.mood == nil || g.commands == nil || g.refresh == nil {
		t.Error("gateway wiring incomplete")
	}
	if len(g.channels.EnabledChannels()) != 0 {
		t.Errorf("channels = %v, want none enabled", g.channels.EnabledChannels())
	}
}

func TestNewWithOptions_BadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tracker.Timezone = "Not/AZone"

	if _, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}}); err == nil {
		t.Error("expected error for bad timezone")
	}
}

func TestNewWithOptions_TelegramWithoutToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.Channels.Telegram.Enabled = true

	if _, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}}); err == nil {
		t.Error("expected error for enabled telegram without token")
	}
}

func TestHandleMessage_Command(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	defer g.Shutdown()

	reply := g.HandleMessage("/mood")
	if !strings.Contains(reply, "0.50") {
		t.Errorf("reply = %q, want mood readout", reply)
	}
}

func TestHandleMessage_Conversation(t *testing.T) {
	cfg := testConfig(t)
	orc := &mockOracle{
		chatReply: "That sounds lovely!",
		sentiment: &oracle.Sentiment{Score: 0.9, Mood: "positive", Impact: 0.03, FromOracle: true},
	}
	g, err := NewWithOptions(cfg, Options{Oracle: orc})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	defer g.Shutdown()

	reply := g.HandleMessage("I went hiking today")
	if !strings.Contains(reply, "That sounds lovely!") {
		t.Errorf("reply = %q, want assistant text", reply)
	}
	if !strings.Contains(reply, "Mood increased by 0.03") {
		t.Errorf("reply = %q, want mood note appended", reply)
	}
}

func TestHandleMessage_Empty(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	defer g.Shutdown()

	if reply := g.HandleMessage("   "); reply != "" {
		t.Errorf("reply = %q, want empty for blank input", reply)
	}
}

func TestProcessLoop_RoutesReplies(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	defer g.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go g.processLoop(ctx)

	g.bus.Inbound <- bus.InboundMessage{
		Channel:  "telegram",
		SenderID: "1",
		ChatID:   "42",
		Content:  "/points",
	}

	select {
	case out := <-g.bus.Outbound:
		if out.Channel != "telegram" || out.ChatID != "42" {
			t.Errorf("outbound routing = %s/%s, want telegram/42", out.Channel, out.ChatID)
		}
		if !strings.Contains(out.Content, "Total points") {
			t.Errorf("content = %q, want points reply", out.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for outbound message")
	}
}

func TestProcessLoop_ExitsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	defer g.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.processLoop(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("processLoop did not exit after cancel")
	}
}

func TestGateway_Run_WithSignalChan(t *testing.T) {
	cfg := testConfig(t)
	sigCh := make(chan os.Signal, 1)

	g, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}, SignalChan: sigCh})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Run(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	sigCh <- os.Interrupt

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not exit after signal")
	}
}

func TestGateway_Shutdown(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewWithOptions(cfg, Options{Oracle: &mockOracle{}})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}

	if err := g.Shutdown(); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}
}
