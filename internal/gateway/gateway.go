package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/stellarlinkco/stillwater/internal/assistant"
	"github.com/stellarlinkco/stillwater/internal/bus"
	"github.com/stellarlinkco/stillwater/internal/channel"
	"github.com/stellarlinkco/stillwater/internal/config"
	"github.com/stellarlinkco/stillwater/internal/oracle"
	"github.com/stellarlinkco/stillwater/internal/refresh"
	"github.com/stellarlinkco/stillwater/internal/tracker"
)

// Options for creating a Gateway
type Options struct {
	Oracle     oracle.Client  // injected oracle for testing
	SignalChan chan os.Signal // for testing signal handling
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	store      *tracker.Store
	clock      *tracker.Clock
	mood       *tracker.Mood
	orc        oracle.Client
	assistant  *assistant.Service
	commands   *Commands
	channels   *channel.ChannelManager
	refresh    *refresh.Service
	signalChan chan os.Signal
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	clock, err := tracker.NewClock(cfg.Tracker.Timezone)
	if err != nil {
		return nil, fmt.Errorf("create clock: %w", err)
	}
	g.clock = clock

	store, err := tracker.Open(cfg.DBPath(), clock)
	if err != nil {
		return nil, fmt.Errorf("open tracker store: %w", err)
	}
	g.store = store

	mood, err := tracker.NewMood(store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init mood state: %w", err)
	}
	g.mood = mood

	g.orc = opts.Oracle
	if g.orc == nil {
		g.orc = oracle.NewClient(cfg)
	}

	g.assistant = assistant.New(store, mood, g.orc, clock)
	g.refresh = refresh.NewService(store, clock)
	g.commands = NewCommands(store, clock, mood, g.orc, g.refresh)

	g.signalChan = opts.SignalChan

	chMgr, err := channel.NewChannelManager(cfg.Channels, g.bus)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	return g, nil
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	g.refresh.Start(ctx)

	go g.processLoop(ctx)

	log.Printf("[gateway] running, mood=%.2f", g.mood.Current())

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))
			// Oracle calls block; handle each message off the loop so
			// channel polling never freezes behind a slow completion.
			go func(msg bus.InboundMessage) {
				result := g.HandleMessage(msg.Content)
				if result == "" {
					return
				}
				select {
				case g.bus.Outbound <- bus.OutboundMessage{
					Channel: msg.Channel,
					ChatID:  msg.ChatID,
					Content: result,
				}:
				case <-ctx.Done():
				}
			}(msg)
		case <-ctx.Done():
			return
		}
	}
}

// HandleMessage routes one user message: slash commands to the command
// router, everything else through the assistant.
func (g *Gateway) HandleMessage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if reply, handled := g.commands.Handle(text); handled {
		return reply
	}

	reply, err := g.assistant.Respond(text)
	if err != nil {
		log.Printf("[gateway] persist turn error: %v", err)
	}
	if reply.MoodNote != "" {
		return reply.Text + "\n\n〉 " + reply.MoodNote
	}
	return reply.Text
}

func (g *Gateway) Shutdown() error {
	g.refresh.Stop()
	_ = g.channels.StopAll()
	if err := g.store.Close(); err != nil {
		log.Printf("[gateway] close store warning: %v", err)
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
