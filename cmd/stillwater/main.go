package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/stillwater/internal/assistant"
	"github.com/stellarlinkco/stillwater/internal/config"
	"github.com/stellarlinkco/stillwater/internal/gateway"
	"github.com/stellarlinkco/stillwater/internal/oracle"
	"github.com/stellarlinkco/stillwater/internal/refresh"
	"github.com/stellarlinkco/stillwater/internal/tracker"
)

// ChatOptions for running chat with custom dependencies
type ChatOptions struct {
	Oracle oracle.Client
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "stillwater",
	Short: "stillwater - personal wellbeing tracker",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the tracker in single message or REPL mode",
	RunE:  runChat,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the full gateway (channels + stats refresh)",
	RunE:  runGateway,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directory",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stillwater status",
	RunE:  runStatus,
}

var messageFlag string

func init() {
	chatCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	rootCmd.AddCommand(chatCmd, gatewayCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// chatSession bundles everything one local conversation needs.
type chatSession struct {
	store    *tracker.Store
	mood     *tracker.Mood
	commands *gateway.Commands
	svc      *assistant.Service
}

func newChatSession(cfg *config.Config, orc oracle.Client) (*chatSession, error) {
	clock, err := tracker.NewClock(cfg.Tracker.Timezone)
	if err != nil {
		return nil, fmt.Errorf("create clock: %w", err)
	}

	store, err := tracker.Open(cfg.DBPath(), clock)
	if err != nil {
		return nil, fmt.Errorf("open tracker store: %w", err)
	}

	mood, err := tracker.NewMood(store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init mood state: %w", err)
	}

	if orc == nil {
		orc = oracle.NewClient(cfg)
	}

	ref := refresh.NewService(store, clock)
	ref.Refresh()

	return &chatSession{
		store:    store,
		mood:     mood,
		commands: gateway.NewCommands(store, clock, mood, orc, ref),
		svc:      assistant.New(store, mood, orc, clock),
	}, nil
}

func (s *chatSession) Close() error {
	return s.store.Close()
}

func (s *chatSession) handle(text string, stderr io.Writer) string {
	if reply, handled := s.commands.Handle(text); handled {
		return reply
	}

	reply, err := s.svc.Respond(text)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}
	if reply.MoodNote != "" {
		return reply.Text + "\n\n〉 " + reply.MoodNote
	}
	return reply.Text
}

// runChat is the command handler that uses default options
func runChat(cmd *cobra.Command, args []string) error {
	return runChatWithOptions(ChatOptions{})
}

// runChatWithOptions runs chat with injectable dependencies for testing
func runChatWithOptions(opts ChatOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	session, err := newChatSession(cfg, opts.Oracle)
	if err != nil {
		return err
	}
	defer session.Close()

	// Single message mode
	if messageFlag != "" {
		fmt.Fprintln(stdout, session.handle(strings.TrimSpace(messageFlag), stderr))
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, "stillwater chat (type 'exit' to quit, /help for commands)")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		fmt.Fprintln(stdout, session.handle(input, stderr))
	}
	return nil
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cfg.Channels.Telegram.Enabled {
		return fmt.Errorf("no channels enabled. Edit %s or set STILLWATER_TELEGRAM_TOKEN and enable telegram", config.ConfigPath())
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(cmd.Context())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	clock, err := tracker.NewClock(cfg.Tracker.Timezone)
	if err != nil {
		return fmt.Errorf("create clock: %w", err)
	}
	store, err := tracker.Open(cfg.DBPath(), clock)
	if err != nil {
		return fmt.Errorf("init tracker store: %w", err)
	}
	defer store.Close()

	activities, err := store.Activities()
	if err != nil {
		return fmt.Errorf("read activity catalog: %w", err)
	}

	fmt.Printf("Database ready: %s (%d activities)\n", cfg.DBPath(), len(activities))
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Point provider.baseUrl at an OpenAI-compatible endpoint (default: %s)\n", config.DefaultBaseURL)
	fmt.Println("  2. Run 'stillwater chat -m \"Hello\"' to test")
	fmt.Println("  3. Enable telegram in the config and run 'stillwater gateway'")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Model: %s\n", cfg.Provider.Model)
	fmt.Printf("Endpoint: %s\n", cfg.Provider.BaseURL)
	fmt.Printf("Timezone: %s\n", cfg.Tracker.Timezone)
	fmt.Printf("Database: %s\n", cfg.DBPath())
	if cfg.Provider.APIKey != "" && len(cfg.Provider.APIKey) > 8 {
		masked := cfg.Provider.APIKey[:4] + "..." + cfg.Provider.APIKey[len(cfg.Provider.APIKey)-4:]
		fmt.Printf("API Key: %s\n", masked)
	} else if cfg.Provider.APIKey != "" {
		fmt.Println("API Key: set")
	} else {
		fmt.Println("API Key: not set (fine for Ollama)")
	}
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)

	if _, err := os.Stat(cfg.DBPath()); err != nil {
		fmt.Println("Tracker: no database yet (run 'stillwater onboard')")
		return nil
	}

	clock, err := tracker.NewClock(cfg.Tracker.Timezone)
	if err != nil {
		return fmt.Errorf("create clock: %w", err)
	}
	store, err := tracker.Open(cfg.DBPath(), clock)
	if err != nil {
		return fmt.Errorf("open tracker store: %w", err)
	}
	defer store.Close()

	daily, samples, err := store.DailyMood(clock.Now())
	if err != nil {
		return fmt.Errorf("read daily mood: %w", err)
	}
	points, err := store.TotalPoints()
	if err != nil {
		return fmt.Errorf("read total points: %w", err)
	}
	count, err := store.WeeklyActivityCount()
	if err != nil {
		return fmt.Errorf("read weekly count: %w", err)
	}

	if samples > 0 {
		fmt.Printf("Today's mood: %.2f (%d samples)\n", daily, samples)
	} else {
		fmt.Println("Today's mood: no samples yet")
	}
	fmt.Printf("Activities this week: %d\n", count)
	fmt.Printf("Total points: %d\n", points)

	return nil
}
