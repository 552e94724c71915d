package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"earshot/config"
	"earshot/engine"
	"earshot/game"
	"earshot/logger"
	"earshot/notify"

	"github.com/spf13/cobra"
)

// demoCmd plays a short scripted round that exercises the whole engine
// surface: loading, narration with cues, looping ambience, and the clock.
var demoCmd = &cobra.Command{
	Use:   "demo name=source [name=source ...]",
	Short: "Play a narrated demo round with the given sounds",
	Long: `Load the given sounds (name=path or name=URL pairs), then narrate a
short round that interleaves speech with the loaded sound effects. The
first named sound is also started as a looping background track and
stopped at the end of the round.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	g, err := game.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer g.Close()

	g.Subscribe(notify.LogObserver(slog.With("component", "events")))

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	var names []string
	for _, arg := range args {
		name, source, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid sound argument %q, expected name=source", arg)
		}
		if _, err := g.AddSound(ctx, name, source); err != nil {
			return fmt.Errorf("game setup failed: %w", err)
		}
		names = append(names, name)
	}

	// Autoplay unlock ritual, then the round itself
	g.Unlock()

	first := names[0]
	if _, err := g.Play(first, engine.WithLoop(), engine.WithVolume(0.4)); err != nil {
		return err
	}

	narration := fmt.Sprintf("Welcome to earshot {{%s}} listen closely and remember what you hear", first)
	q, err := g.SpeakWithSoundEffects(narration)
	if err != nil {
		return err
	}

	start := g.Now()
	slog.Info("round started", slog.Float64("clock", start))

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case sig := <-signalChan:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			g.StopLoop(first)
			return nil
		case <-ctx.Done():
			g.StopLoop(first)
			return nil
		case <-ticker.C:
			if !q.Active() {
				g.StopLoop(first)
				slog.Info("round finished", slog.Float64("elapsed", g.Now()-start))
				return nil
			}
		}
	}
}
