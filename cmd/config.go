package cmd

import (
	"fmt"
	"log/slog"

	"earshot/config"
	"earshot/logger"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for managing and validating earshot configuration.",
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			slog.Error("Configuration validation failed", slog.Any("error", err))
			return err
		}

		slog.Info("Configuration is valid")
		fmt.Println("✅ Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration values from file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Println("Current Configuration:")
		fmt.Printf("  Audio:\n")
		fmt.Printf("    Sample rate: %d\n", cfg.Audio.SampleRate)
		fmt.Printf("    Buffer: %s\n", cfg.Audio.Buffer)
		fmt.Printf("  Speech:\n")
		fmt.Printf("    Voice: %s\n", cfg.Speech.Voice)
		fmt.Printf("    Cache dir: %s\n", cfg.Speech.CacheDir)
		fmt.Printf("  Sequencer:\n")
		fmt.Printf("    Spacing: %s\n", cfg.Sequencer.Spacing)
		fmt.Printf("  Search:\n")
		fmt.Printf("    API key: %s\n", maskKey(cfg.Search.APIKey))
		fmt.Printf("    Base URL: %s\n", cfg.Search.BaseURL)
		fmt.Printf("    Max duration: %s\n", cfg.Search.MaxDuration)
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level: %s\n", cfg.Logging.Level)
		fmt.Printf("    Format: %s\n", cfg.Logging.Format)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

// maskKey masks an API key for display
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "***"
}
