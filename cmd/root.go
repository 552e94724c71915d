package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "earshot",
	Short: "A sound, narration, and cue engine for audio games",
	Long: `Earshot helps audio games (games playable by sound alone) manage
sound playback, speech narration, and event scheduling.

It loads and caches named sounds, plays discrete and looping effects with
per-voice volume and pan, interleaves synthesized speech with {{name}}
sound-cue markers, and exposes the monotonic clock games schedule against.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.PersistentFlags().Int("sample-rate", 44100, "audio output sample rate")
	rootCmd.PersistentFlags().String("voice", "english", "narration voice")
	rootCmd.PersistentFlags().Duration("spacing", 100*time.Millisecond, "gap between narration cue items")
	rootCmd.PersistentFlags().String("search-key", "", "content-search provider API key")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	viper.BindPFlag("audio.sample_rate", rootCmd.PersistentFlags().Lookup("sample-rate"))
	viper.BindPFlag("speech.voice", rootCmd.PersistentFlags().Lookup("voice"))
	viper.BindPFlag("sequencer.spacing", rootCmd.PersistentFlags().Lookup("spacing"))
	viper.BindPFlag("search.api_key", rootCmd.PersistentFlags().Lookup("search-key"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}
