package config

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the engine and its collaborators
type Config struct {
	// Audio output configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Speech synthesis configuration
	Speech SpeechConfig `mapstructure:"speech"`

	// Narration sequencer configuration
	Sequencer SequencerConfig `mapstructure:"sequencer"`

	// Sound search provider configuration
	Search SearchConfig `mapstructure:"search"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// AudioConfig holds speaker output configuration
type AudioConfig struct {
	SampleRate int           `mapstructure:"sample_rate"`
	Buffer     time.Duration `mapstructure:"buffer"`
}

// SpeechConfig holds text-to-speech configuration
type SpeechConfig struct {
	Voice    string `mapstructure:"voice"`
	CacheDir string `mapstructure:"cache_dir"`
}

// SequencerConfig holds narration dispatch configuration
type SequencerConfig struct {
	Spacing time.Duration `mapstructure:"spacing"`
}

// SearchConfig holds content-search provider configuration
type SearchConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxDuration time.Duration `mapstructure:"max_duration"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	// Set defaults
	viper.SetDefault("audio.sample_rate", 44100)
	viper.SetDefault("audio.buffer", "100ms")
	viper.SetDefault("speech.voice", "english")
	viper.SetDefault("speech.cache_dir", "speech-cache")
	viper.SetDefault("sequencer.spacing", "100ms")
	viper.SetDefault("search.base_url", "https://freesound.org/apiv2")
	viper.SetDefault("search.max_duration", "10s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Read config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.earshot")
	viper.AddConfigPath("/etc/earshot")

	// Allow environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("EARSHOT")

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return &ConfigError{Field: "audio.sample_rate", Message: "sample rate must be positive"}
	}
	if c.Audio.Buffer <= 0 {
		return &ConfigError{Field: "audio.buffer", Message: "buffer duration must be positive"}
	}
	if c.Sequencer.Spacing < 0 {
		return &ConfigError{Field: "sequencer.spacing", Message: "spacing must not be negative"}
	}
	if c.Search.APIKey != "" && c.Search.BaseURL == "" {
		return &ConfigError{Field: "search.base_url", Message: "base URL is required when an API key is set"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
