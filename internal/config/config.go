// Package config handles application configuration management.
// It supports YAML files and environment variable overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Story    StoryConfig    `mapstructure:"story" yaml:"story"`
	Capture  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Realtime RealtimeConfig `mapstructure:"realtime" yaml:"realtime"`
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
}

// ServerConfig holds Calliope server connection settings.
type ServerConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	// ClientID identifies this installation to the backend. Generated on
	// first load and persisted.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	// Target selects media URL resolution: "web" (same-origin relative
	// paths) or "native" (fully qualified URLs).
	Target string `mapstructure:"target" yaml:"target"`
}

// StoryConfig holds story generation preferences.
type StoryConfig struct {
	Strategy      string `mapstructure:"strategy" yaml:"strategy"`
	GenerateVideo bool   `mapstructure:"generate_video" yaml:"generate_video"`
}

// CaptureConfig holds photo/audio capture settings.
type CaptureConfig struct {
	// Device selects the capture adapter: "file" or "command".
	Device       string `mapstructure:"device" yaml:"device"`
	PhotoCommand string `mapstructure:"photo_command" yaml:"photo_command"`
	AudioCommand string `mapstructure:"audio_command" yaml:"audio_command"`
	MaxPhotoEdge int    `mapstructure:"max_photo_edge" yaml:"max_photo_edge"`
}

// RealtimeConfig holds status channel settings.
type RealtimeConfig struct {
	// WSBaseURL overrides the websocket endpoint; derived from the server
	// base URL when empty. Set to "off" to force polling.
	WSBaseURL    string        `mapstructure:"ws_base_url" yaml:"ws_base_url"`
	DialAttempts int           `mapstructure:"dial_attempts" yaml:"dial_attempts"`
	DialBackoff  time.Duration `mapstructure:"dial_backoff" yaml:"dial_backoff"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// ValidationError reports malformed configuration input, caught before any
// request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateServerURL checks a server base URL before it is saved or used.
func ValidateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "server URL", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "server URL", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "server URL", Reason: "missing host"}
	}
	return nil
}

// Load reads configuration from file and environment variables. A missing
// config file is fine; defaults and env vars apply. The client id is
// generated and persisted on first load.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.base_url", "https://calliope.chrisimmel.com")
	v.SetDefault("server.target", "native")
	v.SetDefault("capture.device", "file")
	v.SetDefault("capture.max_photo_edge", 1024)
	v.SetDefault("realtime.dial_attempts", 3)
	v.SetDefault("realtime.dial_backoff", 2*time.Second)
	v.SetDefault("realtime.poll_interval", 5*time.Second)
	v.SetDefault("log_level", "info")

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CLIO")
	v.AutomaticEnv()

	_ = v.BindEnv("server.api_key", "CALLIOPE_API_KEY")
	_ = v.BindEnv("server.base_url", "CALLIOPE_SERVER_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.ClientID == "" {
		cfg.Server.ClientID = uuid.NewString()
		if err := Save(&cfg); err != nil {
			return nil, fmt.Errorf("failed to persist generated client id: %w", err)
		}
	}

	return &cfg, nil
}

// Save writes the current configuration to file.
func Save(cfg *Config) error {
	configDir, err := getConfigDir()
	if err != nil {
		return fmt.Errorf("failed to determine config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")

	v := viper.New()
	v.Set("server", cfg.Server)
	v.Set("story", cfg.Story)
	v.Set("capture", cfg.Capture)
	v.Set("realtime", cfg.Realtime)
	v.Set("log_level", cfg.LogLevel)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// The config file contains the API key.
	if err := os.Chmod(configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	if configDir := os.Getenv("CLIO_CONFIG_DIR"); configDir != "" {
		return configDir, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "clio"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "clio"), nil
}

// GetConfigDir returns the configuration directory (exported for other packages).
func GetConfigDir() (string, error) {
	return getConfigDir()
}
