package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad_Defaults verifies a fresh installation gets sensible settings.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CLIO_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.BaseURL != "https://calliope.chrisimmel.com" {
		t.Errorf("Unexpected default base URL: %s", cfg.Server.BaseURL)
	}
	if cfg.Server.Target != "native" {
		t.Errorf("Expected native target, got %s", cfg.Server.Target)
	}
	if cfg.Capture.Device != "file" {
		t.Errorf("Expected file capture device, got %s", cfg.Capture.Device)
	}
	if cfg.Capture.MaxPhotoEdge != 1024 {
		t.Errorf("Expected max photo edge 1024, got %d", cfg.Capture.MaxPhotoEdge)
	}
	if cfg.Realtime.DialAttempts != 3 || cfg.Realtime.DialBackoff != 2*time.Second {
		t.Errorf("Unexpected realtime retry defaults: %+v", cfg.Realtime)
	}
	if cfg.Realtime.PollInterval != 5*time.Second {
		t.Errorf("Expected 5s poll interval, got %v", cfg.Realtime.PollInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected info log level, got %s", cfg.LogLevel)
	}
}

// TestLoad_GeneratesAndPersistsClientID verifies the installation id is
// minted once and survives subsequent loads.
func TestLoad_GeneratesAndPersistsClientID(t *testing.T) {
	t.Setenv("CLIO_CONFIG_DIR", t.TempDir())

	first, err := Load()
	if err != nil {
		t.Fatalf("First load failed: %v", err)
	}
	if first.Server.ClientID == "" {
		t.Fatal("Expected a generated client id")
	}

	second, err := Load()
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	if second.Server.ClientID != first.Server.ClientID {
		t.Errorf("Expected stable client id, got %s then %s", first.Server.ClientID, second.Server.ClientID)
	}
}

// TestLoad_EnvOverrides verifies the Calliope environment variables win.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLIO_CONFIG_DIR", t.TempDir())
	t.Setenv("CALLIOPE_API_KEY", "env-key")
	t.Setenv("CALLIOPE_SERVER_URL", "https://calliope.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.APIKey != "env-key" {
		t.Errorf("Expected api key from environment, got %q", cfg.Server.APIKey)
	}
	if cfg.Server.BaseURL != "https://calliope.local" {
		t.Errorf("Expected base URL from environment, got %q", cfg.Server.BaseURL)
	}
}

// TestSaveAndLoad verifies a round trip through the config file.
func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLIO_CONFIG_DIR", dir)

	cfg := &Config{
		Server: ServerConfig{
			BaseURL:  "https://calliope.example.com",
			APIKey:   "saved-key",
			ClientID: "client-abc",
			Target:   "web",
		},
		Story:    StoryConfig{Strategy: "tamarin", GenerateVideo: true},
		Capture:  CaptureConfig{Device: "command", PhotoCommand: "capture-photo {output}", MaxPhotoEdge: 512},
		Realtime: RealtimeConfig{WSBaseURL: "off", DialAttempts: 5, DialBackoff: time.Second, PollInterval: 10 * time.Second},
		LogLevel: "debug",
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.APIKey != "saved-key" || loaded.Server.ClientID != "client-abc" {
		t.Errorf("Server settings not round-tripped: %+v", loaded.Server)
	}
	if loaded.Story.Strategy != "tamarin" || !loaded.Story.GenerateVideo {
		t.Errorf("Story settings not round-tripped: %+v", loaded.Story)
	}
	if loaded.Capture.Device != "command" || loaded.Capture.MaxPhotoEdge != 512 {
		t.Errorf("Capture settings not round-tripped: %+v", loaded.Capture)
	}
	if loaded.Realtime.WSBaseURL != "off" || loaded.Realtime.PollInterval != 10*time.Second {
		t.Errorf("Realtime settings not round-tripped: %+v", loaded.Realtime)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("Expected debug log level, got %s", loaded.LogLevel)
	}
}

// TestValidateServerURL verifies URL validation rules.
func TestValidateServerURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://calliope.example.com", false},
		{"http", "http://localhost:8008", false},
		{"missing scheme", "calliope.example.com", true},
		{"bad scheme", "ftp://calliope.example.com", true},
		{"missing host", "https://", true},
		{"garbage", "://not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServerURL(tt.url)
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for %q", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error for %q: %v", tt.url, err)
			}
		})
	}
}
