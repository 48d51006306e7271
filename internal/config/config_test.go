package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8090" {
		t.Errorf("Port = %q, want 8090", cfg.Port)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.HistoryKey != "movi_chat_history" {
		t.Errorf("HistoryKey = %q", cfg.HistoryKey)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if !cfg.Speech.SynthesisEnabled {
		t.Error("speech synthesis should default to enabled")
	}
	if len(cfg.Speech.RecognizerCommand) != 0 {
		t.Errorf("RecognizerCommand should default to empty, got %v", cfg.Speech.RecognizerCommand)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("BACKEND_URL", "https://movi.example.com")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("TTS_ENABLED", "false")
	t.Setenv("RECOGNIZER_CMD", "arecord -d 5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.BackendURL != "https://movi.example.com" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Speech.SynthesisEnabled {
		t.Error("TTS_ENABLED=false should disable synthesis")
	}
	want := []string{"arecord", "-d", "5"}
	if len(cfg.Speech.RecognizerCommand) != len(want) {
		t.Fatalf("RecognizerCommand = %v, want %v", cfg.Speech.RecognizerCommand, want)
	}
	for i := range want {
		if cfg.Speech.RecognizerCommand[i] != want[i] {
			t.Errorf("RecognizerCommand[%d] = %q, want %q", i, cfg.Speech.RecognizerCommand[i], want[i])
		}
	}
}

func TestLoadInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.RequestTimeout)
	}
}

func TestAllowedOrigins(t *testing.T) {
	t.Parallel()

	open := &Config{}
	if got := open.AllowedOrigins(); len(got) != 1 || got[0] != "*" {
		t.Errorf("no frontend should allow every origin, got %v", got)
	}

	pinned := &Config{FrontendURL: "https://console.example.com"}
	if got := pinned.AllowedOrigins(); len(got) != 1 || got[0] != "https://console.example.com" {
		t.Errorf("configured frontend should be the only allowed origin, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			Port:           "8090",
			BackendURL:     "http://localhost:5000",
			DBPath:         "./data/console.db",
			HistoryKey:     "movi_chat_history",
			RequestTimeout: 30 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing backend url", func(c *Config) { c.BackendURL = "" }, true},
		{"missing db path", func(c *Config) { c.DBPath = "" }, true},
		{"missing history key", func(c *Config) { c.HistoryKey = "" }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
