package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("REALTIME_SOURCE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("port: got %q, want 8081", cfg.Port)
	}
	if cfg.RealtimeSource != RealtimePostgres {
		t.Errorf("realtime source: got %q, want %q", cfg.RealtimeSource, RealtimePostgres)
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("otp ttl: got %v, want 5m", cfg.OTPTTL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backoffice.yaml")
	body := []byte("port: \"9000\"\nrealtime_debounce: 1s\nkafka_topic: from-file\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("port: got %q, want 9100", cfg.Port)
	}
	if cfg.RealtimeDebounce != time.Second {
		t.Errorf("debounce: got %v, want 1s", cfg.RealtimeDebounce)
	}
	if cfg.KafkaTopic != "from-file" {
		t.Errorf("kafka topic: got %q, want from-file", cfg.KafkaTopic)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("allowed origins: got %v", cfg.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.RealtimeSource = "carrier-pigeon"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownRealtimeSource) {
		t.Fatalf("got %v, want ErrUnknownRealtimeSource", err)
	}

	cfg = defaults()
	cfg.RealtimeSource = RealtimeKafka
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for kafka source without brokers")
	}
	cfg.KafkaBrokers = []string{"localhost:9092"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
