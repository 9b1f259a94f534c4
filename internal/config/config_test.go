package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: "https://mail.example.com"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8090" {
		t.Errorf("ListenAddr = %q, want :8090", cfg.Server.ListenAddr)
	}
	if cfg.Server.BaseURL != "https://mail.example.com" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Mailer.Provider != "noop" {
		t.Errorf("Mailer.Provider = %q, want noop", cfg.Mailer.Provider)
	}
	if cfg.Batches.PollInterval != 15*time.Second {
		t.Errorf("Batches.PollInterval = %v, want 15s", cfg.Batches.PollInterval)
	}
	if cfg.GenAI.Model != "llama3-70b-8192" {
		t.Errorf("GenAI.Model = %q", cfg.GenAI.Model)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoadResendRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `
mailer:
  provider: resend
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for resend provider without api_key")
	}
}

func TestLoadUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
mailer:
  provider: pigeon
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown mailer provider")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
