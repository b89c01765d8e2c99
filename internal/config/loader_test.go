package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WORKDESK_CONFIG_FILE",
		"WORKDESK_HTTP_PORT",
		"WORKDESK_MODE",
		"WORKDESK_SQLITE_PATH",
		"WORKDESK_DATA_DIR",
		"WORKDESK_SESSION_SECRET",
		"WORKDESK_SESSION_TTL",
		"WORKDESK_MAIL_ENDPOINT",
		"WORKDESK_MAIL_API_KEY",
		"WORKDESK_MAIL_FROM",
		"WORKDESK_GEOCODE_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKDESK_SESSION_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.Mode != ModeSQLite {
		t.Fatalf("expected sqlite mode by default, got %q", cfg.Mode)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h TTL, got %v", cfg.SessionTTL)
	}
	if cfg.GeocodeBaseURL == "" || cfg.MailEndpoint == "" {
		t.Fatal("expected default endpoints to be set")
	}
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error when the session secret is missing")
	}
	if !strings.Contains(err.Error(), "WORKDESK_SESSION_SECRET") {
		t.Fatalf("expected the missing variable to be named, got %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKDESK_SESSION_SECRET", "test-secret")
	t.Setenv("WORKDESK_HTTP_PORT", "9090")
	t.Setenv("WORKDESK_MODE", ModeMemory)
	t.Setenv("WORKDESK_DATA_DIR", "/tmp/workdesk-data")
	t.Setenv("WORKDESK_SESSION_TTL", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 9090 {
		t.Fatalf("expected port override, got %d", cfg.HTTPPort)
	}
	if cfg.Mode != ModeMemory {
		t.Fatalf("expected memory mode, got %q", cfg.Mode)
	}
	if cfg.DataDir != "/tmp/workdesk-data" {
		t.Fatalf("expected data dir override, got %q", cfg.DataDir)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Fatalf("expected 90m TTL, got %v", cfg.SessionTTL)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric port", key: "WORKDESK_HTTP_PORT", value: "eighty"},
		{name: "negative port", key: "WORKDESK_HTTP_PORT", value: "-1"},
		{name: "unknown mode", key: "WORKDESK_MODE", value: "tape"},
		{name: "malformed ttl", key: "WORKDESK_SESSION_TTL", value: "soon"},
		{name: "negative ttl", key: "WORKDESK_SESSION_TTL", value: "-1h"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("WORKDESK_SESSION_SECRET", "test-secret")
			t.Setenv(tc.key, tc.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to be rejected", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "workdesk.yaml")
	contents := strings.Join([]string{
		"http_port: 7070",
		"mode: memory",
		"session_secret: file-secret",
		"session_ttl: 2h",
		"mail_from: workdesk@example.com",
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("WORKDESK_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 7070 || cfg.Mode != ModeMemory {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.SessionSecret != "file-secret" {
		t.Fatalf("expected the file secret, got %q", cfg.SessionSecret)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h TTL, got %v", cfg.SessionTTL)
	}
	if cfg.MailFrom != "workdesk@example.com" {
		t.Fatalf("expected mail_from overlay, got %q", cfg.MailFrom)
	}

	// The environment still wins over the file.
	t.Setenv("WORKDESK_HTTP_PORT", "7171")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 7171 {
		t.Fatalf("expected the environment to win, got %d", cfg.HTTPPort)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKDESK_SESSION_SECRET", "test-secret")
	t.Setenv("WORKDESK_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
