package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	clearRosterEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLitePath != "roster.db" {
		t.Errorf("expected default sqlite path, got %q", cfg.SQLitePath)
	}
	if cfg.BackupRetention != 10 {
		t.Errorf("expected default retention 10, got %d", cfg.BackupRetention)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session TTL 24h, got %v", cfg.SessionTTL)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearRosterEnv(t)
	t.Setenv("ROSTER_HTTP_PORT", "9090")
	t.Setenv("ROSTER_SQLITE_PATH", "/data/turnos.db")
	t.Setenv("ROSTER_BACKUP_RETENTION", "3")
	t.Setenv("ROSTER_SESSION_TTL", "2h")
	t.Setenv("ROSTER_LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLitePath != "/data/turnos.db" {
		t.Errorf("expected overridden sqlite path, got %q", cfg.SQLitePath)
	}
	if cfg.BackupRetention != 3 {
		t.Errorf("expected retention 3, got %d", cfg.BackupRetention)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected session TTL 2h, got %v", cfg.SessionTTL)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected text log format, got %q", cfg.LogFormat)
	}
}

func TestLoad_InvalidValuesAreAccumulated(t *testing.T) {
	clearRosterEnv(t)
	t.Setenv("ROSTER_HTTP_PORT", "not-a-port")
	t.Setenv("ROSTER_BACKUP_RETENTION", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid values, got nil")
	}
}

func TestLoad_YAMLFileUnderEnvironment(t *testing.T) {
	clearRosterEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yaml")
	contents := "http_port: 7000\nbackup_dir: /var/backups/roster\nsession_ttl: 1h\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("ROSTER_CONFIG_FILE", path)
	t.Setenv("ROSTER_HTTP_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 7001 {
		t.Errorf("environment should win over file, got port %d", cfg.HTTPPort)
	}
	if cfg.BackupDir != "/var/backups/roster" {
		t.Errorf("expected file backup dir, got %q", cfg.BackupDir)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected file session TTL 1h, got %v", cfg.SessionTTL)
	}
}

func clearRosterEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ROSTER_CONFIG_FILE",
		"ROSTER_HTTP_PORT",
		"ROSTER_SQLITE_PATH",
		"ROSTER_BACKUP_DIR",
		"ROSTER_BACKUP_RETENTION",
		"ROSTER_SESSION_TTL",
		"ROSTER_LOG_FORMAT",
		"ROSTER_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}
