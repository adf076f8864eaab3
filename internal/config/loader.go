package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the roster service.
type Config struct {
	HTTPPort        int           `yaml:"http_port"`
	SQLitePath      string        `yaml:"sqlite_path"`
	BackupDir       string        `yaml:"backup_dir"`
	BackupRetention int           `yaml:"backup_retention"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	LogFormat       string        `yaml:"log_format"`
	LogLevel        string        `yaml:"log_level"`
}

// Load resolves configuration in two layers: an optional YAML file named by
// ROSTER_CONFIG_FILE, then ROSTER_* environment variables on top. Defaults
// apply to anything left unset; missing and invalid values are reported
// together rather than one at a time.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLitePath:      "roster.db",
		BackupDir:       "backups",
		BackupRetention: 10,
		SessionTTL:      24 * time.Hour,
		LogFormat:       "json",
		LogLevel:        "info",
	}

	if path := strings.TrimSpace(os.Getenv("ROSTER_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ROSTER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROSTER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := strings.TrimSpace(os.Getenv("ROSTER_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if dir := strings.TrimSpace(os.Getenv("ROSTER_BACKUP_DIR")); dir != "" {
		cfg.BackupDir = dir
	}

	if retentionValue := strings.TrimSpace(os.Getenv("ROSTER_BACKUP_RETENTION")); retentionValue != "" {
		retention, err := strconv.Atoi(retentionValue)
		if err != nil || retention <= 0 {
			invalid = append(invalid, "ROSTER_BACKUP_RETENTION")
		} else {
			cfg.BackupRetention = retention
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ROSTER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROSTER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if format := strings.TrimSpace(os.Getenv("ROSTER_LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, "ROSTER_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if level := strings.TrimSpace(os.Getenv("ROSTER_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if cfg.BackupRetention <= 0 || cfg.SessionTTL <= 0 || cfg.HTTPPort <= 0 {
		invalid = append(invalid, "config file values out of range")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
