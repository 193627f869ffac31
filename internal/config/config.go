package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"calendario-local/internal/fileutil"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "calendario.yaml"

const envPrefix = "CALENDARIO_"

// Config keeps runtime settings for the calendar.
type Config struct {
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Storage  StorageConfig  `koanf:"storage" yaml:"storage"`
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Backup   BackupConfig   `koanf:"backup" yaml:"backup"`
	Agenda   AgendaConfig   `koanf:"agenda" yaml:"agenda"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn" yaml:"dsn"`
}

type StorageConfig struct {
	EventsKey string `koanf:"events_key" yaml:"events_key"`
}

type ServerConfig struct {
	Listen string `koanf:"listen" yaml:"listen"`
	Mode   string `koanf:"mode" yaml:"mode"` // "debug" or "release"
}

// BackupConfig controls snapshot files. An empty Cron disables scheduled backups.
type BackupConfig struct {
	Cron string `koanf:"cron" yaml:"cron"`
	Dir  string `koanf:"dir" yaml:"dir"`
	Keep int    `koanf:"keep" yaml:"keep"`
}

type AgendaConfig struct {
	Days int `koanf:"days" yaml:"days"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database.dsn":       "calendario.db",
		"storage.events_key": "calendario_events",
		"server.listen":      "127.0.0.1:8080",
		"server.mode":        "release",
		"backup.cron":        "",
		"backup.dir":         "backups",
		"backup.keep":        10,
		"agenda.days":        7,
		"log.level":          "info",
	}
}

// Load reads defaults, then the YAML file at path if path is not empty, then
// CALENDARIO_* environment variables. CALENDARIO_SERVER__LISTEN overrides server.listen.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		k.Set(key, value)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	k := koanf.New(".")
	for key, value := range defaults() {
		k.Set(key, value)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		panic(fmt.Sprintf("config: bad defaults: %v", err))
	}
	return &cfg
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if strings.TrimSpace(c.Storage.EventsKey) == "" {
		return errors.New("storage.events_key is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q, expected debug or release", c.Server.Mode)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("invalid backup.keep %d", c.Backup.Keep)
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// WriteDefault writes the default configuration as YAML to path. An existing
// file is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	return Save(path, Default())
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}
