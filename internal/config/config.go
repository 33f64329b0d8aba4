// Package config loads application settings from a config file and
// FLOWROLL_-prefixed environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for the application.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Log    LogConfig    `mapstructure:"log"`
	Sync   SyncConfig   `mapstructure:"sync"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	Dir  string `mapstructure:"dir"`
	File string `mapstructure:"file"`
}

// Path is the full database file location.
func (d DataConfig) Path() string {
	return filepath.Join(d.Dir, d.File)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SyncConfig selects the facade backend: "local" serves from the embedded
// database, "remote" routes calls to RemoteURL with local fallback.
type SyncConfig struct {
	Mode      string        `mapstructure:"mode"`
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from config.yaml and the environment. An extra
// search path may be passed for a caller-chosen config directory; a missing
// config file is fine, defaults and environment variables then apply.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.flowroll")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FLOWROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("data.dir", ".")
	v.SetDefault("data.file", "flowroll.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("sync.mode", "local")
	// Registering the key lets an env-only value reach Unmarshal.
	v.SetDefault("sync.remote_url", "")
	v.SetDefault("sync.timeout", "5s")

	// A missing config file is not an error; defaults and env vars apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshalling: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Sync.Mode {
	case "local":
	case "remote":
		if c.Sync.RemoteURL == "" {
			return fmt.Errorf("config: sync.remote_url is required when sync.mode is remote")
		}
	default:
		return fmt.Errorf("config: unknown sync.mode %q", c.Sync.Mode)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if _, err := c.Log.slogLevel(); err != nil {
		return err
	}
	return nil
}

func (l LogConfig) slogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log.level %q", l.Level)
	}
}

// NewLogger builds the application logger described by this section.
func (l LogConfig) NewLogger() *slog.Logger {
	level, err := l.slogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if l.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
