package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds the frontdesk settings.
type Config struct {
	Server          string
	Secure          bool
	CacheBackend    string
	CacheDir        string
	CacheTTL        time.Duration
	QueueTimeout    time.Duration
	FlushInterval   time.Duration
	EchoTTL         time.Duration
	ChatEchoTTL     time.Duration
	DisconnectGrace time.Duration
	UndoDepth       int
	LogPath         string
	LogLevel        string
}

const (
	defaultConfigPath   = "~/.config/frontdesk/config.toml"
	defaultServer       = "127.0.0.1:8000"
	defaultCacheBackend = "file"
	defaultCacheDir     = "~/.cache/frontdesk"
	defaultLogPath      = "~/.local/state/frontdesk/frontdesk.log"
	defaultLogLevel     = "info"
	defaultUndoDepth    = 5

	defaultCacheTTL        = 5 * time.Minute
	defaultQueueTimeout    = 10 * time.Second
	defaultFlushInterval   = 500 * time.Millisecond
	defaultEchoTTL         = 15 * time.Second
	defaultChatEchoTTL     = 5 * time.Second
	defaultDisconnectGrace = 2 * time.Second
)

// fileConfig is the on-disk shape. Durations are Go duration strings
// ("10s", "5m").
type fileConfig struct {
	Server          string `toml:"server" yaml:"server"`
	Secure          bool   `toml:"secure" yaml:"secure"`
	CacheBackend    string `toml:"cache_backend" yaml:"cache_backend"`
	CacheDir        string `toml:"cache_dir" yaml:"cache_dir"`
	CacheTTL        string `toml:"cache_ttl" yaml:"cache_ttl"`
	QueueTimeout    string `toml:"queue_timeout" yaml:"queue_timeout"`
	FlushInterval   string `toml:"flush_interval" yaml:"flush_interval"`
	EchoTTL         string `toml:"echo_ttl" yaml:"echo_ttl"`
	ChatEchoTTL     string `toml:"chat_echo_ttl" yaml:"chat_echo_ttl"`
	DisconnectGrace string `toml:"disconnect_grace" yaml:"disconnect_grace"`
	UndoDepth       int    `toml:"undo_depth" yaml:"undo_depth"`
	LogPath         string `toml:"log_path" yaml:"log_path"`
	LogLevel        string `toml:"log_level" yaml:"log_level"`
}

// Default returns the built-in settings with paths expanded.
func Default() Config {
	return Config{
		Server:          defaultServer,
		CacheBackend:    defaultCacheBackend,
		CacheDir:        mustExpand(defaultCacheDir),
		CacheTTL:        defaultCacheTTL,
		QueueTimeout:    defaultQueueTimeout,
		FlushInterval:   defaultFlushInterval,
		EchoTTL:         defaultEchoTTL,
		ChatEchoTTL:     defaultChatEchoTTL,
		DisconnectGrace: defaultDisconnectGrace,
		UndoDepth:       defaultUndoDepth,
		LogPath:         mustExpand(defaultLogPath),
		LogLevel:        defaultLogLevel,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// Files ending in .yaml or .yml are read as YAML, everything else as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.apply(raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) apply(raw fileConfig) error {
	if v := strings.TrimSpace(raw.Server); v != "" {
		c.Server = v
	}
	c.Secure = raw.Secure

	if v := strings.ToLower(strings.TrimSpace(raw.CacheBackend)); v != "" {
		switch v {
		case "file", "sqlite", "memory":
			c.CacheBackend = v
		default:
			return fmt.Errorf("cache_backend %q: want file, sqlite or memory", raw.CacheBackend)
		}
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		c.CacheDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		c.LogPath = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		if _, err := zerolog.ParseLevel(v); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		c.LogLevel = v
	}
	if raw.UndoDepth > 0 {
		c.UndoDepth = raw.UndoDepth
	}

	durations := []struct {
		key  string
		raw  string
		dest *time.Duration
	}{
		{"cache_ttl", raw.CacheTTL, &c.CacheTTL},
		{"queue_timeout", raw.QueueTimeout, &c.QueueTimeout},
		{"flush_interval", raw.FlushInterval, &c.FlushInterval},
		{"echo_ttl", raw.EchoTTL, &c.EchoTTL},
		{"chat_echo_ttl", raw.ChatEchoTTL, &c.ChatEchoTTL},
		{"disconnect_grace", raw.DisconnectGrace, &c.DisconnectGrace},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.raw)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("%s: must be positive", d.key)
		}
		*d.dest = parsed
	}
	return nil
}

// Level returns the configured zerolog level, info when unset.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil || strings.TrimSpace(c.LogLevel) == "" {
		return zerolog.InfoLevel
	}
	return level
}

// EngineLogPath returns the path of the JSON log written by the engine.
func (c Config) EngineLogPath() string {
	if strings.TrimSpace(c.LogPath) == "" {
		return mustExpand(defaultLogPath)
	}
	return c.LogPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
