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
)

// Config holds printdeck's runtime settings.
type Config struct {
	Device         string
	FeedPath       string
	RequestTimeout time.Duration
	ReconnectDelay time.Duration
	RenderInterval time.Duration
	StatusPoll     time.Duration // 0 disables the fallback poller
	RetryMax       int
	LogFile        string
}

const (
	defaultConfigPath     = "~/.config/printdeck/config.toml"
	defaultLogFile        = "~/.local/state/printdeck/printdeck.log"
	defaultDevice         = "192.168.4.1"
	defaultFeedPath       = "/ws"
	defaultRequestTimeout = 5 * time.Second
	defaultReconnectDelay = 500 * time.Millisecond
	defaultRenderInterval = 100 * time.Millisecond
	defaultRetryMax       = 2
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device:         defaultDevice,
		FeedPath:       defaultFeedPath,
		RequestTimeout: defaultRequestTimeout,
		ReconnectDelay: defaultReconnectDelay,
		RenderInterval: defaultRenderInterval,
		RetryMax:       defaultRetryMax,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
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

	var raw struct {
		Device         string `toml:"device"`
		FeedPath       string `toml:"feed_path"`
		RequestTimeout string `toml:"request_timeout"`
		ReconnectDelay string `toml:"reconnect_delay"`
		RenderInterval string `toml:"render_interval"`
		StatusPoll     string `toml:"status_poll"`
		RetryMax       *int   `toml:"retry_max"`
		LogFile        string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Device); v != "" {
		cfg.Device = v
	}
	if v := strings.TrimSpace(raw.FeedPath); v != "" {
		cfg.FeedPath = v
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"reconnect_delay", raw.ReconnectDelay, &cfg.ReconnectDelay},
		{"render_interval", raw.RenderInterval, &cfg.RenderInterval},
		{"status_poll", raw.StatusPoll, &cfg.StatusPoll},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.raw, d.dst); err != nil {
			return Config{}, err
		}
	}
	if raw.RetryMax != nil {
		if *raw.RetryMax < 0 {
			return Config{}, fmt.Errorf("parse config: retry_max must not be negative")
		}
		cfg.RetryMax = *raw.RetryMax
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	return cfg, nil
}

// parseDuration leaves dst untouched when value is blank.
func parseDuration(key, value string, dst *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d < 0 {
		return fmt.Errorf("parse config: %s must not be negative", key)
	}
	*dst = d
	return nil
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

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
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
