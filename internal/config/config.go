package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/breate/internal/fetch"
)

// Config captures the settings breate reads from its config file and
// environment.
type Config struct {
	APIBase      string
	Username     string
	LogLevel     string
	LogPath      string
	Debounce     time.Duration
	PollInterval time.Duration
	MutationTTL  time.Duration
	Retry        RetryOverride
	Screens      map[string]ScreenOverride
}

// RetryOverride holds retry settings that were set explicitly. Nil fields
// leave the screen preset alone.
type RetryOverride struct {
	MaxRetries *int
	Delay      *time.Duration
	Backoff    *fetch.Backoff
}

// ScreenOverride tunes a single screen.
type ScreenOverride struct {
	RetryOverride
	SkipEmpty *bool
}

const (
	defaultConfigPath = "~/.config/breate/config.toml"
	defaultLogPath    = "~/.local/share/breate/breate.log"
	defaultAPIBase    = "http://127.0.0.1:8000/api/v1"
	defaultLogLevel   = "info"
	defaultDebounce   = 400 * time.Millisecond

	envAPIBase  = "BREATE_API_BASE"
	envUsername = "BREATE_USERNAME"
)

type rawRetry struct {
	MaxRetries *int   `toml:"max_retries"`
	DelayMS    *int   `toml:"delay_ms"`
	Backoff    string `toml:"backoff"`
}

type rawScreen struct {
	rawRetry
	SkipEmpty *bool `toml:"skip_empty"`
}

type rawConfig struct {
	APIBase            string               `toml:"api_base"`
	Username           string               `toml:"username"`
	LogLevel           string               `toml:"log_level"`
	LogPath            string               `toml:"log_path"`
	DebounceMS         int                  `toml:"debounce_ms"`
	PollSeconds        int                  `toml:"poll_seconds"`
	MutationTTLSeconds int                  `toml:"mutation_ttl_seconds"`
	Retry              rawRetry             `toml:"retry"`
	Screens            map[string]rawScreen `toml:"screens"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:  defaultAPIBase,
		LogLevel: defaultLogLevel,
		LogPath:  mustExpand(defaultLogPath),
		Debounce: defaultDebounce,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// BREATE_API_BASE and BREATE_USERNAME override the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	cfg.Username = strings.TrimSpace(raw.Username)
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if raw.DebounceMS > 0 {
		cfg.Debounce = time.Duration(raw.DebounceMS) * time.Millisecond
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.MutationTTLSeconds > 0 {
		cfg.MutationTTL = time.Duration(raw.MutationTTLSeconds) * time.Second
	}

	cfg.Retry, err = raw.Retry.override("retry")
	if err != nil {
		return Config{}, err
	}
	for name, screen := range raw.Screens {
		key := strings.ToLower(strings.TrimSpace(name))
		retry, err := screen.override("screens." + key)
		if err != nil {
			return Config{}, err
		}
		if cfg.Screens == nil {
			cfg.Screens = make(map[string]ScreenOverride)
		}
		cfg.Screens[key] = ScreenOverride{RetryOverride: retry, SkipEmpty: screen.SkipEmpty}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// LoadEnv reads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Policy layers the global retry settings and then the screen's own over
// base.
func (c Config) Policy(screen string, base fetch.Policy) fetch.Policy {
	p := c.Retry.apply(base)
	if s, ok := c.Screens[screen]; ok {
		p = s.apply(p)
	}
	return p
}

// SkipEmpty returns the screen's skip_empty setting, or def when unset.
func (c Config) SkipEmpty(screen string, def bool) bool {
	if s, ok := c.Screens[screen]; ok && s.SkipEmpty != nil {
		return *s.SkipEmpty
	}
	return def
}

func (r RetryOverride) apply(p fetch.Policy) fetch.Policy {
	if r.MaxRetries != nil {
		p.MaxRetries = *r.MaxRetries
	}
	if r.Delay != nil {
		p.BaseDelay = *r.Delay
	}
	if r.Backoff != nil {
		p.Backoff = *r.Backoff
	}
	return p
}

func (r rawRetry) override(section string) (RetryOverride, error) {
	var out RetryOverride
	if r.MaxRetries != nil {
		if *r.MaxRetries < 0 {
			return out, fmt.Errorf("parse config: %s.max_retries must not be negative", section)
		}
		n := *r.MaxRetries
		out.MaxRetries = &n
	}
	if r.DelayMS != nil {
		if *r.DelayMS < 0 {
			return out, fmt.Errorf("parse config: %s.delay_ms must not be negative", section)
		}
		d := time.Duration(*r.DelayMS) * time.Millisecond
		out.Delay = &d
	}
	if strings.TrimSpace(r.Backoff) != "" {
		b, err := fetch.ParseBackoff(r.Backoff)
		if err != nil {
			return out, fmt.Errorf("parse config: %s.backoff: %w", section, err)
		}
		out.Backoff = &b
	}
	return out, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envAPIBase)); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv(envUsername)); v != "" {
		cfg.Username = v
	}
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
