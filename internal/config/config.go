// Package config resolves quizctl settings.
//
// Resolution order, later wins: built-in defaults, the YAML config file, a
// .env file, process environment variables. Command-line flags are applied
// on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBaseURL          = "https://api.quizbowl.game-manager.org"
	DefaultStreamPath       = "/api/bracket/stream"
	DefaultGameID           = "default"
	DefaultOperatorInterval = 1200 * time.Millisecond
	DefaultViewerInterval   = 5000 * time.Millisecond
	DefaultRequestTimeout   = 10 * time.Second
	DefaultLogLevel         = "info"
)

// Environment variables.
const (
	EnvConfig           = "QUIZCTL_CONFIG"
	EnvBaseURL          = "QUIZCTL_BASE_URL"
	EnvGameID           = "QUIZCTL_GAME_ID"
	EnvOperatorInterval = "QUIZCTL_OPERATOR_INTERVAL"
	EnvViewerInterval   = "QUIZCTL_VIEWER_INTERVAL"
	EnvStatePath        = "QUIZCTL_STATE_PATH"
	EnvLogLevel         = "QUIZCTL_LOG_LEVEL"
)

// Config is the resolved client configuration.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	StreamPath        string        `yaml:"stream_path"`
	GameID            string        `yaml:"game_id"`
	OperatorInterval  time.Duration `yaml:"operator_interval"`
	ViewerInterval    time.Duration `yaml:"viewer_interval"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	StatePath         string        `yaml:"state_path"`
	LogLevel          string        `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		StreamPath:       DefaultStreamPath,
		GameID:           DefaultGameID,
		OperatorInterval: DefaultOperatorInterval,
		ViewerInterval:   DefaultViewerInterval,
		RequestTimeout:   DefaultRequestTimeout,
		StatePath:        defaultStatePath(),
		LogLevel:         DefaultLogLevel,
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "quizctl.db"
	}
	return filepath.Join(dir, "quizctl", "state.db")
}

// Loader resolves a Config. The zero value reads no config file, the .env
// in the working directory and the process environment.
type Loader struct {
	// Path of the YAML file. Empty means $QUIZCTL_CONFIG, or no file.
	Path string
	// DotEnv is the .env path. Empty means ".env"; a missing file is fine.
	DotEnv string
	// LookupEnv reads the environment. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration with a default Loader.
func Load(path string) (Config, error) {
	return Loader{Path: path}.Load()
}

// Load resolves and validates the configuration.
func (l Loader) Load() (Config, error) {
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dotenvPath := l.DotEnv
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	dotenv, err := godotenv.Read(dotenvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", dotenvPath, err)
	}
	// Process environment wins over .env, as with godotenv.Load.
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := Default()

	path := l.Path
	if path == "" {
		path, _ = env(EnvConfig)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(env); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(env func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := env(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := env(key)
		if !ok || v == "" {
			return nil
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvBaseURL, &c.BaseURL)
	str(EnvGameID, &c.GameID)
	str(EnvStatePath, &c.StatePath)
	str(EnvLogLevel, &c.LogLevel)
	if err := dur(EnvOperatorInterval, &c.OperatorInterval); err != nil {
		return err
	}
	return dur(EnvViewerInterval, &c.ViewerInterval)
}

// parseDuration accepts Go durations ("1200ms") and bare milliseconds.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if c.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
	}
	if c.OperatorInterval <= 0 {
		return fmt.Errorf("operator_interval must be positive, got %s", c.OperatorInterval)
	}
	if c.ViewerInterval <= 0 {
		return fmt.Errorf("viewer_interval must be positive, got %s", c.ViewerInterval)
	}
	if c.OperatorInterval >= c.ViewerInterval {
		return fmt.Errorf("operator_interval (%s) must be shorter than viewer_interval (%s)", c.OperatorInterval, c.ViewerInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
}
