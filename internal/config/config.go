package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for ytblog.
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Poll      PollConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

// APIConfig describes the blog generation backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PollConfig struct {
	Interval time.Duration
	Jitter   time.Duration
}

// RedisConfig is optional. An empty URL disables rate limiting.
type RedisConfig struct {
	URL string
}

type RateLimitConfig struct {
	RequestsPerMin int
}

type LogConfig struct {
	Level slog.Level
}

const (
	DefaultAPIBaseURL   = "http://localhost:8000/api/v1"
	DefaultPollInterval = 2 * time.Second
)

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any value is invalid.
func Load() (*Config, error) {
	levelName := strings.ToLower(envString("YTBLOG_LOG_LEVEL", "info"))
	level, ok := validLogLevels[levelName]
	if !ok {
		return nil, fmt.Errorf("YTBLOG_LOG_LEVEL must be one of debug, info, warn, error; got %q", levelName)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("YTBLOG_PORT", 3000),
			Env:  envString("YTBLOG_ENV", "development"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(envString("YTBLOG_API_URL", DefaultAPIBaseURL), "/"),
			Timeout: envDuration("YTBLOG_API_TIMEOUT", 30*time.Second),
		},
		Poll: PollConfig{
			Interval: envDuration("YTBLOG_POLL_INTERVAL", DefaultPollInterval),
			Jitter:   envDuration("YTBLOG_POLL_JITTER", 0),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMin: envInt("YTBLOG_RATE_LIMIT", 10),
		},
		Log: LogConfig{
			Level: level,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints. Load calls it; callers that override
// fields from flags should call it again.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("YTBLOG_API_URL is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("YTBLOG_API_URL must start with http:// or https://, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("YTBLOG_API_TIMEOUT must be positive, got %s", c.API.Timeout)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("YTBLOG_POLL_INTERVAL must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.Jitter < 0 || c.Poll.Jitter > c.Poll.Interval/4 {
		return fmt.Errorf("YTBLOG_POLL_JITTER must be between 0 and a quarter of YTBLOG_POLL_INTERVAL, got %s", c.Poll.Jitter)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("YTBLOG_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}
	if c.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("YTBLOG_RATE_LIMIT must be positive, got %d", c.RateLimit.RequestsPerMin)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
