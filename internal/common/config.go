package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that decodes TOML strings like "30s" or "1h"
type Duration time.Duration

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration back to its string form
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std converts to a standard time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root application configuration
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Server       ServerConfig       `toml:"server"`
	Logging      LoggingConfig      `toml:"logging"`
	Sessions     SessionsConfig     `toml:"sessions"`
	Extractor    ExtractorConfig    `toml:"extractor"`
	Publisher    PublisherConfig    `toml:"publisher"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// SessionsConfig contains session lifecycle settings
type SessionsConfig struct {
	TTL          Duration `toml:"ttl"`           // Idle time before a session is reaped
	ReapSchedule string   `toml:"reap_schedule"` // Cron schedule for the session reaper
}

// ExtractorConfig contains product catalog fetch settings
type ExtractorConfig struct {
	BaseURL           string   `toml:"base_url"`            // Catalog site base URL
	RequestTimeout    Duration `toml:"request_timeout"`     // HTTP request timeout
	RequestDelay      Duration `toml:"request_delay"`       // Minimum delay between catalog requests
	RandomDelay       Duration `toml:"random_delay"`        // Random delay jitter to add between searches
	MaxBodySize       int      `toml:"max_body_size"`       // Maximum response body size in bytes
	UserAgentRotation bool     `toml:"user_agent_rotation"` // Rotate user agent per request
}

// PublisherConfig contains publish platform API settings
type PublisherConfig struct {
	BaseURL        string   `toml:"base_url"`        // Platform API base URL
	RequestTimeout Duration `toml:"request_timeout"` // HTTP request timeout
	MaxBoards      int      `toml:"max_boards"`      // Max boards returned on session start
}

// OrchestratorConfig contains job execution settings
type OrchestratorConfig struct {
	Concurrency int `toml:"concurrency"` // Number of concurrent job workers
	QueueSize   int `toml:"queue_size"`  // Buffered queue capacity for pending jobs
}

// NewDefaultConfig returns a config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Sessions: SessionsConfig{
			TTL:          Duration(30 * time.Minute),
			ReapSchedule: "*/5 * * * *",
		},
		Extractor: ExtractorConfig{
			BaseURL:           "https://www.amazon.com",
			RequestTimeout:    Duration(30 * time.Second),
			RequestDelay:      Duration(2 * time.Second),
			RandomDelay:       Duration(2 * time.Second),
			MaxBodySize:       10 * 1024 * 1024, // 10 MB
			UserAgentRotation: true,
		},
		Publisher: PublisherConfig{
			BaseURL:        "https://api.pinterest.com/v5",
			RequestTimeout: Duration(15 * time.Second),
			MaxBoards:      5,
		},
		Orchestrator: OrchestratorConfig{
			Concurrency: 2,
			QueueSize:   64,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// A missing file is not an error; defaults apply.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else {
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks config values that would otherwise fail at runtime
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Orchestrator.Concurrency < 1 {
		return fmt.Errorf("orchestrator concurrency must be at least 1, got %d", c.Orchestrator.Concurrency)
	}
	if c.Orchestrator.QueueSize < 1 {
		return fmt.Errorf("orchestrator queue size must be at least 1, got %d", c.Orchestrator.QueueSize)
	}
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Sessions.TTL.Std())
	}
	if !strings.HasPrefix(c.Extractor.BaseURL, "http://") && !strings.HasPrefix(c.Extractor.BaseURL, "https://") {
		return fmt.Errorf("extractor base_url must be an absolute URL, got %q", c.Extractor.BaseURL)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRENDPIN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("TRENDPIN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TRENDPIN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("TRENDPIN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("TRENDPIN_LOG_OUTPUT"); output != "" {
		parts := strings.Split(output, ",")
		outputs := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if ttl := os.Getenv("TRENDPIN_SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Sessions.TTL = Duration(d)
		}
	}
	if schedule := os.Getenv("TRENDPIN_SESSION_REAP_SCHEDULE"); schedule != "" {
		config.Sessions.ReapSchedule = schedule
	}

	if baseURL := os.Getenv("TRENDPIN_EXTRACTOR_BASE_URL"); baseURL != "" {
		config.Extractor.BaseURL = baseURL
	}
	if timeout := os.Getenv("TRENDPIN_EXTRACTOR_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Extractor.RequestTimeout = Duration(d)
		}
	}
	if delay := os.Getenv("TRENDPIN_EXTRACTOR_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Extractor.RequestDelay = Duration(d)
		}
	}
	if jitter := os.Getenv("TRENDPIN_EXTRACTOR_RANDOM_DELAY"); jitter != "" {
		if d, err := time.ParseDuration(jitter); err == nil {
			config.Extractor.RandomDelay = Duration(d)
		}
	}
	if rotation := os.Getenv("TRENDPIN_EXTRACTOR_USER_AGENT_ROTATION"); rotation != "" {
		if b, err := strconv.ParseBool(rotation); err == nil {
			config.Extractor.UserAgentRotation = b
		}
	}

	if baseURL := os.Getenv("TRENDPIN_PUBLISHER_BASE_URL"); baseURL != "" {
		config.Publisher.BaseURL = baseURL
	}
	if timeout := os.Getenv("TRENDPIN_PUBLISHER_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Publisher.RequestTimeout = Duration(d)
		}
	}

	if concurrency := os.Getenv("TRENDPIN_ORCHESTRATOR_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Orchestrator.Concurrency = c
		}
	}
	if queueSize := os.Getenv("TRENDPIN_ORCHESTRATOR_QUEUE_SIZE"); queueSize != "" {
		if qs, err := strconv.Atoi(queueSize); err == nil {
			config.Orchestrator.QueueSize = qs
		}
	}
}
