// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	FrontendURL   string
	Gateway       GatewayConfig
	Interview     InterviewConfig
	TranscriptLog TranscriptLogConfig
}

// GatewayConfig configures the generative-text HTTP gateway.
type GatewayConfig struct {
	Endpoint        string
	APIKey          string
	RequestTimeout  time.Duration
	MaxOutputTokens int
	TopP            float64
}

// InterviewConfig holds the interview policy knobs.
type InterviewConfig struct {
	MaxQuestions      int
	MaxFollowups      int
	InactivityTimeout time.Duration
	SessionTTL        time.Duration
}

// TranscriptLogConfig controls NDJSON transcript logging.
type TranscriptLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		Gateway: GatewayConfig{
			Endpoint:        getEnv("LLM_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"),
			APIKey:          getEnv("LLM_API_KEY", ""),
			RequestTimeout:  getEnvDuration("LLM_REQUEST_TIMEOUT", 30*time.Second),
			MaxOutputTokens: getEnvInt("LLM_MAX_OUTPUT_TOKENS", 1024),
			TopP:            0.95,
		},
		Interview: InterviewConfig{
			MaxQuestions:      getEnvInt("INTERVIEW_MAX_QUESTIONS", 8),
			MaxFollowups:      getEnvInt("INTERVIEW_MAX_FOLLOWUPS", 2),
			InactivityTimeout: getEnvDuration("INTERVIEW_INACTIVITY_TIMEOUT", 60*time.Second),
			SessionTTL:        getEnvDuration("INTERVIEW_SESSION_TTL", 60*time.Minute),
		},
		TranscriptLog: TranscriptLogConfig{
			Enabled:       getEnvBool("TRANSCRIPT_LOG_ENABLED", true),
			Dir:           getEnv("TRANSCRIPT_LOG_DIR", "./data/logs/interviews"),
			GlobalEnabled: getEnvBool("TRANSCRIPT_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("TRANSCRIPT_LOG_GLOBAL_PATH", "./data/logs/interviews/all.ndjson"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Gateway.Endpoint == "" {
		return fmt.Errorf("LLM_ENDPOINT cannot be empty")
	}
	if c.Gateway.RequestTimeout <= 0 {
		return fmt.Errorf("LLM_REQUEST_TIMEOUT must be > 0")
	}
	if c.Gateway.MaxOutputTokens <= 0 {
		return fmt.Errorf("LLM_MAX_OUTPUT_TOKENS must be > 0")
	}
	if c.Interview.MaxQuestions <= 0 {
		return fmt.Errorf("INTERVIEW_MAX_QUESTIONS must be > 0")
	}
	if c.Interview.MaxFollowups < 0 {
		return fmt.Errorf("INTERVIEW_MAX_FOLLOWUPS cannot be negative")
	}
	if c.Interview.InactivityTimeout <= 0 {
		return fmt.Errorf("INTERVIEW_INACTIVITY_TIMEOUT must be > 0")
	}
	if c.TranscriptLog.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_LOG_DIR cannot be empty")
	}
	if c.TranscriptLog.GlobalPath == "" {
		return fmt.Errorf("TRANSCRIPT_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.TranscriptLog.QueueSize <= 0 {
		return fmt.Errorf("TRANSCRIPT_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
