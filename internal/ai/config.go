package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotConfigured is returned when required AI settings are missing
var ErrNotConfigured = errors.New("ai client not configured")

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Defaults applied by Validate
const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Config holds everything the AI client needs. BaseURL, Model,
// FallbackModel and APIKey are required.
type Config struct {
	Provider      string
	BaseURL       string
	Model         string
	FallbackModel string
	APIKey        string

	// Timeout bounds one logical call including all retries
	Timeout time.Duration
	// MaxAttempts counts the first try
	MaxAttempts int
	// BaseDelay is the first backoff; it doubles per retry, plus up to BaseDelay/2 jitter
	BaseDelay time.Duration
}

// Validate checks the required fields and fills defaults
func (c *Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if c.Model == "" {
		missing = append(missing, "model")
	}
	if c.FallbackModel == "" {
		missing = append(missing, "fallback_model")
	}
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}

	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Provider != ProviderOpenAI && c.Provider != ProviderGemini {
		return fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, c.Provider)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}
