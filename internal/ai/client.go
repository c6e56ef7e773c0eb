// Package ai calls an external generative model with retries, exponential
// backoff, a one-time quota fallback to a second model and tolerant JSON
// recovery.
package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/stoik/lure/internal/logger"
)

// EmptyResponsePrefix starts the placeholder returned for empty or blocked replies
const EmptyResponsePrefix = "[no content: model response was empty or blocked"

// Client is safe for concurrent use. Its ModelState lives as long as the
// Client, normally the whole process.
type Client struct {
	transport   Transport
	state       *ModelState
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	log         *logger.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// NewClient validates cfg and builds a client. A nil transport selects one
// from cfg.Provider.
func NewClient(cfg Config, transport Transport, log *logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		transport = NewTransport(cfg)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		transport:   transport,
		state:       NewModelState(cfg.Model, cfg.FallbackModel),
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		log:         log.WithComponent("ai-client"),
		sleep:       sleepContext,
		jitter:      randomJitter,
	}, nil
}

// State exposes the model selection
func (c *Client) State() *ModelState {
	return c.state
}

// GenerateText returns the model's reply to prompt. An empty or blocked reply
// is not an error: a placeholder starting with EmptyResponsePrefix is
// returned instead.
func (c *Client) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	resp, err := c.complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(resp.Text) == "" {
		reason := resp.FinishReason
		if reason == "" {
			reason = "unknown"
		}
		c.log.Warn().Str("finish_reason", reason).Msg("model returned no content")
		return fmt.Sprintf("%s (finish_reason=%s)]", EmptyResponsePrefix, reason), nil
	}

	return resp.Text, nil
}

// GenerateJSON asks for a JSON-only reply and recovers the object from it. It
// never returns an error: failures come back as a JSONResult with Error set.
func (c *Client) GenerateJSON(ctx context.Context, prompt, system string) JSONResult {
	text, err := c.GenerateText(ctx, prompt+jsonInstruction, system)
	if err != nil {
		return JSONResult{Error: err.Error()}
	}

	data, err := ExtractJSON(text)
	if err != nil {
		c.log.Warn().Err(err).Int("raw_len", len(text)).Msg("could not recover JSON from model response")
		return JSONResult{Error: err.Error(), Raw: text}
	}

	return JSONResult{Data: data, Raw: text}
}

// Ping performs one short generation to check connectivity and credentials
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.GenerateText(ctx, "Hello, are you working? Reply with one short sentence.", "")
}

// complete runs the retry loop on its own goroutine, bounded by the client
// timeout and by ctx.
func (c *Client) complete(ctx context.Context, system, prompt string) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := Go(ctx, func(ctx context.Context) (Response, error) {
		return c.withRetry(ctx, system, prompt)
	})
	return call.Wait(ctx)
}

func (c *Client) withRetry(ctx context.Context, system, prompt string) (Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		model := c.state.Active()
		resp, err := c.transport.Complete(ctx, Request{Model: model, System: system, Prompt: prompt})
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, fmt.Errorf("model call abandoned: %w", ctxErr)
		}
		lastErr = err

		class := Classify(err)
		switch class {
		case ClassRevoked:
			c.log.Error().Err(err).Str("model", model).Msg("API key revoked or reported leaked")
			return Response{}, fmt.Errorf("api key rejected as revoked or leaked, replace LLM_API_KEY: %w", err)
		case ClassTerminal:
			return Response{}, fmt.Errorf("model call failed: %w", err)
		}

		if class == ClassQuota && c.state.SwitchToFallback() {
			c.log.Warn().
				Str("from", model).
				Str("to", c.state.Active()).
				Msg("quota exhausted, switched to fallback model")
		}

		if attempt == c.maxAttempts {
			break
		}

		delay := c.backoff(attempt)
		c.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("model", model).
			Str("class", class.String()).
			Dur("delay", delay).
			Msg("model call failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			return Response{}, fmt.Errorf("model call abandoned: %w", err)
		}
	}

	return Response{}, fmt.Errorf("model call failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// backoff returns baseDelay * 2^(attempt-1) plus jitter in [0, baseDelay/2]
func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay << (attempt - 1)
	return d + c.jitter(c.baseDelay/2)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max) + 1))
}
