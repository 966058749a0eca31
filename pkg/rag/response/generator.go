package response

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/pkg/llm"

	"github.com/cenkalti/backoff/v5"
)

type Config struct {
	AttemptTimeout  time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Temperature     float64
	MaxTokens       int
}

func DefaultConfig() Config {
	return Config{
		AttemptTimeout:  30 * time.Second,
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Temperature:     0.7,
		MaxTokens:       1024,
	}
}

// ErrEmptyReply is returned when the provider answers with blank text.
var ErrEmptyReply = errors.New("empty reply from provider")

// Generator calls the LLM with a per-attempt timeout and bounded retries
type Generator struct {
	llmProvider llm.LLMProvider
	config      Config
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, config Config, logger logger.ILogger) *Generator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultConfig().AttemptTimeout
	}
	return &Generator{
		llmProvider: llmProvider,
		config:      config,
		logger:      logger,
	}
}

// Generate sends promptText as a single user turn. A timed out attempt is
// abandoned and counts as a failure. Client errors that cannot succeed on
// retry stop the loop early. The returned count is the number of attempts.
func (g *Generator) Generate(ctx context.Context, promptText string) (string, int, error) {
	var attempts atomic.Int32

	operation := func() (string, error) {
		n := attempts.Add(1)

		attemptCtx, cancel := context.WithTimeout(ctx, g.config.AttemptTimeout)
		defer cancel()

		out, err := g.llmProvider.Chat(attemptCtx,
			[]llm.Message{{Role: "user", Content: promptText}},
			llm.WithTemperature(g.config.Temperature),
			llm.WithMaxTokens(g.config.MaxTokens),
		)
		if err == nil && out == "" {
			err = ErrEmptyReply
		}
		if err != nil {
			g.logger.Warn("GENERATOR", "Generation attempt failed", map[string]interface{}{
				"attempt": n,
				"error":   err.Error(),
			})
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			if !llm.IsRetryable(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return out, nil
	}

	b := backoff.NewExponentialBackOff()
	if g.config.InitialInterval > 0 {
		b.InitialInterval = g.config.InitialInterval
	}
	if g.config.MaxInterval > 0 {
		b.MaxInterval = g.config.MaxInterval
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(g.config.MaxAttempts)),
	)
	if err != nil {
		return "", int(attempts.Load()), fmt.Errorf("generation failed after %d attempts: %w", attempts.Load(), err)
	}
	return out, int(attempts.Load()), nil
}
