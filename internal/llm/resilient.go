package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// RetryConfig bounds how a Resilient client calls its provider.
type RetryConfig struct {
	// Timeout applies to each attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries int
	// RetryBackoff is the wait before the first retry; it doubles each time.
	RetryBackoff time.Duration
	// MaxConcurrent caps in-flight provider calls across all sessions. Zero
	// means no cap.
	MaxConcurrent int64
}

// DefaultRetryConfig returns conservative defaults for interactive use.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Timeout:       20 * time.Second,
		MaxRetries:    2,
		RetryBackoff:  250 * time.Millisecond,
		MaxConcurrent: 8,
	}
}

// Validate checks the configuration values.
func (c RetryConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff must be non-negative, got %s", c.RetryBackoff)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent must be non-negative, got %d", c.MaxConcurrent)
	}
	return nil
}

// Resilient wraps a Client with a per-attempt timeout, bounded retries with
// exponential backoff and a global concurrency cap.
type Resilient struct {
	next   Client
	config RetryConfig
	sem    *semaphore.Weighted
	logger *zap.Logger
}

var _ Client = (*Resilient)(nil)

// NewResilient wraps next. A nil logger disables logging.
func NewResilient(next Client, config RetryConfig, logger *zap.Logger) (*Resilient, error) {
	if next == nil {
		return nil, errors.New("client must not be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resilient{next: next, config: config, logger: logger}
	if config.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(config.MaxConcurrent)
	}
	return r, nil
}

// GenerateContent generates text content with retries.
func (r *Resilient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return r.call(ctx, "content", tier, func(ctx context.Context) (string, error) {
		return r.next.GenerateContent(ctx, prompt, tier)
	})
}

// GenerateJSON generates JSON content with retries.
func (r *Resilient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return r.call(ctx, "json", tier, func(ctx context.Context) (string, error) {
		return r.next.GenerateJSON(ctx, prompt, tier)
	})
}

// GetModel returns the wrapped client's model for a tier.
func (r *Resilient) GetModel(tier ModelTier) string {
	return r.next.GetModel(tier)
}

// Close closes the wrapped client.
func (r *Resilient) Close() error {
	return r.next.Close()
}

func (r *Resilient) call(ctx context.Context, mode string, tier ModelTier, fn func(context.Context) (string, error)) (string, error) {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.config.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				callsTotal.WithLabelValues(mode, "canceled").Inc()
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			retriesTotal.WithLabelValues(mode).Inc()
		}

		out, err := r.attempt(ctx, fn)
		if err == nil {
			callsTotal.WithLabelValues(mode, "ok").Inc()
			callDuration.WithLabelValues(mode, string(tier)).Observe(time.Since(start).Seconds())
			return out, nil
		}
		lastErr = err

		// The caller gave up: retrying would outlive it.
		if ctx.Err() != nil {
			callsTotal.WithLabelValues(mode, "canceled").Inc()
			return "", ctx.Err()
		}

		var blocked *BlockedError
		if errors.As(err, &blocked) {
			callsTotal.WithLabelValues(mode, "blocked").Inc()
			return "", err
		}

		r.logger.Debug("llm attempt failed",
			zap.String("mode", mode),
			zap.String("tier", string(tier)),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.config.MaxRetries),
			zap.Error(err),
		)
	}

	callsTotal.WithLabelValues(mode, "error").Inc()
	r.logger.Warn("llm call failed after retries",
		zap.String("mode", mode),
		zap.Int("attempts", r.config.MaxRetries+1),
		zap.Error(lastErr),
	)
	return "", fmt.Errorf("llm call failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

func (r *Resilient) attempt(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer r.sem.Release(1)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	return fn(attemptCtx)
}
