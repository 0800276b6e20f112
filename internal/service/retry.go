package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fadilmartias/resume-screener/internal/config"
)

var (
	// ErrTransient marks a call that kept failing with retryable errors
	// (rate limiting, timeouts, 5xx) until the attempts ran out.
	ErrTransient = errors.New("llm transient failure")
	// ErrPermanent marks a call that failed with a non-retryable error
	// (bad credential, malformed request or response).
	ErrPermanent = errors.New("llm permanent failure")
	// ErrNotConfigured is returned when no credential is available.
	ErrNotConfigured = errors.New("llm not configured")
)

// StatusError carries the HTTP status of a failed provider call.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// RetryPolicy bounds retries of a single external call with exponential
// backoff: BaseDelay, 2*BaseDelay, ... capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      2 * time.Second,
		MaxDelay:       10 * time.Second,
		RequestTimeout: 60 * time.Second,
	}
}

func RetryPolicyFromConfig(cfg *config.LLMConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg == nil {
		return p
	}
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		p.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		p.MaxDelay = cfg.MaxDelay
	}
	if cfg.RequestTimeout > 0 {
		p.RequestTimeout = cfg.RequestTimeout
	}
	return p
}

// Backoff returns the delay to wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// wait blocks for d or until ctx is done. Tests replace it to skip backoff.
var wait = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds, fails permanently, or attempts run out. Each
// attempt gets its own RequestTimeout.
func (p RetryPolicy) Do(ctx context.Context, log *zap.Logger, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := p.Backoff(attempt - 1)
			log.Debug("retrying llm call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("delay", delay),
			)
			if err := wait(ctx, delay); err != nil {
				return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
			}
		}

		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrTransient, ctx.Err())
		}
		if !IsRetryable(err) {
			log.Warn("non-retryable llm error", zap.String("op", op), zap.Error(err))
			return fmt.Errorf("%s: %w: %w", op, ErrPermanent, err)
		}
		log.Warn("retryable llm error", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
	}

	return fmt.Errorf("%s: max attempts (%d) exceeded: %w: %w", op, attempts, ErrTransient, lastErr)
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.RequestTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.RequestTimeout)
	defer cancel()
	return fn(callCtx)
}

// IsRetryable classifies provider errors: rate limits, server errors,
// per-call timeouts and dropped connections are retried; client errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	var statusErr *StatusError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	case errors.As(err, &statusErr):
		code = statusErr.Code
	}
	if code != 0 {
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}
