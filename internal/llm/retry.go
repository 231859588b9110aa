package llm

import (
	"context"
	"strings"
	"time"
)

// RetryPolicy bounds the retry loop around one external model call. It is a
// plain value handed to WithRetry at each call site, never package state.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy mirrors the production defaults: up to 3 retries with
// exponential backoff from 1s, capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     8 * time.Second,
	}
}

// IsTransient classifies an error as retriable. Classification is a
// documented substring heuristic on the error text ("rate limit" or
// "timeout"); the upstream collaborators surface no structured code today.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "timeout")
}

// WithRetry runs op, retrying transient failures per policy. Non-transient
// errors and retry exhaustion propagate the original error unchanged. The
// backoff sleep honors ctx cancellation; an in-flight call does not.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	delay := policy.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 8 * time.Second
	}

	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !IsTransient(err) || attempt >= policy.MaxRetries {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
