package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryOptions defines retry behavior with exponential backoff
type RetryOptions struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool
	Logger    *Logger
}

// DefaultRetryOptions returns default retry options
func DefaultRetryOptions() *RetryOptions {
	return &RetryOptions{
		MaxRetries:  2,
		InitialWait: 2 * time.Second,
		MaxWait:     30 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryWithResult retries a function returning a result, with exponential
// backoff between attempts. It stops early when the context is cancelled
// or when Retryable rejects the error.
func RetryWithResult[T any](ctx context.Context, fn func() (T, error), options *RetryOptions) (T, error) {
	if options == nil {
		options = DefaultRetryOptions()
	}

	var result T
	var err error
	wait := options.InitialWait

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if options.Retryable != nil && !options.Retryable(err) {
			return result, err
		}
		if attempt == options.MaxRetries {
			break
		}

		if options.Logger != nil {
			options.Logger.Warn("Retry attempt %d/%d after error: %v (waiting %v)",
				attempt+1, options.MaxRetries, err, wait)
		}

		select {
		case <-time.After(wait):
			wait = time.Duration(float64(wait) * options.Multiplier)
			if wait > options.MaxWait {
				wait = options.MaxWait
			}
		case <-ctx.Done():
			return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return result, err
}
