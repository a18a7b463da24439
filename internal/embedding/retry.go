package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/metrics"
)

// RetryingEncoder wraps an Encoder with per-call timeouts and exponential
// backoff on transient provider failures. Invalid input (ErrEncoding) is
// never retried.
type RetryingEncoder struct {
	inner    Encoder
	timeout  time.Duration
	attempts int
	metrics  *metrics.Collector
}

var _ Encoder = (*RetryingEncoder)(nil)

// WithRetry decorates an encoder. Zero timeout defaults to 15s, zero
// attempts to 3. A nil collector disables metrics.
func WithRetry(inner Encoder, timeout time.Duration, attempts int, collector *metrics.Collector) *RetryingEncoder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if attempts <= 0 {
		attempts = 3
	}
	return &RetryingEncoder{
		inner:    inner,
		timeout:  timeout,
		attempts: attempts,
		metrics:  collector,
	}
}

// Encode delegates with retry; after exhausting attempts the last error is
// wrapped as ErrEncoding so callers can apply their degradation policy.
func (r *RetryingEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := r.run(ctx, func(ctx context.Context) error {
		var err error
		vec, err = r.inner.Encode(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// EncodeBatch delegates with retry.
func (r *RetryingEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := r.run(ctx, func(ctx context.Context) error {
		var err error
		vecs, err = r.inner.EncodeBatch(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// Model returns the inner model name.
func (r *RetryingEncoder) Model() string {
	return r.inner.Model()
}

// Dimension returns the inner dimension.
func (r *RetryingEncoder) Dimension() int {
	return r.inner.Dimension()
}

func (r *RetryingEncoder) run(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.RecordTiming(metrics.OpEmbedding, time.Since(start))
		}
	}()

	delay := 200 * time.Millisecond
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err = fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		// Bad input is permanent; don't burn attempts on it
		if errors.Is(err, ErrEncoding) {
			return err
		}
		if attempt == r.attempts {
			break
		}

		slog.Warn("encoder call failed, retrying", "model", r.inner.Model(), "attempt", attempt, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrEncoding, ctx.Err())
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %v", ErrEncoding, err)
}
