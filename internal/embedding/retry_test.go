package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyEncoder struct {
	failures int
	calls    int
	err      error
}

func (f *flakyEncoder) Encode(context.Context, string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []float32{1, 2, 3}, nil
}

func (f *flakyEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vec, err := f.Encode(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = vec
	}
	return out, nil
}

func (f *flakyEncoder) Model() string  { return "flaky" }
func (f *flakyEncoder) Dimension() int { return 3 }

func TestValidateInput(t *testing.T) {
	assert.ErrorIs(t, validateInput(""), ErrEncoding)
	assert.ErrorIs(t, validateInput("   "), ErrEncoding)
	assert.ErrorIs(t, validateInput(strings.Repeat("x", MaxInputBytes+1)), ErrEncoding)
	assert.NoError(t, validateInput("a perfectly fine fact"))
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyEncoder{failures: 2, err: errors.New("connection reset")}
	enc := WithRetry(inner, time.Second, 3, nil)

	vec, err := enc.Encode(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryExhaustionWrapsErrEncoding(t *testing.T) {
	inner := &flakyEncoder{failures: 10, err: errors.New("provider down")}
	enc := WithRetry(inner, time.Second, 2, nil)

	_, err := enc.Encode(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoding)
	assert.Contains(t, err.Error(), "provider down")
	assert.Equal(t, 2, inner.calls)
}

func TestRetrySkipsInvalidInput(t *testing.T) {
	inner := &flakyEncoder{failures: 10, err: fmt.Errorf("%w: empty text", ErrEncoding)}
	enc := WithRetry(inner, time.Second, 3, nil)

	_, err := enc.Encode(context.Background(), "")
	require.ErrorIs(t, err, ErrEncoding)
	assert.Equal(t, 1, inner.calls, "input errors are permanent, no retry")
}

func TestRetryDelegatesModelAndDimension(t *testing.T) {
	enc := WithRetry(&flakyEncoder{}, 0, 0, nil)
	assert.Equal(t, "flaky", enc.Model())
	assert.Equal(t, 3, enc.Dimension())
}

func TestRetryEncodeBatch(t *testing.T) {
	inner := &flakyEncoder{failures: 1, err: errors.New("timeout")}
	enc := WithRetry(inner, time.Second, 3, nil)

	vecs, err := enc.EncodeBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}
