package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"http 429", errors.New("Error 429: too many requests"), true},
		{"resource exhausted", errors.New("Status: RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("quota exceeded for model"), true},
		{"server error", errors.New("Error 500: internal error"), false},
		{"auth error", errors.New("Error 401: invalid API key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantSeconds float64
	}{
		{
			name:        "gemini please retry format",
			err:         errors.New("Error 429, Message: quota exceeded. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"),
			wantSeconds: 45.387,
		},
		{
			name:        "retryDelay with colon",
			err:         errors.New("retryDelay: 30s"),
			wantSeconds: 30,
		},
		{
			name:        "retryDelay with space",
			err:         errors.New("details { retryDelay 12.5s }"),
			wantSeconds: 12.5,
		},
		{
			name:        "no delay in message",
			err:         errors.New("Error 429: too many requests"),
			wantSeconds: 0,
		},
		{
			name:        "nil error",
			err:         nil,
			wantSeconds: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRetryDelay(tt.err)
			assert.InDelta(t, tt.wantSeconds, got.Seconds(), 0.001)
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := NewDefaultRetryConfig()

	tests := []struct {
		name     string
		attempt  int
		apiDelay time.Duration
		want     time.Duration
	}{
		{"first attempt uses initial backoff", 0, 0, 45 * time.Second},
		{"second attempt multiplies", 1, 0, 67500 * time.Millisecond},
		{"later attempts cap at max", 3, 0, 90 * time.Second},
		{"api delay plus buffer", 0, 30 * time.Second, 35 * time.Second},
		{"api delay multiplied on retry", 1, 30 * time.Second, 52500 * time.Millisecond},
		{"api delay capped at max", 4, 60 * time.Second, 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.CalculateBackoff(tt.attempt, tt.apiDelay))
		})
	}
}

// fastRetryConfig keeps retry tests from sleeping for real.
func fastRetryConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 1.0,
	}
}

func TestWithRetry_SucceedsAfterTransientRateLimit(t *testing.T) {
	attempts := 0
	result, err := WithRetry(context.Background(), fastRetryConfig(3), arbor.NewLogger(), "test call", func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("Error 429: too many requests")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_ExhaustionWrapsLastError(t *testing.T) {
	lastErr := errors.New("Status: RESOURCE_EXHAUSTED")
	attempts := 0

	_, err := WithRetry(context.Background(), fastRetryConfig(2), arbor.NewLogger(), "test call", func() (int, error) {
		attempts++
		return 0, lastErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial try plus two retries
	assert.ErrorIs(t, err, lastErr)
	assert.Contains(t, err.Error(), "test call failed after 2 retries")
}

func TestWithRetry_NoRetryOnFirstSuccess(t *testing.T) {
	attempts := 0
	result, err := WithRetry(context.Background(), fastRetryConfig(5), arbor.NewLogger(), "test call", func() (int, error) {
		attempts++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	config := &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Minute,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 1.0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(ctx, config, arbor.NewLogger(), "test call", func() (int, error) {
		return 0, errors.New("quota exceeded")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
