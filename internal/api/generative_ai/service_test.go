package generativeAI

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/resilience"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupCallTest builds a client around call only; no genai backend is needed.
func setupCallTest() *AIClient {
	logger := testLogger()
	return &AIClient{
		model:   "test-model",
		timeout: time.Second,
		retry:   resilience.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond},
		breaker: resilience.NewBreaker[string](resilience.DefaultBreakerSettings("llm-test"), logger),
		logger:  logger,
	}
}

func TestNewAIClient_Disabled(t *testing.T) {
	logger := testLogger()

	t.Run("disabled flag", func(t *testing.T) {
		client, err := NewAIClient(context.Background(), Config{APIKey: "key", Enabled: false}, logger)
		assert.Nil(t, client)
		assert.ErrorIs(t, err, types.ErrProviderDisabled)
	})

	t.Run("missing api key", func(t *testing.T) {
		client, err := NewAIClient(context.Background(), Config{Enabled: true}, logger)
		assert.Nil(t, client)
		assert.ErrorIs(t, err, types.ErrProviderDisabled)
	})
}

func TestAIClient_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failure is retried", func(t *testing.T) {
		ai := setupCallTest()
		calls := 0
		text, err := ai.call(ctx, "Complete", func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
			}
			return `[{"id":"a"}]`, nil
		})
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"a"}]`, text)
		assert.Equal(t, 2, calls)
	})

	t.Run("rate limiting is retried", func(t *testing.T) {
		ai := setupCallTest()
		calls := 0
		_, err := ai.call(ctx, "Complete", func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", genai.APIError{Code: http.StatusTooManyRequests}
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("bad request is not retried", func(t *testing.T) {
		ai := setupCallTest()
		calls := 0
		_, err := ai.call(ctx, "Complete", func(context.Context) (string, error) {
			calls++
			return "", genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}
		})
		assert.ErrorIs(t, err, types.ErrProviderUnavailable)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after the policy's attempts", func(t *testing.T) {
		ai := setupCallTest()
		calls := 0
		_, err := ai.call(ctx, "Chat", func(context.Context) (string, error) {
			calls++
			return "", errors.New("connection reset")
		})
		assert.ErrorIs(t, err, types.ErrProviderUnavailable)
		assert.Equal(t, 3, calls)
	})

	t.Run("each attempt gets its own deadline", func(t *testing.T) {
		ai := setupCallTest()
		ai.timeout = 5 * time.Millisecond
		calls := 0
		text, err := ai.call(ctx, "Complete", func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "late but fine", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "late but fine", text)
	})

	t.Run("empty text is malformed output", func(t *testing.T) {
		ai := setupCallTest()
		_, err := ai.call(ctx, "Complete", func(context.Context) (string, error) {
			return "  ", nil
		})
		assert.ErrorIs(t, err, types.ErrMalformedOutput)
	})
}
