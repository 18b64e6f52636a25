package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-family-activity-suggestions/app/resilience"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

const DefaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey string
	Model  string
	// Timeout bounds a single attempt.
	Timeout time.Duration
	Retry   resilience.RetryPolicy
	Enabled bool
}

// LLM is what the rest of the app needs from a language model.
type LLM interface {
	Complete(ctx context.Context, prompt string, maxTokens int32, temperature float32) (string, error)
	CompleteStructured(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32, temperature float32) (string, error)
	Chat(ctx context.Context, system string, history []types.ChatMessage, message string) (string, error)
	Model() string
}

var _ LLM = (*AIClient)(nil)

type AIClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	retry   resilience.RetryPolicy
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewAIClient returns types.ErrProviderDisabled when the client is switched
// off or has no API key; callers treat that as "no LLM".
func NewAIClient(ctx context.Context, cfg Config, logger *slog.Logger) (*AIClient, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil, types.ErrProviderDisabled
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = resilience.DefaultRetryPolicy()
	}
	return &AIClient{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
		breaker: resilience.NewBreaker[string](resilience.DefaultBreakerSettings("llm"), logger),
		logger:  logger,
	}, nil
}

func (ai *AIClient) Model() string { return ai.model }

func (ai *AIClient) Complete(ctx context.Context, prompt string, maxTokens int32, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxTokens,
	}
	return ai.generate(ctx, "Complete", prompt, config)
}

// CompleteStructured asks for JSON that conforms to schema.
func (ai *AIClient) CompleteStructured(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	return ai.generate(ctx, "CompleteStructured", prompt, config)
}

// Chat replays history as a genai chat session and sends message.
func (ai *AIClient) Chat(ctx context.Context, system string, history []types.ChatMessage, message string) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Chat", trace.WithAttributes(
		attribute.String("llm.model", ai.model),
		attribute.Int("chat.history_len", len(history)),
	))
	defer span.End()

	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == types.ChatRoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.7)}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	text, err := ai.call(ctx, "Chat", func(ctx context.Context) (string, error) {
		chat, err := ai.client.Chats.Create(ctx, ai.model, config, contents)
		if err != nil {
			return "", fmt.Errorf("failed to create chat: %w", err)
		}
		result, err := chat.SendMessage(ctx, genai.Part{Text: message})
		if err != nil {
			return "", err
		}
		return result.Text(), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat failed")
		return "", err
	}
	span.SetStatus(codes.Ok, "chat completed")
	return text, nil
}

func (ai *AIClient) generate(ctx context.Context, op, prompt string, config *genai.GenerateContentConfig) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, op, trace.WithAttributes(
		attribute.String("llm.model", ai.model),
		attribute.Int("llm.prompt_chars", len(prompt)),
	))
	defer span.End()

	text, err := ai.call(ctx, op, func(ctx context.Context) (string, error) {
		result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
		if err != nil {
			return "", err
		}
		return result.Text(), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		return "", err
	}
	span.SetStatus(codes.Ok, op+" completed")
	return text, nil
}

// call retries fn with a per-attempt timeout behind the breaker and maps
// every failure to ErrProviderUnavailable.
func (ai *AIClient) call(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	l := ai.logger.With(slog.String("method", op), slog.String("model", ai.model))
	start := time.Now()

	text, err := ai.breaker.Execute(func() (string, error) {
		var text string
		err := resilience.Retry(ctx, ai.retry, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, ai.timeout)
			defer cancel()
			t, err := fn(attemptCtx)
			if err != nil {
				l.WarnContext(ctx, "LLM attempt failed", slog.Any("error", err))
				return classify(err)
			}
			text = t
			return nil
		})
		return text, err
	})
	outcome := "ok"
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: empty response", types.ErrMalformedOutput)
	}
	if err != nil {
		outcome = "error"
		if resilience.IsBreakerRejection(err) {
			outcome = "rejected"
		}
	}
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("provider", "llm"), attribute.String("outcome", outcome))
	m.ProviderCallsTotal.Add(ctx, 1, attrs)
	m.ProviderCallDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		l.WarnContext(ctx, "LLM call failed", slog.Any("error", err), slog.Duration("latency", time.Since(start)))
		if errors.Is(err, types.ErrMalformedOutput) {
			return "", err
		}
		return "", fmt.Errorf("%w: llm %s: %s", types.ErrProviderUnavailable, op, err.Error())
	}
	l.DebugContext(ctx, "LLM call completed", slog.Duration("latency", time.Since(start)))
	return text, nil
}

// classify marks request errors the model API will keep rejecting as
// permanent. Throttling, timeouts and 5xx stay retryable.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Code == http.StatusRequestTimeout:
		return err
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return resilience.Permanent(err)
	}
	return err
}
