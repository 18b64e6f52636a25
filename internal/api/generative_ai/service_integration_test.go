//go:build integration

package generativeAI

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func setupAIClientTest(t *testing.T) *AIClient {
	t.Helper()
	_ = godotenv.Load("../../../.env.test")
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GOOGLE_GEMINI_API_KEY not set")
	}
	client, err := NewAIClient(context.Background(), Config{
		APIKey:  apiKey,
		Enabled: true,
		Timeout: 30 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestAIClient_Complete(t *testing.T) {
	client := setupAIClientTest(t)
	text, err := client.Complete(context.Background(), "Name one outdoor activity for a 5 year old. One line.", 64, 0.2)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestAIClient_CompleteStructured(t *testing.T) {
	client := setupAIClientTest(t)
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
		},
		Required: []string{"title"},
	}
	text, err := client.CompleteStructured(context.Background(), "Suggest one indoor activity for a toddler.", schema, 128, 0.2)
	require.NoError(t, err)
	assert.Contains(t, text, "title")
}
