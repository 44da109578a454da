package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/config"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

// newStubClient returns a Client wired to a stub provider and a pointer that
// receives the last request body the stub saw.
func newStubClient(t *testing.T, responseText string) (*Client, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":          "msg_01",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-sonnet-4-20250514",
			"content":     []map[string]string{{"type": "text", "text": responseText}},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 1, "output_tokens": 1},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(
		config.AIConfig{APIKey: "test-key", Model: "claude-sonnet-4-20250514", TimeoutSec: 5},
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)
	return client, captured
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	client, err := NewClient(config.AIConfig{Model: "claude-sonnet-4-20250514"})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, client)
}

func TestChatRespond(t *testing.T) {
	t.Run("prepends default persona when no system message", func(t *testing.T) {
		client, captured := newStubClient(t, "hello there")

		got, err := client.ChatRespond(context.Background(), []Message{
			{Role: "user", Content: "hi"},
		})

		require.NoError(t, err)
		assert.Equal(t, "hello there", got)
		require.Len(t, captured.System, 1)
		assert.Contains(t, captured.System[0].Text, "DocuMind")
		assert.Equal(t, int64(1000), captured.MaxTokens)
		assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	})

	t.Run("caller system message wins", func(t *testing.T) {
		client, captured := newStubClient(t, "ok")

		_, err := client.ChatRespond(context.Background(), []Message{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hi"},
		})

		require.NoError(t, err)
		require.Len(t, captured.System, 1)
		assert.Equal(t, "be terse", captured.System[0].Text)
		assert.Len(t, captured.Messages, 1)
	})

	t.Run("empty conversation rejected", func(t *testing.T) {
		client, _ := newStubClient(t, "ok")

		_, err := client.ChatRespond(context.Background(), nil)

		assert.Error(t, err)
	})
}

func TestAnalyze(t *testing.T) {
	client, captured := newStubClient(t, "1. Summary ...")

	got, err := client.Analyze(context.Background(), "quarterly results were strong")

	require.NoError(t, err)
	assert.Equal(t, "1. Summary ...", got)
	assert.InDelta(t, 0.5, captured.Temperature, 0.001)
	assert.Equal(t, int64(1000), captured.MaxTokens)
	require.Len(t, captured.Messages, 1)
	assert.Contains(t, string(captured.Messages[0].Content), "quarterly results were strong")
	assert.Contains(t, string(captured.Messages[0].Content), "Key points")
}

func TestGenerate(t *testing.T) {
	client, captured := newStubClient(t, "# Policy Update")

	got, err := client.Generate(context.Background(), "memo", "Policy Update", "Remote work policy change")

	require.NoError(t, err)
	assert.Equal(t, "# Policy Update", got)
	assert.Equal(t, int64(2000), captured.MaxTokens)
	body := string(captured.Messages[0].Content)
	assert.Contains(t, body, "memo")
	assert.Contains(t, body, "Policy Update")
	assert.Contains(t, body, "Remote work policy change")
	assert.Contains(t, body, "Markdown")
}

func TestProviderErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"prompt too long"}}`))
	}))
	defer server.Close()

	client, err := NewClient(
		config.AIConfig{APIKey: "test-key", Model: "claude-sonnet-4-20250514", TimeoutSec: 5},
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), "content")

	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "prompt too long")
}

func TestTruncateContent(t *testing.T) {
	long := strings.Repeat("a", maxAnalyzeChars+100)

	got := truncateContent(long)

	assert.Len(t, got, maxAnalyzeChars+3)
	assert.True(t, strings.HasSuffix(got, "..."))

	short := "short content"
	assert.Equal(t, short, truncateContent(short))
}
