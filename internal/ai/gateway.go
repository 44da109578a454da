package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"documind/internal/config"
)

// Package ai wraps the external text-generation provider. Each operation is a
// single request/response call with no retry; retry policy belongs to callers
// and applies to transport failures only.

var (
	// ErrNotConfigured means the provider credential is missing. It is raised
	// at construction time so a misconfigured process fails at startup rather
	// than on the first request.
	ErrNotConfigured = errors.New("ai api key is not configured")

	// ErrProvider marks a failed provider call. The provider's own message is
	// carried in the wrapped error and never swallowed.
	ErrProvider = errors.New("ai provider request failed")
)

// Message is a single turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Gateway is the contract consumed by the document service and chat handler.
type Gateway interface {
	// ChatRespond answers a conversation. A fixed assistant persona is used
	// when the caller supplies no system message.
	ChatRespond(ctx context.Context, messages []Message) (string, error)

	// Analyze extracts a structured summary (summary, key points, themes,
	// action items) from document text, truncated to a fixed maximum length.
	Analyze(ctx context.Context, content string) (string, error)

	// Generate produces a complete markdown document for the given type,
	// title, and description.
	Generate(ctx context.Context, documentType, title, description string) (string, error)
}

// Client implements Gateway against the Anthropic Messages API.
type Client struct {
	api     anthropic.Client
	model   anthropic.Model
	timeout time.Duration
}

var _ Gateway = (*Client)(nil)

// NewClient builds the provider client. Extra request options are appended
// after the API key, which lets tests point the client at a stub server.
func NewClient(cfg config.AIConfig, opts ...option.RequestOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	all := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)

	return &Client{
		api:     anthropic.NewClient(all...),
		model:   anthropic.Model(cfg.Model),
		timeout: timeout,
	}, nil
}

func (c *Client) ChatRespond(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	system := chatSystemPrompt
	turns := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			// The first caller-supplied system message replaces the default persona.
			if system == chatSystemPrompt {
				system = msg.Content
			}
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("messages contain no user or assistant turns")
	}

	return c.complete(ctx, system, turns, 0.7, 1000)
}

func (c *Client) Analyze(ctx context.Context, content string) (string, error) {
	turns := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(buildAnalyzePrompt(content))),
	}
	// Lower temperature for more deterministic extraction.
	return c.complete(ctx, analyzeSystemPrompt, turns, 0.5, 1000)
}

func (c *Client) Generate(ctx context.Context, documentType, title, description string) (string, error) {
	turns := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(buildGeneratePrompt(documentType, title, description))),
	}
	return c.complete(ctx, generateSystemPrompt, turns, 0.7, 2000)
}

// complete performs one Messages API call and extracts the response text.
func (c *Client) complete(ctx context.Context, system string, turns []anthropic.MessageParam, temperature float64, maxTokens int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages:    turns,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", ErrProvider)
	}
	return out.String(), nil
}
