// Package llm wraps chat-completion providers behind a small interface so
// classification and reply generation can be tested without network calls.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Role constants for chat messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat-completion prompt.
type Message struct {
	Role    string
	Content string
}

// Schema names a strict JSON schema the model output must conform to.
type Schema struct {
	Name   string
	Schema map[string]any
}

// Request describes a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int64
	// Schema, when set, forces structured JSON output.
	Schema *Schema
}

// Response carries the raw model output.
type Response struct {
	Content string
}

// Client issues chat completions.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// OpenAIClient talks to the OpenAI chat-completions API with a bounded
// per-call timeout.
type OpenAIClient struct {
	client  openai.Client
	timeout time.Duration
}

// NewOpenAIClient builds a client with the given API key and call timeout.
func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		timeout: timeout,
	}
}

// Complete runs one chat completion and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Schema.Name,
					Schema: req.Schema.Schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llm: completion request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, fmt.Errorf("llm: completion returned no choices")
	}
	return Response{Content: completion.Choices[0].Message.Content}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
