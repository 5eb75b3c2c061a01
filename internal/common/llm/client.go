// internal/common/llm/client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"newsqa/internal/common/config"
	stderrors "newsqa/internal/common/errors"
)

var (
	ErrCompletionTimeout = errors.New("COMPLETION_TIMEOUT")
	ErrCompletionFailed  = errors.New("COMPLETION_FAILED")
	ErrEmptyCompletion   = errors.New("EMPTY_COMPLETION")
)

// ClassifyError maps a completion failure to the internal error code used in
// logs and failure metrics.
func ClassifyError(err error) stderrors.ErrorCode {
	switch {
	case errors.Is(err, ErrCompletionTimeout):
		return stderrors.ErrCodeUpstreamTimeout
	case errors.Is(err, ErrEmptyCompletion):
		return stderrors.ErrCodeUpstreamMalformedResponse
	default:
		return stderrors.ErrCodeBackendUnavailable
	}
}

// Message is one turn of a completion request.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Completer is the completion-service contract shared by query understanding,
// SQL synthesis and answer generation. Implementations must request a JSON
// object response and honor context cancellation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client is the openai-backed Completer used in production.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	maxRetries  int
}

// NewClient creates a completion client from config.
func NewClient(cfg config.LLMConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     config.GetDuration(cfg.Timeout),
		maxRetries:  cfg.MaxRetries,
	}
}

// Complete sends one chat completion request in JSON-object mode and returns
// the raw text of the first choice. Transient failures are retried with
// exponential backoff; context expiry maps to ErrCompletionTimeout.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    convertMessages(messages),
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrCompletionTimeout
			}
		}

		resp, err := c.api.Chat.Completions.New(ctx, params)
		if ctx.Err() != nil ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, context.Canceled) {
			return "", ErrCompletionTimeout
		}
		if err != nil {
			lastErr = err
			continue
		}

		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			lastErr = ErrEmptyCompletion
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrCompletionFailed, lastErr)
}

func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
