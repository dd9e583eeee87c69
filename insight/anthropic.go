package insight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 2048
	DefaultTimeout   = 60 * time.Second
)

var errMissingAPIKey = errors.New("missing API key")

const systemPrompt = `You are an expert analyst of international remittances and market competition.

You analyze exchange rates and fees of money transfer providers on US to Latin America corridors.

Instructions:
- Use only the figures supplied in the context. Never invent data.
- Give precise answers with concrete numbers.
- Compare providers by total cost (average rate plus average fee) where relevant.
- Be direct and concise, the audience makes business decisions.
- Use markdown for structure.`

// AnthropicSummarizer narrates payloads using the Anthropic Messages API.
// Calls are never retried
type AnthropicSummarizer struct {
	client anthropic.Client
	logger *slog.Logger

	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewAnthropicSummarizer creates a new Anthropic-backed summarizer
func NewAnthropicSummarizer(apiKey string, opts ...Option) *AnthropicSummarizer {
	s := &AnthropicSummarizer{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		apiKey:    apiKey,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(s.apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(s.timeout),
	}

	if s.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(s.baseURL))
	}

	s.client = anthropic.NewClient(clientOpts...)

	return s
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, req *Request) (*Response, error) {
	if s.apiKey == "" {
		return nil, errMissingAPIKey
	}

	s.logger.Debug("requesting narrative", "request_id", req.ID, "model", s.model)

	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("invalid status code received: %d: %w", apiErr.StatusCode, err)
		}

		return nil, fmt.Errorf("unable to create message: %w", err)
	}

	var text strings.Builder

	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	s.logger.Debug(
		"narrative received",
		"request_id", req.ID,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
	)

	return &Response{
		Text:         text.String(),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func userPrompt(req *Request) string {
	return fmt.Sprintf(
		"Available data:\n\n%s\n\n---\n\nQuestion: %s\n\nAnalyze the data and answer the question precisely.",
		req.Payload,
		req.Question,
	)
}
