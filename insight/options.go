package insight

import (
	"log/slog"
	"time"
)

type Option func(s *AnthropicSummarizer)

// WithLogger specifies the logger for the summarizer
func WithLogger(l *slog.Logger) Option {
	return func(s *AnthropicSummarizer) {
		s.logger = l
	}
}

// WithModel specifies the model used for narratives
func WithModel(model string) Option {
	return func(s *AnthropicSummarizer) {
		s.model = model
	}
}

// WithMaxTokens caps the length of a narrative
func WithMaxTokens(maxTokens int) Option {
	return func(s *AnthropicSummarizer) {
		s.maxTokens = maxTokens
	}
}

// WithTimeout specifies the per-call timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *AnthropicSummarizer) {
		s.timeout = timeout
	}
}

// WithBaseURL overrides the Anthropic API base URL
func WithBaseURL(url string) Option {
	return func(s *AnthropicSummarizer) {
		s.baseURL = url
	}
}
