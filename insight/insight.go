package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	StageMarshal   = "marshal"
	StageSummarize = "summarize"
	StageResponse  = "response"
)

var (
	errNoSummarizer = errors.New("no summarizer configured")
	errEmptyText    = errors.New("summarizer returned no text")
)

// Summarizer turns a numeric payload into a narrative
type Summarizer interface {
	// Summarize answers the question using only the payload
	Summarize(ctx context.Context, req *Request) (*Response, error)
}

// Request is a single narrative request
type Request struct {
	ID       string
	Question string
	Payload  json.RawMessage
}

// Response is the narrative produced for a request
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// CollaboratorError is a failure of the narrative collaborator.
// It never invalidates the numeric result it was asked to narrate
type CollaboratorError struct {
	Err   error
	Stage string
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("insight %s failed: %s", e.Stage, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Narrative is the outcome of a narrative request.
// Either Text is set, or Err describes why it is missing
type Narrative struct {
	Err          *CollaboratorError
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Narrate asks the summarizer to answer the question about the payload.
// Failures are captured on the returned narrative, and never returned
func Narrate(ctx context.Context, s Summarizer, payload any, question string) *Narrative {
	if s == nil {
		return failed(StageSummarize, errNoSummarizer)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return failed(StageMarshal, err)
	}

	resp, err := s.Summarize(ctx, &Request{
		ID:       uuid.NewString(),
		Question: question,
		Payload:  raw,
	})
	if err != nil {
		return failed(StageSummarize, err)
	}

	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return failed(StageResponse, errEmptyText)
	}

	return &Narrative{
		Text:         resp.Text,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}
}

func failed(stage string, err error) *Narrative {
	return &Narrative{
		Err: &CollaboratorError{
			Stage: stage,
			Err:   err,
		},
	}
}
