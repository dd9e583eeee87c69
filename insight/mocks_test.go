package insight

import "context"

type summarizeDelegate func(context.Context, *Request) (*Response, error)

type mockSummarizer struct {
	summarizeFn summarizeDelegate
}

func (m *mockSummarizer) Summarize(ctx context.Context, req *Request) (*Response, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, req)
	}

	return nil, nil
}
