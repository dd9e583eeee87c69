package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sig-0/remitrates/analysis"
	"github.com/sig-0/remitrates/insight"
)

// Insight is the numeric snapshot of a destination, narrated.
// The narrative is optional: when it fails, the snapshot is still served
type Insight struct {
	NumericalAnalysis *analysis.Snapshot `json:"numerical_analysis"`
	Destination       string             `json:"destination"`
	StrategicAnalysis string             `json:"strategic_analysis"`
	Model             string             `json:"model,omitempty"`
	InsightError      string             `json:"insight_error,omitempty"`
	InputTokens       int                `json:"input_tokens,omitempty"`
	OutputTokens      int                `json:"output_tokens,omitempty"`
}

// insightPayload is what the summarizer gets to see
type insightPayload struct {
	Snapshot *analysis.Snapshot `json:"snapshot"`
	Context  string             `json:"context"`
}

// defaultQuestion returns the strategic question asked when the caller has none
func defaultQuestion(destination string) string {
	return fmt.Sprintf(`Analyze the competition on the US to %s corridor.

Provide:
1. Who leads the market and why
2. Arbitrage opportunities or competitive gaps
3. Strategic recommendations for a new entrant
4. Pricing trends you observe

Be specific, with numbers and actionable strategies.`, destination)
}

// compareQuestion is asked when the caller narrows the snapshot to a set of providers
func compareQuestion(destination string, providers []string) string {
	return fmt.Sprintf(`Compare %s on the US to %s corridor.

Cover fees, exchange rates, total cost and the strengths or weaknesses of each.
Be specific, with numbers.`, strings.Join(providers, ", "), destination)
}

// Insight narrates the competitive snapshot of the destination.
// When providers are given, the snapshot is narrowed down to them first.
// Only a missing snapshot fails the call, narrative failures are reported inline
func (e *Engine) Insight(
	ctx context.Context,
	destination,
	question string,
	providers []string,
) (*Insight, error) {
	snapshot, err := e.Analyze(ctx, destination)
	if err != nil {
		return nil, err
	}

	if len(providers) > 0 {
		if snapshot, err = snapshot.Subset(providers); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(question) == "" {
		question = defaultQuestion(snapshot.Destination)

		if len(providers) > 0 {
			question = compareQuestion(snapshot.Destination, snapshot.ProvidersAnalyzed)
		}
	}

	narrative := insight.Narrate(
		ctx,
		e.summarizer,
		insightPayload{
			Snapshot: snapshot,
			Context:  insight.BuildContext(snapshot),
		},
		question,
	)

	out := &Insight{
		Destination:       snapshot.Destination,
		NumericalAnalysis: snapshot,
		StrategicAnalysis: narrative.Text,
		Model:             narrative.Model,
		InputTokens:       narrative.InputTokens,
		OutputTokens:      narrative.OutputTokens,
	}

	if narrative.Err != nil {
		e.logger.Warn(
			"narrative unavailable",
			"destination", snapshot.Destination,
			"stage", narrative.Err.Stage,
			"err", narrative.Err.Err,
		)

		out.InsightError = narrative.Err.Error()
	}

	return out, nil
}
