package insight

import (
	"fmt"
	"strings"

	"github.com/sig-0/remitrates/analysis"
)

// BuildContext renders the per-provider figures of the snapshot
// as a compact markdown document, ranked by competitiveness
func BuildContext(snapshot *analysis.Snapshot) string {
	if snapshot == nil || len(snapshot.ProvidersAnalyzed) == 0 {
		return "No data available."
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# Remittance rates for %s\n", snapshot.Destination)
	fmt.Fprintf(&b, "Data points: %d\n", snapshot.DataPoints)
	fmt.Fprintf(
		&b,
		"Most competitive: %s (total cost %s)\n\n",
		snapshot.MostCompetitive.Provider,
		snapshot.MostCompetitive.TotalCost.StringFixed(2),
	)

	for _, provider := range snapshot.ProvidersAnalyzed {
		stats := snapshot.StatsByProvider[provider]

		fmt.Fprintf(&b, "## %s\n", provider)
		fmt.Fprintf(&b, "- Average exchange rate: %s\n", stats.AvgRate.StringFixed(4))
		fmt.Fprintf(&b, "- Rate range: %s - %s\n", stats.MinRate.StringFixed(4), stats.MaxRate.StringFixed(4))
		fmt.Fprintf(&b, "- Average fee: $%s\n", stats.AvgFee.StringFixed(2))
		fmt.Fprintf(&b, "- Total cost: %s\n", stats.TotalCost.StringFixed(2))
		fmt.Fprintf(&b, "- Samples: %d\n\n", stats.SampleSize)
	}

	return strings.TrimRight(b.String(), "\n")
}
