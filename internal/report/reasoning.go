package report

import (
	"fmt"
	"sort"
	"strings"

	"alphaloop/internal/cycle"
	"alphaloop/internal/decision"
)

// buildReasoning 把决策上下文压成一段可读文本，进报告的 AI Reasoning 区。
func buildReasoning(res decision.Result, analysis *cycle.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n", res.Label)
	if res.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", res.Reason)
	}
	if analysis == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "Current Price: $%.2f\n", analysis.Position.CurrentPrice)
	fmt.Fprintf(&b, "Unrealized P&L: %.2f%%\n", analysis.Position.UnrealizedPLPC)
	if len(analysis.Snapshot) > 0 {
		keys := make([]string, 0, len(analysis.Snapshot))
		for k := range analysis.Snapshot {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %.2f", k, analysis.Snapshot[k]))
		}
		fmt.Fprintf(&b, "Key Indicators: %s", strings.Join(parts, ", "))
	}
	return b.String()
}
