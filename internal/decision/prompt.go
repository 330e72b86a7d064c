package decision

import (
	"fmt"
	"strings"
)

// 中文说明：
// 决策提示词装配。把持仓、指标、账户、近期战绩、新闻与大盘情绪
// 拼成一段分析文本，指标附带通俗解释，末尾接规则段。

// BuildUserPrompt 装配单个 symbol 的 user 提示词。rules 由 prompt.Manager 提供。
func BuildUserPrompt(in Input, rules string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROFIT ANALYSIS for %s:\n", in.Symbol)

	pos := in.Position
	if pos.Qty > 0 {
		fmt.Fprintf(&b, "\nPOSITION: %d shares\n", pos.Qty)
		fmt.Fprintf(&b, "Entry: $%.2f | Current: $%.2f\n", pos.AvgEntryPrice, pos.CurrentPrice)
		fmt.Fprintf(&b, "P&L: $%.2f (%.1f%%)\n", pos.UnrealizedPL, pos.UnrealizedPLPC)
		fmt.Fprintf(&b, "Profit Potential: %.1f%%\n", pos.ProfitPotentialPct())
	}

	if len(in.Snapshot) > 0 {
		b.WriteString("\nTECHNICAL SIGNALS:\n")
		writeIndicators(&b, in.Snapshot)
	}
	for _, w := range in.Warnings {
		fmt.Fprintf(&b, "NOTE: %s\n", w)
	}

	fmt.Fprintf(&b, "\nCash: $%.2f\n", in.Account.Cash)
	fmt.Fprintf(&b, "Buying Power: $%.2f\n", in.Account.BuyingPower)

	if in.WinSample > 0 {
		fmt.Fprintf(&b, "\nRECENT PERFORMANCE: %.0f%% success rate over last %d trades\n", in.WinRate, in.WinSample)
	}

	if len(in.Open) > 0 {
		b.WriteString("\nOPEN ORDERS:\n")
		for _, o := range in.Open {
			fmt.Fprintf(&b, "- %s %s %d @ %s", o.Side, o.Symbol, o.Qty, o.Type)
			if o.LimitPrice > 0 {
				fmt.Fprintf(&b, " limit=%.2f", o.LimitPrice)
			}
			if o.StopPrice > 0 {
				fmt.Fprintf(&b, " stop=%.2f", o.StopPrice)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nLATEST NEWS:\n")
	if len(in.News) == 0 {
		b.WriteString("No recent news available\n")
	} else {
		for i, item := range in.News {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, clip(item.Title, 100), item.Sentiment)
		}
	}

	if in.Market != nil {
		b.WriteString("\nMARKET INTELLIGENCE:\n")
		fmt.Fprintf(&b, "Market Sentiment: %s\n", in.Market.Sentiment)
		fmt.Fprintf(&b, "Summary: %s\n", clip(in.Market.Summary, 200))
		if len(in.Market.KeyLevels) > 0 {
			levels := in.Market.KeyLevels
			if len(levels) > 3 {
				levels = levels[:3]
			}
			fmt.Fprintf(&b, "Key Levels: %s\n", strings.Join(levels, ", "))
		}
	}

	b.WriteString("\n")
	b.WriteString(rules)
	return b.String()
}

// writeIndicators 固定顺序输出，保证同一输入生成的提示词可复现。
func writeIndicators(b *strings.Builder, snap map[string]float64) {
	if v, ok := snap["rsi_14"]; ok {
		fmt.Fprintf(b, "RSI: %.1f %s - %s\n", v, rsiSignal(v), explainRSI(v))
	}
	if v, ok := snap["ema_20"]; ok {
		fmt.Fprintf(b, "EMA: $%.2f - average price over time (smoother than single bars)\n", v)
	}
	if v, ok := snap["atr_14"]; ok {
		fmt.Fprintf(b, "ATR (Volatility): $%.2f - %s\n", v, explainATR(v))
	}
	if v, ok := snap["volatility_score"]; ok {
		fmt.Fprintf(b, "Volatility: %.1f%% %s - %s\n", v, volatilityRisk(v), explainVolatility(v))
	}
}

func rsiSignal(v float64) string {
	switch {
	case v < 30:
		return "OVERSOLD (<30)"
	case v > 70:
		return "OVERBOUGHT (>70)"
	default:
		return "NEUTRAL"
	}
}

func explainRSI(v float64) string {
	switch {
	case v < 30:
		return "stock is cheap (oversold), might be a good BUY signal"
	case v > 70:
		return "stock is expensive (overbought), might be a good SELL signal"
	default:
		return "stock is fairly priced (normal range)"
	}
}

func explainATR(v float64) string {
	switch {
	case v < 0.5:
		return "price doesn't move much (stable)"
	case v < 2.0:
		return "normal price movement"
	default:
		return "price moves a lot (volatile)"
	}
}

func volatilityRisk(v float64) string {
	switch {
	case v < 2:
		return "LOW RISK"
	case v < 5:
		return "MEDIUM RISK"
	default:
		return "HIGH RISK"
	}
}

func explainVolatility(v float64) string {
	switch {
	case v < 2:
		return "low risk, price is stable"
	case v < 5:
		return "medium risk, normal swings"
	default:
		return "high risk, big price swings"
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
