package decision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"alphaloop/internal/types"
)

func TestBuildUserPrompt_WithPosition(t *testing.T) {
	in := Input{
		Symbol: "AAPL",
		Position: types.Position{
			Symbol:         "AAPL",
			Qty:            10,
			AvgEntryPrice:  100,
			CurrentPrice:   106,
			UnrealizedPL:   60,
			UnrealizedPLPC: 6.0,
		},
		Account: types.Account{Cash: 2500, BuyingPower: 5000},
		Snapshot: map[string]float64{
			"rsi_14":           72.4,
			"ema_20":           104.1,
			"atr_14":           1.2,
			"volatility_score": 1.1,
		},
		WinRate:   67,
		WinSample: 3,
	}

	prompt := BuildUserPrompt(in, "DECISION RULES HERE")

	assert.Contains(t, prompt, "PROFIT ANALYSIS for AAPL:")
	assert.Contains(t, prompt, "POSITION: 10 shares")
	assert.Contains(t, prompt, "Entry: $100.00 | Current: $106.00")
	assert.Contains(t, prompt, "P&L: $60.00 (6.0%)")
	assert.Contains(t, prompt, "Profit Potential: 6.0%")
	assert.Contains(t, prompt, "RSI: 72.4 OVERBOUGHT (>70)")
	assert.Contains(t, prompt, "Volatility: 1.1% LOW RISK")
	assert.Contains(t, prompt, "Cash: $2500.00")
	assert.Contains(t, prompt, "RECENT PERFORMANCE: 67% success rate over last 3 trades")
	assert.Contains(t, prompt, "No recent news available")
	assert.True(t, strings.HasSuffix(prompt, "DECISION RULES HERE"))
}

func TestBuildUserPrompt_NoPositionOmitsPositionBlock(t *testing.T) {
	in := Input{
		Symbol:  "MSFT",
		Account: types.Account{Cash: 1000, BuyingPower: 2000},
	}
	prompt := BuildUserPrompt(in, "")
	assert.NotContains(t, prompt, "POSITION:")
	assert.NotContains(t, prompt, "TECHNICAL SIGNALS")
}

func TestBuildUserPrompt_NewsAndMarket(t *testing.T) {
	in := Input{
		Symbol: "NVDA",
		News: []types.NewsItem{
			{Title: "NVDA beats earnings estimates", Sentiment: types.SentimentPositive},
		},
		Market: &types.MarketSentiment{
			Sentiment: types.SentimentNegative,
			Summary:   "Broad selloff in tech",
			KeyLevels: []string{"SPX 5000", "NDX 17500", "VIX 22", "DXY 105"},
		},
	}
	prompt := BuildUserPrompt(in, "")

	assert.Contains(t, prompt, "1. NVDA beats earnings estimates (positive)")
	assert.Contains(t, prompt, "Market Sentiment: negative")
	assert.Contains(t, prompt, "Summary: Broad selloff in tech")
	// key levels 最多展示 3 个
	assert.Contains(t, prompt, "Key Levels: SPX 5000, NDX 17500, VIX 22")
	assert.NotContains(t, prompt, "DXY 105")
}

func TestBuildUserPrompt_WarningsAsNotes(t *testing.T) {
	in := Input{
		Symbol:   "AMD",
		Snapshot: map[string]float64{"rsi_14": 50},
		Warnings: []string{"insufficient bars for ema_20"},
	}
	prompt := BuildUserPrompt(in, "")
	assert.Contains(t, prompt, "NOTE: insufficient bars for ema_20")
}

func TestBuildUserPrompt_Deterministic(t *testing.T) {
	in := Input{
		Symbol: "AAPL",
		Snapshot: map[string]float64{
			"volatility_score": 3,
			"atr_14":           1,
			"ema_20":           50,
			"rsi_14":           40,
		},
	}
	first := BuildUserPrompt(in, "rules")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildUserPrompt(in, "rules"))
	}
}
