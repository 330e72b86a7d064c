package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_StandardLabels(t *testing.T) {
	cases := []struct {
		raw  string
		want Label
	}{
		{"BRACKET_BUY", BracketBuy},
		{"LIMIT_BUY", LimitBuy},
		{"TRAILING_STOP_BUY", TrailingStopBuy},
		{"OCO_SELL", OCOSell},
		{"LIMIT_SELL", LimitSell},
		{"TRAILING_STOP_SELL", TrailingStopSell},
		{"STOP_LOSS", StopLoss},
		{"REDUCE_POSITION", ReducePosition},
		{"HOLD", Hold},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Parse(tc.raw), "raw=%s", tc.raw)
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	assert.Equal(t, BracketBuy, Parse("bracket_buy"))
	assert.Equal(t, OCOSell, Parse("Oco_Sell"))
}

func TestParse_LabelEmbeddedInProse(t *testing.T) {
	raw := "Given the strong momentum and low volatility, my decision is LIMIT_BUY at a slight discount."
	assert.Equal(t, LimitBuy, Parse(raw))
}

func TestParse_Synonyms(t *testing.T) {
	assert.Equal(t, BracketBuy, Parse("I would BUY_MORE here"))
	assert.Equal(t, OCOSell, Parse("SELL_PARTIAL to lock in gains"))
	assert.Equal(t, OCOSell, Parse("SELL_ALL immediately"))
}

func TestParse_StandardLabelBeatsSynonym(t *testing.T) {
	// 标准标签优先于同义词，即便同义词先出现。
	raw := "BUY_MORE... actually LIMIT_BUY is the right call"
	assert.Equal(t, LimitBuy, Parse(raw))
}

func TestParse_UnrecognizedFallsBackToHold(t *testing.T) {
	assert.Equal(t, Hold, Parse(""))
	assert.Equal(t, Hold, Parse("I am uncertain about this position."))
	assert.Equal(t, Hold, Parse("SELL")) // 裸 SELL 不是合法标签
}

func TestLabelFamilies(t *testing.T) {
	assert.True(t, BracketBuy.IsBuy())
	assert.True(t, LimitBuy.IsBuy())
	assert.True(t, TrailingStopBuy.IsBuy())
	assert.False(t, BracketBuy.IsSell())

	assert.True(t, OCOSell.IsSell())
	assert.True(t, LimitSell.IsSell())
	assert.True(t, TrailingStopSell.IsSell())
	assert.True(t, StopLoss.IsSell())
	assert.True(t, ReducePosition.IsSell())
	assert.False(t, OCOSell.IsBuy())

	assert.False(t, Hold.IsBuy())
	assert.False(t, Hold.IsSell())
}
