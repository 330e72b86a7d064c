package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alphaloop/internal/types"
)

func makeBars(n int, base float64) []types.Bar {
	bars := make([]types.Bar, n)
	ts := time.Now().Add(-time.Duration(n) * 5 * time.Minute)
	for i := range bars {
		price := base + float64(i%5)*0.8
		bars[i] = types.Bar{
			Open:      price,
			High:      price + 1.5,
			Low:       price - 1.5,
			Close:     price + 0.3,
			Volume:    2000,
			Timestamp: ts.Add(time.Duration(i) * 5 * time.Minute),
		}
	}
	return bars
}

func TestCompute_EmptyBarsIsError(t *testing.T) {
	_, err := Compute("AAPL", nil, Settings{})
	assert.Error(t, err)
}

func TestCompute_FullWarmup(t *testing.T) {
	set, err := Compute("AAPL", makeBars(60, 100), Settings{})
	assert.NoError(t, err)
	assert.Empty(t, set.Warnings)

	snap := set.Snapshot()
	assert.Contains(t, snap, "ema_20")
	assert.Contains(t, snap, "rsi_14")
	assert.Contains(t, snap, "atr_14")
	assert.Contains(t, snap, "volatility_score")

	assert.Greater(t, snap["ema_20"], 0.0)
	assert.Greater(t, snap["rsi_14"], 0.0)
	assert.LessOrEqual(t, snap["rsi_14"], 100.0)
	assert.Greater(t, snap["atr_14"], 0.0)
}

func TestCompute_VolatilityScore(t *testing.T) {
	set, err := Compute("AAPL", makeBars(60, 100), Settings{})
	assert.NoError(t, err)

	lastClose := makeBars(60, 100)[59].Close
	atr := lastValid(set.ATR)
	assert.InDelta(t, atr/lastClose*100, set.VolatilityScore, 0.0001)
}

func TestCompute_CustomPeriods(t *testing.T) {
	set, err := Compute("AAPL", makeBars(30, 50), Settings{EMAPeriod: 5, RSIPeriod: 5, ATRPeriod: 5})
	assert.NoError(t, err)
	assert.Empty(t, set.Warnings)
	assert.NotEmpty(t, set.EMA)
}

func TestTrimLeadingZeros(t *testing.T) {
	assert.Equal(t, []float64{1.5, 2.0}, trimLeadingZeros([]float64{0, 0, 1.5, 2.0}))
	assert.Empty(t, trimLeadingZeros([]float64{0, 0}))
	assert.Equal(t, []float64{3.0}, trimLeadingZeros([]float64{3.0}))
}

func TestLastValid(t *testing.T) {
	assert.Equal(t, 2.5, lastValid([]float64{1.0, 2.5}))
	assert.Equal(t, 0.0, lastValid(nil))
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 1.2346, round4(1.23456))
	assert.Equal(t, 0.0001, round4(0.00005))
}
