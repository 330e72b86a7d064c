package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"alphaloop/internal/types"
)

// 中文说明：
// 基于 K 线序列计算决策所需的技术指标。序列经过 NaN/Inf 清洗，
// 预热期不足的指标以 0 值返回并记录 warning。

// Settings 描述指标计算参数。零值字段取默认周期。
type Settings struct {
	EMAPeriod int
	RSIPeriod int
	ATRPeriod int
}

// Set 保存单个 symbol 的指标序列与最新值。
type Set struct {
	Symbol string

	EMA []float64
	RSI []float64
	ATR []float64

	// VolatilityScore = ATR / close × 100，衡量近期波动相对价格的比例。
	VolatilityScore float64

	Warnings []string
}

// Compute 计算给定 K 线的指标集合。空序列返回错误，调用方应剔除该 symbol。
func Compute(symbol string, bars []types.Bar, cfg Settings) (*Set, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}
	if cfg.EMAPeriod <= 0 {
		cfg.EMAPeriod = 20
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = 14
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 14
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	set := &Set{Symbol: symbol}
	set.EMA = trimLeadingZeros(sanitizeSeries(talib.Ema(closes, cfg.EMAPeriod)))
	if len(set.EMA) == 0 {
		set.Warnings = append(set.Warnings, fmt.Sprintf("ema%d warm-up not reached (%d bars)", cfg.EMAPeriod, len(bars)))
	}
	set.RSI = sanitizeSeries(talib.Rsi(closes, cfg.RSIPeriod))
	if len(set.RSI) == 0 {
		set.Warnings = append(set.Warnings, fmt.Sprintf("rsi%d warm-up not reached (%d bars)", cfg.RSIPeriod, len(bars)))
	}
	set.ATR = sanitizeSeries(talib.Atr(highs, lows, closes, cfg.ATRPeriod))
	if len(set.ATR) == 0 {
		set.Warnings = append(set.Warnings, fmt.Sprintf("atr%d warm-up not reached (%d bars)", cfg.ATRPeriod, len(bars)))
	}

	lastClose := closes[len(closes)-1]
	if atr := lastValid(set.ATR); atr > 0 && lastClose > 0 {
		set.VolatilityScore = round4(atr / lastClose * 100)
	}
	return set, nil
}

// Snapshot 返回最新指标值，键名与持久化/提示词一致。
func (s *Set) Snapshot() map[string]float64 {
	return map[string]float64{
		"ema_20":           lastValid(s.EMA),
		"rsi_14":           lastValid(s.RSI),
		"atr_14":           lastValid(s.ATR),
		"volatility_score": s.VolatilityScore,
	}
}

func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, round4(v))
	}
	return out
}

// trimLeadingZeros drops TALib's zero-seeded EMA values produced before the warm-up window fills.
func trimLeadingZeros(series []float64) []float64 {
	start := 0
	for start < len(series) && math.Abs(series[start]) <= 1e-9 {
		start++
	}
	return series[start:]
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
