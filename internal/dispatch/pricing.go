package dispatch

import (
	"github.com/shopspring/decimal"
)

// 中文说明：
// 订单价格计算。偏移为百分数（5 = 5%），全部用 decimal 计算并
// 收敛到美分，避免浮点尾差造成的限价抖动。

// offsetPrice 返回 price × (1 ± pct/100)，向上为 up=true，结果保留两位小数。
func offsetPrice(price, pct float64, up bool) float64 {
	p := decimal.NewFromFloat(price)
	ratio := decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
	if up {
		ratio = decimal.NewFromInt(1).Add(ratio)
	} else {
		ratio = decimal.NewFromInt(1).Sub(ratio)
	}
	out, _ := p.Mul(ratio).Round(2).Float64()
	return out
}

// affordableShares 返回 floor(cash / price)，price 非正时为 0。
func affordableShares(cash, price float64) int64 {
	if price <= 0 {
		return 0
	}
	return decimal.NewFromFloat(cash).
		Div(decimal.NewFromFloat(price)).
		Floor().
		IntPart()
}

func minShares(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
