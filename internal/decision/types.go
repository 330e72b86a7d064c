package decision

import (
	"alphaloop/internal/types"
)

// 中文说明：
// 决策标签与决策引擎的输入/输出类型。标签是封闭集合，
// 模型自由文本经 Parse 收敛到这里的某一个值。

// Label 交易决策动作。
type Label string

const (
	BracketBuy       Label = "BRACKET_BUY"
	LimitBuy         Label = "LIMIT_BUY"
	TrailingStopBuy  Label = "TRAILING_STOP_BUY"
	OCOSell          Label = "OCO_SELL"
	LimitSell        Label = "LIMIT_SELL"
	TrailingStopSell Label = "TRAILING_STOP_SELL"
	StopLoss         Label = "STOP_LOSS"
	ReducePosition   Label = "REDUCE_POSITION"
	Hold             Label = "HOLD"
)

// IsBuy 买入族：建仓或加仓。
func (l Label) IsBuy() bool {
	switch l {
	case BracketBuy, LimitBuy, TrailingStopBuy:
		return true
	}
	return false
}

// IsSell 卖出族：减仓、止盈或止损。
func (l Label) IsSell() bool {
	switch l {
	case OCOSell, LimitSell, TrailingStopSell, StopLoss, ReducePosition:
		return true
	}
	return false
}

// Input 单个 symbol 的决策上下文，由分析阶段装配。
type Input struct {
	TraceID   string
	Symbol    string
	Position  types.Position
	Account   types.Account
	Snapshot  map[string]float64
	Bars      []types.Bar
	News      []types.NewsItem
	Market    *types.MarketSentiment
	Open      []types.Order
	WinRate   float64
	WinSample int
	Warnings  []string
}

// Result 决策结论。LLM 调用失败时 Label 为 HOLD，Reason 记录失败原因。
type Result struct {
	Symbol string
	Label  Label
	Reason string
	Raw    string
}
