package cycle

import (
	"time"

	"alphaloop/internal/decision"
	"alphaloop/internal/dispatch"
	"alphaloop/internal/types"
)

// 中文说明：
// 单轮周期的状态容器。五个阶段依次填充各自的字段，
// 阶段之间通过它传递上下文，整体只在单轮内存活。

// Analysis 单个 symbol 的分析产物。
type Analysis struct {
	Symbol    string
	Position  types.Position
	Bars      []types.Bar
	Snapshot  map[string]float64
	News      []types.NewsItem
	Warnings  []string
	WinRate   float64
	WinSample int
}

// State 一轮完整周期的执行记录。
type State struct {
	TraceID   string
	StartedAt time.Time
	Duration  time.Duration

	Account    types.Account
	Positions  []types.Position
	OpenOrders []types.Order

	Market   *types.MarketSentiment
	Analyses map[string]*Analysis

	Results []decision.Result
	Actions []dispatch.Action

	ReportPath string
	EmailSent  bool
}

// PositionFor 按 symbol 查持仓，未持有返回零值。
func (s *State) PositionFor(symbol string) types.Position {
	for _, p := range s.Positions {
		if p.Symbol == symbol {
			return p
		}
	}
	return types.Position{Symbol: symbol}
}
