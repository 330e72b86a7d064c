package types

import "time"

// TradeRecord 一条已持久化的交易决策记录。
type TradeRecord struct {
	ID             int64              `json:"id,omitempty"`
	Symbol         string             `json:"symbol"`
	Decision       string             `json:"decision"`
	Shares         int64              `json:"shares"`
	Indicators     map[string]float64 `json:"indicators,omitempty"`
	AccountCash    float64            `json:"account_cash"`
	BuyingPower    float64            `json:"buying_power"`
	UnrealizedPL   float64            `json:"unrealized_pl"`
	OrderID        string             `json:"order_id,omitempty"`
	OrderStatus    string             `json:"order_status,omitempty"`
	CycleTraceID   string             `json:"cycle_trace_id,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

// PerformanceSummary 历史交易的聚合表现。
type PerformanceSummary struct {
	TotalTrades   int     `json:"total_trades"`
	BuyDecisions  int     `json:"buy_decisions"`
	SellDecisions int     `json:"sell_decisions"`
	TotalPnL      float64 `json:"total_pnl"`
	WinRate       float64 `json:"win_rate"`
}
