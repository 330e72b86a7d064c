package types

import "time"

// 中文说明：
// 本文件定义账户、持仓与行情的只读快照结构。
// 每个交易周期开始时从券商拉取一次，周期内不再变更。

// Account 账户快照（现金与购买力）。
type Account struct {
	Cash        float64 `json:"cash"`
	BuyingPower float64 `json:"buying_power"`
	Equity      float64 `json:"equity,omitempty"`
}

// Position 单个持仓快照。UnrealizedPLPC 以百分数表示（6.0 = 6%）。
type Position struct {
	Symbol         string  `json:"symbol"`
	Qty            int64   `json:"qty"`
	AvgEntryPrice  float64 `json:"avg_entry_price"`
	CurrentPrice   float64 `json:"current_price"`
	UnrealizedPL   float64 `json:"unrealized_pl"`
	UnrealizedPLPC float64 `json:"unrealized_plpc"`
}

// ProfitPotentialPct 报告当前价相对建仓均价的涨幅（百分数）。
func (p Position) ProfitPotentialPct() float64 {
	if p.AvgEntryPrice == 0 {
		return 0
	}
	return (p.CurrentPrice - p.AvgEntryPrice) / p.AvgEntryPrice * 100
}

// Order 已挂未成交订单的快照。
type Order struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Type       string  `json:"type"`
	Qty        int64   `json:"qty"`
	LimitPrice float64 `json:"limit_price,omitempty"`
	StopPrice  float64 `json:"stop_price,omitempty"`
	Status     string  `json:"status"`
}

// Bar 单根K线，时间升序排列，取回后不可变。
type Bar struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}
