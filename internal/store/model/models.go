package model

import (
	"gorm.io/datatypes"
)

type TradeModel struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Symbol       string         `gorm:"column:symbol;index"`
	Decision     string         `gorm:"column:decision"`
	Shares       int64          `gorm:"column:shares"`
	Indicators   datatypes.JSON `gorm:"column:indicators"`
	AccountCash  float64        `gorm:"column:account_cash"`
	BuyingPower  float64        `gorm:"column:buying_power"`
	UnrealizedPL float64        `gorm:"column:unrealized_pl"`
	OrderID      string         `gorm:"column:order_id"`
	OrderStatus  string         `gorm:"column:order_status"`
	CycleTraceID string         `gorm:"column:cycle_trace_id;index"`
	Timestamp    int64          `gorm:"column:timestamp;index"`
}

func (TradeModel) TableName() string { return "trades" }

type BarModel struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Symbol    string  `gorm:"column:symbol;uniqueIndex:idx_bars_symbol_ts"`
	Timestamp int64   `gorm:"column:timestamp;uniqueIndex:idx_bars_symbol_ts"`
	Open      float64 `gorm:"column:open"`
	High      float64 `gorm:"column:high"`
	Low       float64 `gorm:"column:low"`
	Close     float64 `gorm:"column:close"`
	Volume    float64 `gorm:"column:volume"`
}

func (BarModel) TableName() string { return "bars" }

type IndicatorSnapshotModel struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Symbol       string         `gorm:"column:symbol;index"`
	CycleTraceID string         `gorm:"column:cycle_trace_id"`
	Values       datatypes.JSON `gorm:"column:values"`
	Timestamp    int64          `gorm:"column:timestamp;index"`
}

func (IndicatorSnapshotModel) TableName() string { return "indicator_snapshots" }
