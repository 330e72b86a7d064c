package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	storemodel "alphaloop/internal/store/model"
	"alphaloop/internal/types"
)

// 中文说明：
// Gorm + SQLite 持久层。WAL 模式，少量连接并行以兼顾 HTTP 查询。

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: 数据库路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&storemodel.TradeModel{},
		&storemodel.BarModel{},
		&storemodel.IndicatorSnapshotModel{},
	); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *GormStore) SaveTrade(ctx context.Context, rec *types.TradeRecord) error {
	if rec == nil {
		return fmt.Errorf("trade record is nil")
	}
	indicators, err := json.Marshal(rec.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators failed: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	m := storemodel.TradeModel{
		Symbol:       rec.Symbol,
		Decision:     rec.Decision,
		Shares:       rec.Shares,
		Indicators:   datatypes.JSON(indicators),
		AccountCash:  rec.AccountCash,
		BuyingPower:  rec.BuyingPower,
		UnrealizedPL: rec.UnrealizedPL,
		OrderID:      rec.OrderID,
		OrderStatus:  rec.OrderStatus,
		CycleTraceID: rec.CycleTraceID,
		Timestamp:    ts.Unix(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	rec.ID = m.ID
	return nil
}

func (s *GormStore) TradesForSymbol(ctx context.Context, symbol string, limit int) ([]types.TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []storemodel.TradeModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTradeRecords(rows), nil
}

func (s *GormStore) RecentTrades(ctx context.Context, limit int) ([]types.TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []storemodel.TradeModel
	err := s.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toTradeRecords(rows), nil
}

func (s *GormStore) SaveBars(ctx context.Context, symbol string, bars []types.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]storemodel.BarModel, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, storemodel.BarModel{
			Symbol:    symbol,
			Timestamp: b.Timestamp.Unix(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "timestamp"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

func (s *GormStore) BarsForSymbol(ctx context.Context, symbol string, limit int) ([]types.Bar, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []storemodel.BarModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	// 查询按时间倒序取最近 N 根，返回前翻转为升序。
	out := make([]types.Bar, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = types.Bar{
			Timestamp: time.Unix(r.Timestamp, 0).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return out, nil
}

func (s *GormStore) SaveIndicators(ctx context.Context, symbol string, traceID string, values map[string]float64) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal indicator snapshot failed: %w", err)
	}
	m := storemodel.IndicatorSnapshotModel{
		Symbol:       symbol,
		CycleTraceID: traceID,
		Values:       datatypes.JSON(payload),
		Timestamp:    time.Now().Unix(),
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) Performance(ctx context.Context) (*types.PerformanceSummary, error) {
	var rows []storemodel.TradeModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	summary := &types.PerformanceSummary{TotalTrades: len(rows)}
	sellWins := 0
	sells := 0
	for _, r := range rows {
		switch {
		case isBuyDecision(r.Decision):
			summary.BuyDecisions++
		case isSellDecision(r.Decision):
			summary.SellDecisions++
			sells++
			if r.UnrealizedPL > 0 {
				sellWins++
			}
		}
		summary.TotalPnL += r.UnrealizedPL
	}
	if sells > 0 {
		summary.WinRate = float64(sellWins) / float64(sells) * 100
	}
	return summary, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toTradeRecords(rows []storemodel.TradeModel) []types.TradeRecord {
	out := make([]types.TradeRecord, 0, len(rows))
	for _, r := range rows {
		var indicators map[string]float64
		if len(r.Indicators) > 0 {
			_ = json.Unmarshal(r.Indicators, &indicators)
		}
		out = append(out, types.TradeRecord{
			ID:           r.ID,
			Symbol:       r.Symbol,
			Decision:     r.Decision,
			Shares:       r.Shares,
			Indicators:   indicators,
			AccountCash:  r.AccountCash,
			BuyingPower:  r.BuyingPower,
			UnrealizedPL: r.UnrealizedPL,
			OrderID:      r.OrderID,
			OrderStatus:  r.OrderStatus,
			CycleTraceID: r.CycleTraceID,
			Timestamp:    time.Unix(r.Timestamp, 0).UTC(),
		})
	}
	return out
}

func isBuyDecision(d string) bool {
	switch d {
	case "BRACKET_BUY", "LIMIT_BUY", "TRAILING_STOP_BUY":
		return true
	}
	return false
}

func isSellDecision(d string) bool {
	switch d {
	case "OCO_SELL", "LIMIT_SELL", "TRAILING_STOP_SELL", "STOP_LOSS", "REDUCE_POSITION":
		return true
	}
	return false
}
