package store

import (
	"context"

	"alphaloop/internal/types"
)

// Store is the persistence entry point for trade decisions, bar history and
// per-cycle indicator snapshots. All writes are best-effort from the caller's
// point of view: a failed save must not abort a trading cycle.
type Store interface {
	// SaveTrade persists one decision record.
	SaveTrade(ctx context.Context, rec *types.TradeRecord) error
	// TradesForSymbol returns the most recent records for a symbol, newest first.
	TradesForSymbol(ctx context.Context, symbol string, limit int) ([]types.TradeRecord, error)
	// RecentTrades returns the most recent records across all symbols, newest first.
	RecentTrades(ctx context.Context, limit int) ([]types.TradeRecord, error)

	// SaveBars replaces the cached bar history for a symbol.
	SaveBars(ctx context.Context, symbol string, bars []types.Bar) error
	// BarsForSymbol returns cached bars in ascending time order.
	BarsForSymbol(ctx context.Context, symbol string, limit int) ([]types.Bar, error)

	// SaveIndicators persists the latest indicator snapshot for a symbol.
	SaveIndicators(ctx context.Context, symbol string, traceID string, values map[string]float64) error

	// Performance aggregates all stored trades into summary statistics.
	Performance(ctx context.Context) (*types.PerformanceSummary, error)

	Close() error
}
