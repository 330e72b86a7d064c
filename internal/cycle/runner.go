package cycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"alphaloop/internal/decision"
	"alphaloop/internal/dispatch"
	"alphaloop/internal/indicator"
	"alphaloop/internal/logger"
	"alphaloop/internal/store"
	"alphaloop/internal/types"
)

// 中文说明：
// 周期编排器。fetch → analyze → decide → execute → report 五段流水线：
// 账户快照失败即中止本轮；单个 symbol 的分析/决策/下单失败只影响自己；
// 持久化与报告都是尽力而为，不会让周期失败。

// AccountSource 账户与持仓快照来源（Alpaca 交易接口）。
type AccountSource interface {
	GetAccount(ctx context.Context) (*types.Account, error)
	GetPositions(ctx context.Context) ([]types.Position, error)
	GetOpenOrders(ctx context.Context) ([]types.Order, error)
}

// BarSource K 线来源（Alpaca 行情或 Binance）。
type BarSource interface {
	GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]types.Bar, error)
}

// NewsSource 新闻与大盘情绪来源。
type NewsSource interface {
	SymbolNews(ctx context.Context, symbol string) ([]types.NewsItem, error)
	MarketSentiment(ctx context.Context) (*types.MarketSentiment, error)
}

// Decider 决策引擎。
type Decider interface {
	DecideAll(ctx context.Context, inputs []decision.Input) []decision.Result
}

// Executor 订单派发器。
type Executor interface {
	ExecuteAll(ctx context.Context, account types.Account, results []decision.Result, positions map[string]types.Position) []dispatch.Action
}

// Reporter 周期报告出口。
type Reporter interface {
	Publish(ctx context.Context, state *State) error
}

// Options 周期级可调参数。
type Options struct {
	Timeframe      string
	LookbackHours  int
	HistoryLimit   int
	MaxConcurrency int
	MarketTimeout  time.Duration
	NewsTimeout    time.Duration
}

type Runner struct {
	account  AccountSource
	bars     BarSource
	news     NewsSource
	decider  Decider
	executor Executor
	reporter Reporter
	store    store.Store
	opts     Options
}

func NewRunner(account AccountSource, bars BarSource, news NewsSource, decider Decider, executor Executor, reporter Reporter, st store.Store, opts Options) *Runner {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 5
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.LookbackHours <= 0 {
		opts.LookbackHours = 24
	}
	if opts.Timeframe == "" {
		opts.Timeframe = "5Min"
	}
	return &Runner{
		account:  account,
		bars:     bars,
		news:     news,
		decider:  decider,
		executor: executor,
		reporter: reporter,
		store:    st,
		opts:     opts,
	}
}

// Run 执行一轮完整周期。只有账户快照失败会返回错误。
func (r *Runner) Run(ctx context.Context) (*State, error) {
	state := &State{
		TraceID:   uuid.NewString(),
		StartedAt: time.Now(),
		Analyses:  make(map[string]*Analysis),
	}
	logger.Infof("周期开始 trace_id=%s", state.TraceID)

	if err := r.snapshot(ctx, state); err != nil {
		return nil, err
	}
	if len(state.Positions) == 0 {
		logger.Infof("无持仓，本轮跳过分析与决策 trace_id=%s", state.TraceID)
		r.report(ctx, state)
		state.Duration = time.Since(state.StartedAt)
		return state, nil
	}

	r.analyze(ctx, state)
	r.decide(ctx, state)
	r.execute(ctx, state)
	r.report(ctx, state)

	state.Duration = time.Since(state.StartedAt)
	logger.Infof("周期结束 trace_id=%s duration=%s actions=%d", state.TraceID, state.Duration.Round(time.Millisecond), len(state.Actions))
	return state, nil
}

// snapshot 账户与持仓快照。任何错误都致命：后续阶段全部依赖这份数据。
func (r *Runner) snapshot(ctx context.Context, state *State) error {
	acct, err := r.account.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("account snapshot failed: %w", err)
	}
	positions, err := r.account.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("positions snapshot failed: %w", err)
	}
	state.Account = *acct
	state.Positions = positions

	open, err := r.account.GetOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("open orders snapshot failed: %w", err)
	}
	state.OpenOrders = open
	logger.Infof("账户快照 cash=%.2f buying_power=%.2f positions=%d", acct.Cash, acct.BuyingPower, len(positions))
	return nil
}

// analyze 并发分析每个持仓 symbol。拿不到 K 线的 symbol 被剔除。
func (r *Runner) analyze(ctx context.Context, state *State) {
	// 大盘情绪整轮只取一次，失败不阻断。
	mctx, cancel := context.WithTimeout(ctx, r.opts.NewsTimeout)
	market, err := r.news.MarketSentiment(mctx)
	cancel()
	if err != nil {
		logger.Warnf("大盘情绪获取失败: %v", err)
	} else {
		state.Market = market
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrency)
	for _, pos := range state.Positions {
		pos := pos
		g.Go(func() error {
			analysis := r.analyzeOne(gctx, state.TraceID, pos)
			if analysis == nil {
				return nil
			}
			mu.Lock()
			state.Analyses[pos.Symbol] = analysis
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	logger.Infof("分析完成 analyzed=%d dropped=%d", len(state.Analyses), len(state.Positions)-len(state.Analyses))
}

func (r *Runner) analyzeOne(ctx context.Context, traceID string, pos types.Position) *Analysis {
	analysis := &Analysis{Symbol: pos.Symbol, Position: pos}

	bars := r.fetchBars(ctx, pos.Symbol)
	if len(bars) == 0 {
		logger.Warnf("无 K 线数据，剔除本轮 symbol=%s", pos.Symbol)
		return nil
	}
	analysis.Bars = bars

	set, err := indicator.Compute(pos.Symbol, bars, indicator.Settings{})
	if err != nil {
		logger.Warnf("指标计算失败，剔除本轮 symbol=%s err=%v", pos.Symbol, err)
		return nil
	}
	analysis.Snapshot = set.Snapshot()
	analysis.Warnings = set.Warnings

	nctx, cancel := context.WithTimeout(ctx, r.opts.NewsTimeout)
	items, err := r.news.SymbolNews(nctx, pos.Symbol)
	cancel()
	if err != nil {
		logger.Warnf("新闻获取失败，按无新闻继续 symbol=%s err=%v", pos.Symbol, err)
	} else {
		analysis.News = items
	}

	analysis.WinRate, analysis.WinSample = r.recentWinRate(ctx, pos.Symbol)

	// 尽力持久化，失败不影响周期。
	if err := r.store.SaveBars(ctx, pos.Symbol, bars); err != nil {
		logger.Warnf("K 线持久化失败 symbol=%s err=%v", pos.Symbol, err)
	}
	if err := r.store.SaveIndicators(ctx, pos.Symbol, traceID, analysis.Snapshot); err != nil {
		logger.Warnf("指标快照持久化失败 symbol=%s err=%v", pos.Symbol, err)
	}
	return analysis
}

// fetchBars 先走行情源，失败或为空时回退到本地缓存。
func (r *Runner) fetchBars(ctx context.Context, symbol string) []types.Bar {
	end := time.Now()
	start := end.Add(-time.Duration(r.opts.LookbackHours) * time.Hour)
	bctx, cancel := context.WithTimeout(ctx, r.opts.MarketTimeout)
	bars, err := r.bars.GetBars(bctx, symbol, r.opts.Timeframe, start, end, r.opts.HistoryLimit)
	cancel()
	if err != nil {
		logger.Warnf("K 线拉取失败，尝试本地缓存 symbol=%s err=%v", symbol, err)
	}
	if len(bars) > 0 {
		return bars
	}
	cached, err := r.store.BarsForSymbol(ctx, symbol, r.opts.HistoryLimit)
	if err != nil {
		logger.Warnf("本地 K 线缓存读取失败 symbol=%s err=%v", symbol, err)
		return nil
	}
	if len(cached) > 0 {
		logger.Infof("使用本地 K 线缓存 symbol=%s bars=%d", symbol, len(cached))
	}
	return cached
}

func (r *Runner) decide(ctx context.Context, state *State) {
	symbols := make([]string, 0, len(state.Analyses))
	for sym := range state.Analyses {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	inputs := make([]decision.Input, 0, len(symbols))
	for _, sym := range symbols {
		analysis := state.Analyses[sym]
		inputs = append(inputs, decision.Input{
			TraceID:   state.TraceID,
			Symbol:    sym,
			Position:  analysis.Position,
			Account:   state.Account,
			Snapshot:  analysis.Snapshot,
			Bars:      analysis.Bars,
			News:      analysis.News,
			Market:    state.Market,
			Open:      openOrdersFor(state.OpenOrders, sym),
			WinRate:   analysis.WinRate,
			WinSample: analysis.WinSample,
			Warnings:  analysis.Warnings,
		})
	}
	state.Results = r.decider.DecideAll(ctx, inputs)
	for _, res := range state.Results {
		logger.Infof("决策 symbol=%s label=%s", res.Symbol, res.Label)
	}
}

// recentWinRate 最近三笔记录中卖出族决策的占比，作为粗粒度的落袋率信号。
func (r *Runner) recentWinRate(ctx context.Context, symbol string) (float64, int) {
	trades, err := r.store.TradesForSymbol(ctx, symbol, 3)
	if err != nil || len(trades) == 0 {
		return 0, 0
	}
	wins := 0
	for _, t := range trades {
		if decision.Label(t.Decision).IsSell() {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)) * 100, len(trades)
}

func (r *Runner) execute(ctx context.Context, state *State) {
	positions := make(map[string]types.Position, len(state.Positions))
	for _, p := range state.Positions {
		positions[p.Symbol] = p
	}
	state.Actions = r.executor.ExecuteAll(ctx, state.Account, state.Results, positions)
}

func (r *Runner) report(ctx context.Context, state *State) {
	r.persistActions(ctx, state)
	if r.reporter == nil {
		return
	}
	if err := r.reporter.Publish(ctx, state); err != nil {
		logger.Warnf("周期报告发布失败 trace_id=%s err=%v", state.TraceID, err)
	}
}

// persistActions 只记录实际产生动作的决策，HOLD 不入库。
func (r *Runner) persistActions(ctx context.Context, state *State) {
	for _, action := range state.Actions {
		if action.Label == decision.Hold || action.Err != nil {
			continue
		}
		analysis := state.Analyses[action.Symbol]
		rec := &types.TradeRecord{
			Symbol:       action.Symbol,
			Decision:     string(action.Label),
			Shares:       action.Shares,
			AccountCash:  state.Account.Cash,
			BuyingPower:  state.Account.BuyingPower,
			CycleTraceID: state.TraceID,
			Timestamp:    time.Now(),
		}
		if analysis != nil {
			rec.Indicators = analysis.Snapshot
			rec.UnrealizedPL = analysis.Position.UnrealizedPL
		}
		if action.Order != nil {
			rec.OrderID = action.Order.ID
			rec.OrderStatus = action.Order.Status
		}
		if err := r.store.SaveTrade(ctx, rec); err != nil {
			logger.Warnf("交易记录持久化失败 symbol=%s err=%v", action.Symbol, err)
		}
	}
}

func openOrdersFor(orders []types.Order, symbol string) []types.Order {
	var out []types.Order
	for _, o := range orders {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out
}
