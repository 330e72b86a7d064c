package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"alphaloop/internal/decision"
	"alphaloop/internal/dispatch"
	"alphaloop/internal/types"
)

type MockAccountSource struct {
	mock.Mock
}

func (m *MockAccountSource) GetAccount(ctx context.Context) (*types.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Account), args.Error(1)
}

func (m *MockAccountSource) GetPositions(ctx context.Context) ([]types.Position, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Position), args.Error(1)
}

func (m *MockAccountSource) GetOpenOrders(ctx context.Context) ([]types.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Order), args.Error(1)
}

type MockBarSource struct {
	mock.Mock
}

func (m *MockBarSource) GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]types.Bar, error) {
	args := m.Called(ctx, symbol, timeframe, start, end, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Bar), args.Error(1)
}

type MockNewsSource struct {
	mock.Mock
}

func (m *MockNewsSource) SymbolNews(ctx context.Context, symbol string) ([]types.NewsItem, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.NewsItem), args.Error(1)
}

func (m *MockNewsSource) MarketSentiment(ctx context.Context) (*types.MarketSentiment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MarketSentiment), args.Error(1)
}

type MockDecider struct {
	mock.Mock
}

func (m *MockDecider) DecideAll(ctx context.Context, inputs []decision.Input) []decision.Result {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]decision.Result)
}

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) ExecuteAll(ctx context.Context, account types.Account, results []decision.Result, positions map[string]types.Position) []dispatch.Action {
	args := m.Called(ctx, account, results, positions)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]dispatch.Action)
}

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Publish(ctx context.Context, state *State) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveTrade(ctx context.Context, rec *types.TradeRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) TradesForSymbol(ctx context.Context, symbol string, limit int) ([]types.TradeRecord, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TradeRecord), args.Error(1)
}

func (m *MockStore) RecentTrades(ctx context.Context, limit int) ([]types.TradeRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TradeRecord), args.Error(1)
}

func (m *MockStore) SaveBars(ctx context.Context, symbol string, bars []types.Bar) error {
	args := m.Called(ctx, symbol, bars)
	return args.Error(0)
}

func (m *MockStore) BarsForSymbol(ctx context.Context, symbol string, limit int) ([]types.Bar, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Bar), args.Error(1)
}

func (m *MockStore) SaveIndicators(ctx context.Context, symbol string, traceID string, values map[string]float64) error {
	args := m.Called(ctx, symbol, traceID, values)
	return args.Error(0)
}

func (m *MockStore) Performance(ctx context.Context) (*types.PerformanceSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PerformanceSummary), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

// testBars 生成足够预热全部指标的 K 线序列。
func testBars(n int, base float64) []types.Bar {
	bars := make([]types.Bar, n)
	ts := time.Now().Add(-time.Duration(n) * 5 * time.Minute)
	for i := range bars {
		price := base + float64(i%7)*0.5
		bars[i] = types.Bar{
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.2,
			Volume:    1000,
			Timestamp: ts.Add(time.Duration(i) * 5 * time.Minute),
		}
	}
	return bars
}

func newTestRunner(acct *MockAccountSource, bars *MockBarSource, news *MockNewsSource,
	decider *MockDecider, executor *MockExecutor, reporter *MockReporter, st *MockStore) *Runner {
	return NewRunner(acct, bars, news, decider, executor, reporter, st, Options{
		Timeframe:     "5Min",
		LookbackHours: 24,
		HistoryLimit:  50,
		MarketTimeout: time.Second,
		NewsTimeout:   time.Second,
	})
}

func TestRunner_AccountFailureIsFatal(t *testing.T) {
	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(nil, errors.New("401"))

	r := newTestRunner(acct, new(MockBarSource), new(MockNewsSource),
		new(MockDecider), new(MockExecutor), new(MockReporter), new(MockStore))

	state, err := r.Run(context.Background())
	assert.Nil(t, state)
	assert.ErrorContains(t, err, "account snapshot failed")
}

func TestRunner_PositionsFailureIsFatal(t *testing.T) {
	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 1000}, nil)
	acct.On("GetPositions", mock.Anything).Return(nil, errors.New("503"))

	r := newTestRunner(acct, new(MockBarSource), new(MockNewsSource),
		new(MockDecider), new(MockExecutor), new(MockReporter), new(MockStore))

	_, err := r.Run(context.Background())
	assert.ErrorContains(t, err, "positions snapshot failed")
}

func TestRunner_OpenOrdersFailureIsFatal(t *testing.T) {
	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 1000}, nil)
	acct.On("GetPositions", mock.Anything).Return([]types.Position{{Symbol: "AAPL", Qty: 1}}, nil)
	acct.On("GetOpenOrders", mock.Anything).Return(nil, errors.New("503"))

	decider := new(MockDecider)
	reporter := new(MockReporter)

	r := newTestRunner(acct, new(MockBarSource), new(MockNewsSource),
		decider, new(MockExecutor), reporter, new(MockStore))

	state, err := r.Run(context.Background())
	assert.Nil(t, state)
	assert.ErrorContains(t, err, "open orders snapshot failed")
	// 快照不完整时直接中止，后续阶段不执行。
	decider.AssertNotCalled(t, "DecideAll", mock.Anything, mock.Anything)
	reporter.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRunner_NoPositionsSkipsAnalysis(t *testing.T) {
	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 1000}, nil)
	acct.On("GetPositions", mock.Anything).Return([]types.Position{}, nil)
	acct.On("GetOpenOrders", mock.Anything).Return([]types.Order{}, nil)

	decider := new(MockDecider)
	executor := new(MockExecutor)
	reporter := new(MockReporter)
	reporter.On("Publish", mock.Anything, mock.Anything).Return(nil)

	r := newTestRunner(acct, new(MockBarSource), new(MockNewsSource), decider, executor, reporter, new(MockStore))

	state, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, state)
	assert.Empty(t, state.Analyses)

	// 空仓也出报告，但决策与执行被跳过。
	reporter.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
	decider.AssertNotCalled(t, "DecideAll", mock.Anything, mock.Anything)
	executor.AssertNotCalled(t, "ExecuteAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_FullCycle(t *testing.T) {
	ctx := context.Background()
	pos := types.Position{Symbol: "AAPL", Qty: 10, AvgEntryPrice: 100, CurrentPrice: 106, UnrealizedPL: 60, UnrealizedPLPC: 6}

	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 5000, BuyingPower: 10000}, nil)
	acct.On("GetPositions", mock.Anything).Return([]types.Position{pos}, nil)
	acct.On("GetOpenOrders", mock.Anything).Return([]types.Order{}, nil)

	bars := new(MockBarSource)
	bars.On("GetBars", mock.Anything, "AAPL", "5Min", mock.Anything, mock.Anything, 50).
		Return(testBars(40, 100), nil)

	news := new(MockNewsSource)
	news.On("MarketSentiment", mock.Anything).Return(&types.MarketSentiment{Sentiment: types.SentimentNeutral}, nil)
	news.On("SymbolNews", mock.Anything, "AAPL").Return([]types.NewsItem{{Title: "AAPL news"}}, nil)

	st := new(MockStore)
	st.On("SaveBars", mock.Anything, "AAPL", mock.Anything).Return(nil)
	st.On("SaveIndicators", mock.Anything, "AAPL", mock.Anything, mock.Anything).Return(nil)
	st.On("TradesForSymbol", mock.Anything, "AAPL", 3).Return([]types.TradeRecord{}, nil)
	st.On("SaveTrade", mock.Anything, mock.Anything).Return(nil)

	decider := new(MockDecider)
	decider.On("DecideAll", mock.Anything, mock.MatchedBy(func(inputs []decision.Input) bool {
		return len(inputs) == 1 && inputs[0].Symbol == "AAPL" && inputs[0].TraceID != ""
	})).Return([]decision.Result{{Symbol: "AAPL", Label: decision.OCOSell}})

	executor := new(MockExecutor)
	executor.On("ExecuteAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]dispatch.Action{{Symbol: "AAPL", Label: decision.OCOSell, Shares: 10, Order: &types.OrderResult{ID: "ord-1", Status: "accepted"}}})

	reporter := new(MockReporter)
	reporter.On("Publish", mock.Anything, mock.Anything).Return(nil)

	r := newTestRunner(acct, bars, news, decider, executor, reporter, st)

	state, err := r.Run(ctx)
	assert.NoError(t, err)
	assert.Len(t, state.Analyses, 1)
	assert.Len(t, state.Results, 1)
	assert.Len(t, state.Actions, 1)

	// 执行成功的非 HOLD 动作入库
	st.AssertCalled(t, "SaveTrade", mock.Anything, mock.MatchedBy(func(rec *types.TradeRecord) bool {
		return rec.Symbol == "AAPL" && rec.Decision == "OCO_SELL" && rec.Shares == 10 && rec.OrderID == "ord-1"
	}))
	reporter.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRunner_EmptyBarsFallsBackToCache(t *testing.T) {
	pos := types.Position{Symbol: "MSFT", Qty: 5, CurrentPrice: 300}

	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 1000}, nil)
	acct.On("GetPositions", mock.Anything).Return([]types.Position{pos}, nil)
	acct.On("GetOpenOrders", mock.Anything).Return([]types.Order{}, nil)

	bars := new(MockBarSource)
	bars.On("GetBars", mock.Anything, "MSFT", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]types.Bar{}, nil)

	news := new(MockNewsSource)
	news.On("MarketSentiment", mock.Anything).Return(nil, errors.New("unreachable"))
	news.On("SymbolNews", mock.Anything, "MSFT").Return([]types.NewsItem{}, nil)

	st := new(MockStore)
	st.On("BarsForSymbol", mock.Anything, "MSFT", 50).Return(testBars(40, 300), nil)
	st.On("SaveBars", mock.Anything, "MSFT", mock.Anything).Return(nil)
	st.On("SaveIndicators", mock.Anything, "MSFT", mock.Anything, mock.Anything).Return(nil)
	st.On("TradesForSymbol", mock.Anything, "MSFT", 3).Return(nil, nil)

	decider := new(MockDecider)
	decider.On("DecideAll", mock.Anything, mock.Anything).Return([]decision.Result{{Symbol: "MSFT", Label: decision.Hold}})
	executor := new(MockExecutor)
	executor.On("ExecuteAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]dispatch.Action{{Symbol: "MSFT", Label: decision.Hold}})
	reporter := new(MockReporter)
	reporter.On("Publish", mock.Anything, mock.Anything).Return(nil)

	r := newTestRunner(acct, bars, news, decider, executor, reporter, st)

	state, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Len(t, state.Analyses, 1)
	st.AssertCalled(t, "BarsForSymbol", mock.Anything, "MSFT", 50)
	// HOLD 不写交易记录
	st.AssertNotCalled(t, "SaveTrade", mock.Anything, mock.Anything)
}

func TestRunner_SymbolWithoutBarsIsDropped(t *testing.T) {
	pos := types.Position{Symbol: "NVDA", Qty: 2, CurrentPrice: 800}

	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 1000}, nil)
	acct.On("GetPositions", mock.Anything).Return([]types.Position{pos}, nil)
	acct.On("GetOpenOrders", mock.Anything).Return([]types.Order{}, nil)

	bars := new(MockBarSource)
	bars.On("GetBars", mock.Anything, "NVDA", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("feed down"))

	news := new(MockNewsSource)
	news.On("MarketSentiment", mock.Anything).Return(&types.MarketSentiment{}, nil)

	st := new(MockStore)
	st.On("BarsForSymbol", mock.Anything, "NVDA", 50).Return([]types.Bar{}, nil)

	decider := new(MockDecider)
	decider.On("DecideAll", mock.Anything, mock.Anything).Return([]decision.Result{})
	executor := new(MockExecutor)
	executor.On("ExecuteAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]dispatch.Action{})
	reporter := new(MockReporter)
	reporter.On("Publish", mock.Anything, mock.Anything).Return(nil)

	r := newTestRunner(acct, bars, news, decider, executor, reporter, st)

	state, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, state.Analyses)
}

func TestRunner_FailedActionNotPersisted(t *testing.T) {
	pos := types.Position{Symbol: "AMD", Qty: 3, CurrentPrice: 150}

	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 1000}, nil)
	acct.On("GetPositions", mock.Anything).Return([]types.Position{pos}, nil)
	acct.On("GetOpenOrders", mock.Anything).Return([]types.Order{}, nil)

	bars := new(MockBarSource)
	bars.On("GetBars", mock.Anything, "AMD", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(testBars(40, 150), nil)

	news := new(MockNewsSource)
	news.On("MarketSentiment", mock.Anything).Return(&types.MarketSentiment{}, nil)
	news.On("SymbolNews", mock.Anything, "AMD").Return(nil, errors.New("rss down"))

	st := new(MockStore)
	st.On("SaveBars", mock.Anything, "AMD", mock.Anything).Return(nil)
	st.On("SaveIndicators", mock.Anything, "AMD", mock.Anything, mock.Anything).Return(nil)
	st.On("TradesForSymbol", mock.Anything, "AMD", 3).Return(nil, nil)

	decider := new(MockDecider)
	decider.On("DecideAll", mock.Anything, mock.Anything).Return([]decision.Result{{Symbol: "AMD", Label: decision.LimitSell}})
	executor := new(MockExecutor)
	executor.On("ExecuteAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]dispatch.Action{{Symbol: "AMD", Label: decision.LimitSell, Err: errors.New("rejected")}})
	reporter := new(MockReporter)
	reporter.On("Publish", mock.Anything, mock.Anything).Return(nil)

	r := newTestRunner(acct, bars, news, decider, executor, reporter, st)

	state, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Len(t, state.Actions, 1)
	st.AssertNotCalled(t, "SaveTrade", mock.Anything, mock.Anything)
}

func TestRunner_WinRateGatheredDuringAnalysis(t *testing.T) {
	pos := types.Position{Symbol: "AAPL", Qty: 10, AvgEntryPrice: 100, CurrentPrice: 106}

	acct := new(MockAccountSource)
	acct.On("GetAccount", mock.Anything).Return(&types.Account{Cash: 5000}, nil)
	acct.On("GetPositions", mock.Anything).Return([]types.Position{pos}, nil)
	acct.On("GetOpenOrders", mock.Anything).Return([]types.Order{}, nil)

	bars := new(MockBarSource)
	bars.On("GetBars", mock.Anything, "AAPL", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(testBars(40, 100), nil)

	news := new(MockNewsSource)
	news.On("MarketSentiment", mock.Anything).Return(&types.MarketSentiment{}, nil)
	news.On("SymbolNews", mock.Anything, "AAPL").Return([]types.NewsItem{}, nil)

	st := new(MockStore)
	st.On("SaveBars", mock.Anything, "AAPL", mock.Anything).Return(nil)
	st.On("SaveIndicators", mock.Anything, "AAPL", mock.Anything, mock.Anything).Return(nil)
	st.On("TradesForSymbol", mock.Anything, "AAPL", 3).Return([]types.TradeRecord{
		{Symbol: "AAPL", Decision: "OCO_SELL"},
		{Symbol: "AAPL", Decision: "BRACKET_BUY"},
		{Symbol: "AAPL", Decision: "STOP_LOSS"},
	}, nil)

	decider := new(MockDecider)
	decider.On("DecideAll", mock.Anything, mock.MatchedBy(func(inputs []decision.Input) bool {
		return len(inputs) == 1 && inputs[0].WinSample == 3 &&
			inputs[0].WinRate > 66.6 && inputs[0].WinRate < 66.7
	})).Return([]decision.Result{{Symbol: "AAPL", Label: decision.Hold}})

	executor := new(MockExecutor)
	executor.On("ExecuteAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]dispatch.Action{})
	reporter := new(MockReporter)
	reporter.On("Publish", mock.Anything, mock.Anything).Return(nil)

	r := newTestRunner(acct, bars, news, decider, executor, reporter, st)

	state, err := r.Run(context.Background())
	assert.NoError(t, err)
	// 战绩在分析阶段随 symbol 一起采集，决策阶段只读分析产物。
	assert.Equal(t, 3, state.Analyses["AAPL"].WinSample)
	assert.InDelta(t, 66.67, state.Analyses["AAPL"].WinRate, 0.01)
	decider.AssertExpectations(t)
}

func TestRunner_RecentWinRate(t *testing.T) {
	st := new(MockStore)
	st.On("TradesForSymbol", mock.Anything, "AAPL", 3).Return([]types.TradeRecord{
		{Symbol: "AAPL", Decision: "OCO_SELL"},
		{Symbol: "AAPL", Decision: "BRACKET_BUY"},
		{Symbol: "AAPL", Decision: "STOP_LOSS"},
	}, nil)

	r := newTestRunner(new(MockAccountSource), new(MockBarSource), new(MockNewsSource),
		new(MockDecider), new(MockExecutor), new(MockReporter), st)

	rate, sample := r.recentWinRate(context.Background(), "AAPL")
	assert.Equal(t, 3, sample)
	assert.InDelta(t, 66.67, rate, 0.01)
}
