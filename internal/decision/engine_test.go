package decision

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"alphaloop/internal/types"
)

type MockModel struct {
	mock.Mock
}

func (m *MockModel) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

type staticPrompts struct{}

func (staticPrompts) System() string { return "system prompt" }
func (staticPrompts) Rules() string  { return "rules" }

type recordingObserver struct {
	mu     sync.Mutex
	traces []Trace
}

func (o *recordingObserver) AfterDecide(_ context.Context, trace Trace) {
	o.mu.Lock()
	o.traces = append(o.traces, trace)
	o.mu.Unlock()
}

func TestEngine_DecideAll_SortedResults(t *testing.T) {
	model := new(MockModel)
	model.On("Call", mock.Anything, mock.Anything, mock.Anything).Return("HOLD", nil)

	engine := NewEngine(model, staticPrompts{}, 2)
	inputs := []Input{
		{Symbol: "MSFT", Position: types.Position{Symbol: "MSFT", Qty: 1, CurrentPrice: 100}},
		{Symbol: "AAPL", Position: types.Position{Symbol: "AAPL", Qty: 1, CurrentPrice: 100}},
	}
	results := engine.DecideAll(context.Background(), inputs)

	assert.Len(t, results, 2)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "MSFT", results[1].Symbol)
}

func TestEngine_ModelFailureDegradesToHold(t *testing.T) {
	model := new(MockModel)
	model.On("Call", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	engine := NewEngine(model, staticPrompts{}, 1)
	results := engine.DecideAll(context.Background(), []Input{
		{Symbol: "AAPL", Position: types.Position{Symbol: "AAPL", Qty: 1, CurrentPrice: 100}},
	})

	assert.Len(t, results, 1)
	assert.Equal(t, Hold, results[0].Label)
	assert.Contains(t, results[0].Reason, "model call failed")
}

func TestEngine_FailureIsolatedPerSymbol(t *testing.T) {
	model := new(MockModel)
	model.On("Call", mock.Anything, mock.Anything, mock.MatchedBy(func(user string) bool {
		return containsSymbol(user, "AAPL")
	})).Return("", errors.New("timeout"))
	model.On("Call", mock.Anything, mock.Anything, mock.MatchedBy(func(user string) bool {
		return containsSymbol(user, "MSFT")
	})).Return("OCO_SELL", nil)

	engine := NewEngine(model, staticPrompts{}, 2)
	results := engine.DecideAll(context.Background(), []Input{
		{Symbol: "AAPL", Position: types.Position{Symbol: "AAPL", Qty: 1, CurrentPrice: 100}},
		{Symbol: "MSFT", Position: types.Position{Symbol: "MSFT", Qty: 1, CurrentPrice: 100}},
	})

	assert.Equal(t, Hold, results[0].Label)
	assert.Equal(t, OCOSell, results[1].Label)
}

func TestEngine_ObserverSeesEveryCall(t *testing.T) {
	model := new(MockModel)
	model.On("Call", mock.Anything, mock.Anything, mock.Anything).Return("LIMIT_BUY", nil)

	obs := &recordingObserver{}
	engine := NewEngine(model, staticPrompts{}, 1)
	engine.SetObserver(obs)

	engine.DecideAll(context.Background(), []Input{
		{TraceID: "trace-1", Symbol: "AAPL", Position: types.Position{Symbol: "AAPL", Qty: 1, CurrentPrice: 100}},
	})

	assert.Len(t, obs.traces, 1)
	assert.Equal(t, "trace-1", obs.traces[0].TraceID)
	assert.Equal(t, "AAPL", obs.traces[0].Symbol)
	assert.Equal(t, LimitBuy, obs.traces[0].Label)
	assert.Equal(t, "system prompt", obs.traces[0].System)
	assert.NoError(t, obs.traces[0].Err)
}

func containsSymbol(prompt, symbol string) bool {
	return strings.Contains(prompt, symbol)
}
