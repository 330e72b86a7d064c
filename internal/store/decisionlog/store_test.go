package decisionlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"alphaloop/internal/decision"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "decisions.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_InsertAndList(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []Record{
		{TraceID: "t1", Symbol: "aapl", Label: "OCO_SELL", RawOutput: "OCO_SELL because..."},
		{TraceID: "t1", Symbol: "MSFT", Label: "HOLD", Reason: "model call failed: timeout", Error: "timeout"},
		{TraceID: "t2", Symbol: "AAPL", Label: "LIMIT_BUY"},
	} {
		id, err := st.Insert(ctx, rec)
		assert.NoError(t, err)
		assert.NotZero(t, id)
	}

	all, err := st.List(ctx, Query{})
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	// symbol 大小写归一
	aapl, err := st.List(ctx, Query{Symbol: "aapl"})
	assert.NoError(t, err)
	assert.Len(t, aapl, 2)
	assert.Equal(t, "AAPL", aapl[0].Symbol)

	t1, err := st.List(ctx, Query{Trace: "t1"})
	assert.NoError(t, err)
	assert.Len(t, t1, 2)

	limited, err := st.List(ctx, Query{Limit: 1})
	assert.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_EmptyPathRejected(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestObserver_PersistsTrace(t *testing.T) {
	st := newTestStore(t)
	obs := NewObserver(st)

	obs.AfterDecide(context.Background(), decision.Trace{
		TraceID: "trace-9",
		Symbol:  "NVDA",
		System:  "system",
		User:    "user",
		Raw:     "BRACKET_BUY",
		Label:   decision.BracketBuy,
	})

	records, err := st.List(context.Background(), Query{Trace: "trace-9"})
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "NVDA", records[0].Symbol)
	assert.Equal(t, "BRACKET_BUY", records[0].Label)
	assert.Equal(t, "user", records[0].User)
	assert.Empty(t, records[0].Error)
}

func TestNewObserver_NilStore(t *testing.T) {
	assert.Nil(t, NewObserver(nil))
}
