package decisionlog

import (
	"context"
	"time"

	"alphaloop/internal/decision"
	"alphaloop/internal/logger"
)

// Observer 实现 decision.Observer，把每次模型调用写入审计库。
type Observer struct {
	store *Store
}

func NewObserver(store *Store) *Observer {
	if store == nil {
		return nil
	}
	return &Observer{store: store}
}

// AfterDecide 写入失败只告警，不影响决策流程。
func (o *Observer) AfterDecide(ctx context.Context, trace decision.Trace) {
	if o == nil || o.store == nil {
		return
	}
	rec := Record{
		TraceID:   trace.TraceID,
		Timestamp: time.Now().UnixMilli(),
		Symbol:    trace.Symbol,
		Label:     string(trace.Label),
		Reason:    trace.Reason,
		System:    trace.System,
		User:      trace.User,
		RawOutput: trace.Raw,
	}
	if trace.Err != nil {
		rec.Error = trace.Err.Error()
	}
	if _, err := o.store.Insert(ctx, rec); err != nil {
		logger.Warnf("写入决策日志失败 symbol=%s err=%v", trace.Symbol, err)
	}
}
