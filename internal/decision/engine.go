package decision

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"alphaloop/internal/logger"
)

// 中文说明：
// 决策引擎。对每个待决策 symbol 并发调用模型（受并发上限约束），
// 单个调用失败降级为 HOLD 并记录原因，不影响其它 symbol。

// ModelCaller 聊天模型调用方。
type ModelCaller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PromptSource 提供当前生效的提示词文本。
type PromptSource interface {
	System() string
	Rules() string
}

// Trace 一次模型调用的完整上下文，供观察者持久化。
type Trace struct {
	TraceID string
	Symbol  string
	System  string
	User    string
	Raw     string
	Label   Label
	Reason  string
	Err     error
}

// Observer 在每次决策完成后收到通知（包括失败降级的情形）。
type Observer interface {
	AfterDecide(ctx context.Context, trace Trace)
}

type Engine struct {
	model    ModelCaller
	prompts  PromptSource
	limit    int
	observer Observer
}

func NewEngine(model ModelCaller, prompts PromptSource, maxConcurrency int) *Engine {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Engine{model: model, prompts: prompts, limit: maxConcurrency}
}

// SetObserver 注册决策观察者，传 nil 表示不通知。
func (e *Engine) SetObserver(obs Observer) {
	e.observer = obs
}

// DecideAll 为全部输入生成决策，返回按 symbol 升序的结果。
// 所有 symbol 都会有结论：模型失败的 symbol 结论为 HOLD。
func (e *Engine) DecideAll(ctx context.Context, inputs []Input) []Result {
	results := make(map[string]Result, len(inputs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			res := e.decideOne(gctx, in)
			mu.Lock()
			results[in.Symbol] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (e *Engine) decideOne(ctx context.Context, in Input) Result {
	system := e.prompts.System()
	user := BuildUserPrompt(in, e.prompts.Rules())
	logger.LogLLMRequest(in.Symbol, system, user)

	raw, err := e.model.Call(ctx, system, user)
	if err != nil {
		logger.Warnf("模型调用失败，降级为 HOLD symbol=%s err=%v", in.Symbol, err)
		res := Result{
			Symbol: in.Symbol,
			Label:  Hold,
			Reason: fmt.Sprintf("model call failed: %v", err),
		}
		e.notify(ctx, in, res, system, user, err)
		return res
	}
	label := Parse(raw)
	logger.LogLLMResponse(in.Symbol, raw, string(label))
	res := Result{Symbol: in.Symbol, Label: label, Raw: raw}
	e.notify(ctx, in, res, system, user, nil)
	return res
}

func (e *Engine) notify(ctx context.Context, in Input, res Result, system, user string, err error) {
	if e.observer == nil {
		return
	}
	e.observer.AfterDecide(ctx, Trace{
		TraceID: in.TraceID,
		Symbol:  in.Symbol,
		System:  system,
		User:    user,
		Raw:     res.Raw,
		Label:   res.Label,
		Reason:  res.Reason,
		Err:     err,
	})
}
