package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alphaloop/internal/cycle"
	"alphaloop/internal/logger"
	"alphaloop/internal/pkg/circuit"
	"alphaloop/internal/scheduler"
)

// 中文说明：
// 循环监督器。管理连续循环的启停、单次触发与状态查询；
// 周期级熔断：快照连续失败达到阈值后暂停一段时间再探测。

// CycleRunner 单轮周期执行方。
type CycleRunner interface {
	Run(ctx context.Context) (*cycle.State, error)
}

// LastResult 最近一轮周期的摘要，HTTP 状态接口直接返回它。
type LastResult struct {
	TraceID    string    `json:"trace_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Positions  int       `json:"positions"`
	Actions    int       `json:"actions"`
	ReportPath string    `json:"report_path,omitempty"`
	EmailSent  bool      `json:"email_sent"`
	Error      string    `json:"error,omitempty"`
}

// Status 监督器当前状态。
type Status struct {
	Running      bool        `json:"running"`
	BreakerState string      `json:"breaker_state"`
	Last         *LastResult `json:"last,omitempty"`
}

// Options 循环参数。
type Options struct {
	Interval         time.Duration
	Cooldown         time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

type Supervisor struct {
	runner  CycleRunner
	breaker *circuit.Breaker
	opts    Options

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	last    *LastResult

	// runMu 保证任意时刻只有一轮周期在跑（连续循环与手动触发互斥）。
	runMu sync.Mutex
}

func NewSupervisor(runner CycleRunner, opts Options) *Supervisor {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Minute
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = 3
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 10 * time.Minute
	}
	return &Supervisor{
		runner:  runner,
		breaker: circuit.NewBreaker("cycle", opts.BreakerThreshold, opts.BreakerTimeout),
		opts:    opts,
	}
}

// Start 启动连续循环。已在运行时返回错误。
func (s *Supervisor) Start(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("loop already running")
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.running = true

	sched := scheduler.NewIntervalScheduler(ctx, s.opts.Interval, s.opts.Cooldown)
	go func() {
		sched.Start(func(taskCtx context.Context) error {
			_, err := s.RunOnce(taskCtx)
			return err
		})
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
	logger.Infof("连续循环已启动 interval=%s", s.opts.Interval)
	return nil
}

// Stop 停止连续循环。未运行时是空操作。
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	logger.Infof("连续循环停止指令已下发")
}

// RunOnce 执行一轮周期并更新最近结果。熔断打开时直接拒绝。
func (s *Supervisor) RunOnce(ctx context.Context) (*cycle.State, error) {
	if !s.breaker.Allow() {
		return nil, fmt.Errorf("cycle breaker open, refusing to run")
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	state, err := s.runner.Run(ctx)
	last := &LastResult{StartedAt: time.Now()}
	if state != nil {
		last.TraceID = state.TraceID
		last.StartedAt = state.StartedAt
		last.DurationMS = state.Duration.Milliseconds()
		last.Positions = len(state.Positions)
		last.Actions = len(state.Actions)
		last.ReportPath = state.ReportPath
		last.EmailSent = state.EmailSent
	}
	if err != nil {
		last.Error = err.Error()
		s.breaker.RecordFailure()
	} else {
		s.breaker.RecordSuccess()
	}
	s.mu.Lock()
	s.last = last
	s.mu.Unlock()
	return state, err
}

func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:      s.running,
		BreakerState: s.breaker.State().String(),
		Last:         s.last,
	}
}
