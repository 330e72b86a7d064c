package scheduler

import (
	"context"
	"time"

	"alphaloop/internal/logger"
)

// 中文说明：
// 固定间隔调度器。每轮任务结束后等待 Interval 再跑下一轮；
// 任务失败时改等较短的 Cooldown，尽快重试而不空转。

type IntervalScheduler struct {
	Interval time.Duration
	Cooldown time.Duration

	ctx   context.Context
	nowFn func() time.Time
}

func NewIntervalScheduler(ctx context.Context, interval, cooldown time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &IntervalScheduler{
		Interval: interval,
		Cooldown: cooldown,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

// Start 阻塞运行任务循环，ctx 取消后返回。首轮立即执行。
func (s *IntervalScheduler) Start(task func(context.Context) error) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	startAt := s.nowFn().UTC()
	logger.Infof("IntervalScheduler: started interval=%s cooldown=%s at=%s",
		s.Interval, s.Cooldown, startAt.Format(time.RFC3339))

	for {
		wait := s.Interval
		if err := task(s.ctx); err != nil {
			logger.Warnf("IntervalScheduler: 本轮失败，%s 后重试 err=%v", s.Cooldown, err)
			wait = s.Cooldown
		}
		if s.ctx.Err() != nil {
			logger.Infof("IntervalScheduler: ctx done, exit")
			return
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("IntervalScheduler: ctx done, exit")
			return
		case <-timer.C:
		}
	}
}
