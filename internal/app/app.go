package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"alphaloop/internal/agent"
	alcfg "alphaloop/internal/config"
	"alphaloop/internal/logger"
	promptkit "alphaloop/internal/prompt"
	"alphaloop/internal/report"
	"alphaloop/internal/store"
	"alphaloop/internal/store/decisionlog"
	loophttp "alphaloop/internal/transport/http"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 与交易循环。
type App struct {
	cfg          *alcfg.Config
	store        store.Store
	decisionLogs *decisionlog.Store
	prompts      *promptkit.Manager
	reporter     *report.Reporter
	supervisor   *agent.Supervisor
	httpSrv      *loophttp.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *alcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg)
}

// Supervisor 暴露循环监督器（测试与手动触发用）。
func (a *App) Supervisor() *agent.Supervisor {
	if a == nil {
		return nil
	}
	return a.supervisor
}

// Run 启动 HTTP 服务与（可选的）连续循环，阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	if err := a.reporter.StartDailyDigest(); err != nil {
		return err
	}

	if a.cfg.App.AutoStart {
		if err := a.supervisor.Start(ctx); err != nil {
			return fmt.Errorf("auto start loop failed: %w", err)
		}
	} else {
		logger.Infof("连续循环未自动启动，可通过 POST /api/loop/start 开启")
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(gctx); err != nil {
			return fmt.Errorf("loop http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

func (a *App) close() {
	a.supervisor.Stop()
	a.reporter.Stop()
	if err := a.prompts.Close(); err != nil {
		logger.Warnf("prompt manager close failed: %v", err)
	}
	if a.decisionLogs != nil {
		if err := a.decisionLogs.Close(); err != nil {
			logger.Warnf("decision log close failed: %v", err)
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Warnf("store close failed: %v", err)
	}
}
