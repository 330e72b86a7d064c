package app

import (
	"fmt"
	"time"

	"alphaloop/internal/agent"
	alcfg "alphaloop/internal/config"
	"alphaloop/internal/cycle"
	"alphaloop/internal/decision"
	"alphaloop/internal/dispatch"
	"alphaloop/internal/gateway/alpaca"
	"alphaloop/internal/gateway/binance"
	"alphaloop/internal/gateway/provider"
	"alphaloop/internal/logger"
	"alphaloop/internal/news"
	promptkit "alphaloop/internal/prompt"
	"alphaloop/internal/report"
	"alphaloop/internal/store"
	"alphaloop/internal/store/decisionlog"
	"alphaloop/internal/store/gormstore"
	loophttp "alphaloop/internal/transport/http"
)

// 中文说明：
// 依赖装配。构建顺序：存储 → 网关 → 分析/决策/派单 → 报告 → 监督器 → HTTP。
// 覆盖函数留给测试替换外部依赖。

type AppBuilder struct {
	cfg *alcfg.Config

	storeFn func(*alcfg.Config) (store.Store, error)
	barsFn  func(*alcfg.Config, *alpaca.Client) (cycle.BarSource, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *alcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:     cfg,
		storeFn: buildStore,
		barsFn:  buildBarSource,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithStore 用外部存储替换默认的 SQLite 存储（测试用）。
func WithStore(st store.Store) AppBuilderOption {
	return func(b *AppBuilder) {
		b.storeFn = func(*alcfg.Config) (store.Store, error) { return st, nil }
	}
}

func (b *AppBuilder) Build() (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	st, err := b.storeFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}

	broker := alpaca.NewClient(alpaca.Config{
		BaseURL:   cfg.Broker.BaseURL,
		DataURL:   cfg.Broker.DataURL,
		APIKey:    cfg.Broker.APIKey,
		APISecret: cfg.Broker.APISecret,
		Timeout:   time.Duration(cfg.Broker.TimeoutSeconds) * time.Second,
	})

	barSource, err := b.barsFn(cfg, broker)
	if err != nil {
		return nil, err
	}

	newsSvc := news.NewService(news.Config{
		FeedURL:   cfg.News.FeedURL,
		MarketURL: cfg.News.MarketURL,
		Timeout:   time.Duration(cfg.News.TimeoutSeconds) * time.Second,
		MaxItems:  cfg.News.MaxItems,
	})

	prompts, err := promptkit.NewManager(cfg.Prompt.OverridesPath)
	if err != nil {
		return nil, fmt.Errorf("prompt manager init failed: %w", err)
	}

	model := &provider.OpenAIChatClient{
		BaseURL:    cfg.AI.APIURL,
		APIKey:     cfg.AI.APIKey,
		Model:      cfg.AI.Model,
		Timeout:    time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.AI.MaxRetries,
	}
	engine := decision.NewEngine(model, prompts, cfg.Loop.MaxConcurrency)

	var decisionLogs *decisionlog.Store
	if cfg.Store.DecisionLogPath != "" {
		decisionLogs, err = decisionlog.New(cfg.Store.DecisionLogPath)
		if err != nil {
			st.Close()
			prompts.Close()
			return nil, fmt.Errorf("decision log init failed: %w", err)
		}
		engine.SetObserver(decisionlog.NewObserver(decisionLogs))
	}

	dispatcher := dispatch.NewDispatcher(broker, cfg.Trading)

	reporter := report.NewReporter(report.Config{
		SMTP: report.SMTPConfig{
			Host:     cfg.Report.SMTPHost,
			Port:     cfg.Report.SMTPPort,
			Username: cfg.Report.Username,
			Password: cfg.Report.Password,
			From:     cfg.Report.From,
			To:       cfg.Report.To,
		},
		ArtifactDir: cfg.Report.ArtifactDir,
		DailyCron:   cfg.Report.DailyCron,
	}, st)

	runner := cycle.NewRunner(broker, barSource, newsSvc, engine, dispatcher, reporter, st, cycle.Options{
		Timeframe:      cfg.Market.Timeframe,
		LookbackHours:  cfg.Market.LookbackHours,
		HistoryLimit:   cfg.Store.HistoryLimit,
		MaxConcurrency: cfg.Loop.MaxConcurrency,
		MarketTimeout:  time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
		NewsTimeout:    time.Duration(cfg.News.TimeoutSeconds) * time.Second,
	})

	supervisor := agent.NewSupervisor(runner, agent.Options{
		Interval:         time.Duration(cfg.Loop.IntervalSeconds) * time.Second,
		Cooldown:         time.Duration(cfg.Loop.CooldownSeconds) * time.Second,
		BreakerThreshold: cfg.Loop.BreakerThreshold,
		BreakerTimeout:   time.Duration(cfg.Loop.BreakerTimeoutS) * time.Second,
	})

	var logReader loophttp.DecisionLogReader
	if decisionLogs != nil {
		logReader = decisionLogs
	}
	httpSrv, err := loophttp.NewServer(cfg.App.HTTPAddr, supervisor, logReader)
	if err != nil {
		return nil, fmt.Errorf("http server init failed: %w", err)
	}

	return &App{
		cfg:          cfg,
		store:        st,
		decisionLogs: decisionLogs,
		prompts:      prompts,
		reporter:     reporter,
		supervisor:   supervisor,
		httpSrv:      httpSrv,
	}, nil
}

func buildStore(cfg *alcfg.Config) (store.Store, error) {
	return gormstore.NewGormStore(cfg.Store.SQLitePath)
}

// buildBarSource 按配置选行情后端；alpaca 复用交易网关的行情接口。
func buildBarSource(cfg *alcfg.Config, broker *alpaca.Client) (cycle.BarSource, error) {
	switch cfg.Market.Vendor {
	case "alpaca":
		return broker, nil
	case "binance":
		return binance.New(time.Duration(cfg.Market.TimeoutSeconds) * time.Second), nil
	default:
		return nil, fmt.Errorf("unsupported market vendor: %s", cfg.Market.Vendor)
	}
}
