package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"alphaloop/internal/cycle"
	"alphaloop/internal/logger"
	"alphaloop/internal/store"
	"alphaloop/internal/types"
)

// 中文说明：
// 周期报告器。每轮生成 HTML 报告：先落盘为本地工件，再尝试邮件投递；
// 邮件失败不算报告失败。另带可选的每日绩效摘要定时任务。

type Config struct {
	SMTP        SMTPConfig
	ArtifactDir string
	DailyCron   string
}

type Reporter struct {
	cfg   Config
	store store.Store
	cron  *cron.Cron
}

func NewReporter(cfg Config, st store.Store) *Reporter {
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "reports"
	}
	return &Reporter{cfg: cfg, store: st}
}

// Publish 实现 cycle.Reporter。
func (r *Reporter) Publish(ctx context.Context, state *cycle.State) error {
	perf := r.performance(ctx)

	chartLink := ""
	if chart, err := renderPnLChart(state); err != nil {
		logger.Warnf("盈亏图渲染失败 trace_id=%s err=%v", state.TraceID, err)
	} else if len(chart) > 0 {
		name := fmt.Sprintf("cycle_%s_pnl.html", state.TraceID)
		if err := r.writeArtifact(name, chart); err != nil {
			logger.Warnf("盈亏图落盘失败 trace_id=%s err=%v", state.TraceID, err)
		} else {
			chartLink = name
		}
	}

	body, err := renderHTML(state, perf, chartLink)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("cycle_%s.html", state.TraceID)
	if err := r.writeArtifact(name, body); err != nil {
		return fmt.Errorf("report artifact write failed: %w", err)
	}
	state.ReportPath = filepath.Join(r.cfg.ArtifactDir, name)
	logger.Infof("周期报告已生成 path=%s", state.ReportPath)

	subject := fmt.Sprintf("Trading Report - %s", time.Now().Format("2006-01-02 15:04"))
	if err := sendHTMLMail(r.cfg.SMTP, subject, body); err != nil {
		logger.Warnf("报告邮件发送失败，保留本地工件 path=%s err=%v", state.ReportPath, err)
		return nil
	}
	state.EmailSent = true
	logger.Infof("报告邮件已发送 trace_id=%s", state.TraceID)
	return nil
}

// StartDailyDigest 启动每日绩效摘要任务。cron 表达式为空则不启动。
func (r *Reporter) StartDailyDigest() error {
	if r.cfg.DailyCron == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(r.cfg.DailyCron, func() {
		if err := r.sendDigest(context.Background()); err != nil {
			logger.Warnf("每日绩效摘要发送失败: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("daily digest cron invalid (%s): %w", r.cfg.DailyCron, err)
	}
	c.Start()
	r.cron = c
	logger.Infof("每日绩效摘要已启动 cron=%s", r.cfg.DailyCron)
	return nil
}

func (r *Reporter) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

func (r *Reporter) sendDigest(ctx context.Context) error {
	perf := r.performance(ctx)
	trades, err := r.store.RecentTrades(ctx, 20)
	if err != nil {
		logger.Warnf("近期交易读取失败: %v", err)
	}
	body, err := renderDigest(perf, trades)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("digest_%s.html", time.Now().Format("20060102"))
	if err := r.writeArtifact(name, body); err != nil {
		return err
	}
	subject := fmt.Sprintf("Daily Performance Digest - %s", time.Now().Format("2006-01-02"))
	if err := sendHTMLMail(r.cfg.SMTP, subject, body); err != nil {
		logger.Warnf("摘要邮件发送失败，保留本地工件 name=%s err=%v", name, err)
	}
	return nil
}

func (r *Reporter) performance(ctx context.Context) types.PerformanceSummary {
	perf, err := r.store.Performance(ctx)
	if err != nil || perf == nil {
		if err != nil {
			logger.Warnf("绩效汇总读取失败: %v", err)
		}
		return types.PerformanceSummary{}
	}
	return *perf
}

func (r *Reporter) writeArtifact(name string, body []byte) error {
	if err := os.MkdirAll(r.cfg.ArtifactDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.cfg.ArtifactDir, name), body, 0o644)
}
