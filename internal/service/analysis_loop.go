package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/engine"
	"github.com/yxtlab/tzero/internal/models"
	"github.com/yxtlab/tzero/internal/telegram"
	"go.uber.org/zap"
)

// AnalysisLoop 定时计算调度器：按固定周期重新执行一次完整的持仓计算。
// 券商盘中会持续刷新委托/成交文件，定时重算让仓位与信号保持新鲜。
type AnalysisLoop struct {
	conf            config.AnalysisConf
	telegramConf    config.TelegramConf
	analysisService *AnalysisService
	reviewService   *ReviewService
	tg              *telegram.Telegram
	logger          *zap.Logger

	startTime time.Time
	iteration int
	isRunning bool
	stopChan  chan struct{}
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewAnalysisLoop 创建定时计算调度器
func NewAnalysisLoop(
	conf *config.Config,
	analysisService *AnalysisService,
	reviewService *ReviewService,
	tg *telegram.Telegram,
	logger *zap.Logger,
) *AnalysisLoop {
	return &AnalysisLoop{
		conf:            conf.Analysis,
		telegramConf:    conf.Telegram,
		analysisService: analysisService,
		reviewService:   reviewService,
		tg:              tg,
		logger:          logger,
		startTime:       time.Now(),
		iteration:       0,
		isRunning:       false,
		stopChan:        make(chan struct{}),
	}
}

// Start 启动定时计算，阻塞直到 Stop 或 ctx 取消
func (t *AnalysisLoop) Start(ctx context.Context) error {
	if t.isRunning {
		return fmt.Errorf("analysis loop is already running")
	}

	t.isRunning = true
	t.startTime = time.Now()
	t.ctx, t.cancel = context.WithCancel(ctx)

	// interval=0 表示只计算一次，不做周期性重算
	if t.conf.IntervalMinutes > 0 {
		// 生成 cron 表达式：每 N 分钟的整点执行
		// 例如 interval=10: "*/10 * * * *" 表示每小时的 0, 10, 20, 30, 40, 50 分执行
		cronExpr := fmt.Sprintf("*/%d * * * *", t.conf.IntervalMinutes)

		t.logger.Info("analysis loop started",
			zap.Int("interval_minutes", t.conf.IntervalMinutes),
			zap.String("cron_expression", cronExpr))

		t.cron = cron.New()

		_, err := t.cron.AddFunc(cronExpr, func() {
			if err := t.ExecuteCycle(context.Background()); err != nil {
				t.logger.Error("cycle execution failed", zap.Error(err))
			}
		})
		if err != nil {
			t.isRunning = false
			return fmt.Errorf("failed to add cron job: %w", err)
		}

		t.cron.Start()
	} else {
		t.logger.Info("analysis loop started in one-shot mode")
	}

	// 立即执行第一次
	go func() {
		if err := t.ExecuteCycle(context.Background()); err != nil {
			t.logger.Error("first cycle execution failed", zap.Error(err))
		}
	}()

	select {
	case <-t.stopChan:
		t.logger.Info("analysis loop stopped by user")
		return nil
	case <-ctx.Done():
		t.logger.Info("analysis loop stopped by context")
		return ctx.Err()
	}
}

// Stop 停止定时计算
func (t *AnalysisLoop) Stop() {
	if !t.isRunning {
		return
	}

	t.logger.Info("stopping analysis loop...")

	if t.cron != nil {
		ctx := t.cron.Stop()
		<-ctx.Done() // 等待所有任务完成
		t.logger.Info("cron scheduler stopped")
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.isRunning = false
	close(t.stopChan)
	t.logger.Info("analysis loop stopped")
}

// ExecuteCycle 执行一次完整的计算周期：计算、落库、通知、复盘
func (t *AnalysisLoop) ExecuteCycle(ctx context.Context) error {
	t.iteration++
	cycleStart := time.Now()

	t.logger.Info("========== ANALYSIS CYCLE START ==========",
		zap.Int("iteration", t.iteration),
		zap.Time("start_time", cycleStart))

	run, result, err := t.analysisService.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("analysis cycle failed: %w", err)
	}

	t.logger.Info("analysis cycle finished",
		zap.String("run_id", run.ID),
		zap.Int("positions", len(result.Positions)),
		zap.Int("alerts", len(result.Alerts)),
		zap.Int("signals", len(result.Signals)),
		zap.String("risk_status", result.AlertSummary.Status),
		zap.Duration("elapsed", time.Since(cycleStart)))

	if result.AlertSummary.Status == models.RiskStatusRisk {
		t.notifyRisk(run.ID, result)
	}

	if t.reviewService != nil && t.reviewService.Enabled() {
		review, err := t.reviewService.Review(ctx, result)
		if err != nil {
			t.logger.Error("failed to generate review", zap.Error(err))
		} else if review != "" {
			if err := t.analysisService.UpdateReview(ctx, run.ID, review); err != nil {
				t.logger.Error("failed to save review", zap.Error(err))
			}
		}
	}

	return nil
}

// notifyRisk 风险状态时向 Telegram 推送告警摘要
func (t *AnalysisLoop) notifyRisk(runId string, result *engine.Result) {
	if t.tg == nil || !t.telegramConf.Enabled {
		return
	}

	msg := fmt.Sprintf("*风险告警* (批次 %s)\n总市值 %.2f，总盈亏 %.2f\n",
		runId, result.PositionSummary.TotalMarketValue, result.PositionSummary.TotalProfitLoss)
	for _, alert := range result.Alerts {
		if alert.IsError() {
			msg += fmt.Sprintf("- %s\n", alert.Message)
		}
	}

	if err := t.tg.Notify(t.telegramConf.ChatID, msg); err != nil {
		t.logger.Error("failed to send telegram notification", zap.Error(err))
	}
}

// GetStatus 获取状态信息
func (t *AnalysisLoop) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"is_running":       t.isRunning,
		"iteration":        t.iteration,
		"start_time":       t.startTime,
		"elapsed_hours":    time.Since(t.startTime).Hours(),
		"interval_minutes": t.conf.IntervalMinutes,
	}
}
