package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/engine"
	"github.com/yxtlab/tzero/internal/feed"
	"github.com/yxtlab/tzero/internal/models"
	"github.com/yxtlab/tzero/internal/repo"
	"github.com/yxtlab/tzero/internal/report"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnalysisService 批量计算服务：读取数据源、执行引擎计算、落库并输出报告
type AnalysisService struct {
	logger *zap.Logger

	*orz.Service
	*repo.RunRepo

	positionRepo *repo.PositionRepo
	t0Repo       *repo.T0PositionRepo
	alertRepo    *repo.AlertRepo
	signalRepo   *repo.SignalRepo

	engine *engine.Engine
	conf   *config.Config
}

// NewAnalysisService 创建批量计算服务
func NewAnalysisService(db *gorm.DB, conf *config.Config, eng *engine.Engine, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		logger:       logger,
		Service:      orz.NewService(db),
		RunRepo:      repo.NewRunRepo(db),
		positionRepo: repo.NewPositionRepo(db),
		t0Repo:       repo.NewT0PositionRepo(db),
		alertRepo:    repo.NewAlertRepo(db),
		signalRepo:   repo.NewSignalRepo(db),
		engine:       eng,
		conf:         conf,
	}
}

// LoadInput 按配置加载委托、成交与价格数据。
// 委托文件必填，成交与价格文件缺省时相应计算走降级口径。
func (s *AnalysisService) LoadInput(ctx context.Context) (engine.Input, error) {
	var input engine.Input

	if s.conf.Feeds.OrderFile == "" {
		return input, fmt.Errorf("feeds.order_file is not configured")
	}

	orderFeed := feed.NewOrderFeed(s.conf.Feeds.OrderFile, s.logger)
	orders, err := orderFeed.Parse()
	if err != nil {
		return input, fmt.Errorf("failed to load orders: %w", err)
	}
	input.Orders = orders

	if s.conf.Feeds.TradeFile != "" {
		tradeFeed := feed.NewTradeFeed(s.conf.Feeds.TradeFile, s.logger)
		trades, err := tradeFeed.Parse()
		if err != nil {
			return input, fmt.Errorf("failed to load trades: %w", err)
		}
		input.Trades = trades
	}

	input.Prices = map[string]float64{}
	if s.conf.Feeds.PriceFile != "" {
		prices, err := feed.LoadPrices(s.conf.Feeds.PriceFile, s.logger)
		if err != nil {
			return input, fmt.Errorf("failed to load prices: %w", err)
		}
		input.Prices = prices
	}

	return input, nil
}

// RunOnce 执行一次完整计算：加载数据、计算、落库、输出报告文件
func (s *AnalysisService) RunOnce(ctx context.Context) (*models.AnalysisRun, *engine.Result, error) {
	startedAt := time.Now()

	input, err := s.LoadInput(ctx)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.engine.Run(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis failed: %w", err)
	}

	run, err := s.persist(ctx, input, result, startedAt)
	if err != nil {
		return nil, nil, err
	}

	if s.conf.Report.OutputDir != "" {
		sink := report.NewSink(s.conf.Report.OutputDir, s.logger)
		if err := sink.Write(result); err != nil {
			// 报告文件失败不影响已落库的计算结果
			s.logger.Error("failed to write report files", zap.Error(err))
		}
	}

	return run, result, nil
}

// persist 在单个事务内保存本次计算的全部输出
func (s *AnalysisService) persist(ctx context.Context, input engine.Input, result *engine.Result, startedAt time.Time) (*models.AnalysisRun, error) {
	summaryJSON, err := json.Marshal(map[string]any{
		"positions": result.PositionSummary,
		"alerts":    result.AlertSummary,
		"signals":   result.SignalSummary,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run summary: %w", err)
	}

	run := &models.AnalysisRun{
		ID:               ulid.Make().String(),
		OrderFile:        s.conf.Feeds.OrderFile,
		TradeFile:        s.conf.Feeds.TradeFile,
		OrderCount:       len(input.Orders),
		TradeCount:       len(input.Trades),
		PositionCount:    len(result.Positions),
		AlertCount:       len(result.Alerts),
		SignalCount:      len(result.Signals),
		TotalMarketValue: result.PositionSummary.TotalMarketValue,
		TotalProfitLoss:  result.PositionSummary.TotalProfitLoss,
		RiskStatus:       result.AlertSummary.Status,
		Summary:          summaryJSON,
		StartedAt:        startedAt,
		FinishedAt:       time.Now(),
	}

	err = s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.RunRepo.Create(ctx, run); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}

		for _, pos := range result.SortedPositions() {
			pos.ID = ulid.Make().String()
			pos.RunID = run.ID
			if err := s.positionRepo.Create(ctx, pos); err != nil {
				return fmt.Errorf("failed to create position: %w", err)
			}
		}
		for _, t0 := range result.SortedT0Positions() {
			t0.ID = ulid.Make().String()
			t0.RunID = run.ID
			if err := s.t0Repo.Create(ctx, t0); err != nil {
				return fmt.Errorf("failed to create t0 position: %w", err)
			}
		}
		for _, alert := range result.Alerts {
			alert.ID = ulid.Make().String()
			alert.RunID = run.ID
			if err := s.alertRepo.Create(ctx, alert); err != nil {
				return fmt.Errorf("failed to create alert: %w", err)
			}
		}
		for _, signal := range result.Signals {
			signal.ID = ulid.Make().String()
			signal.RunID = run.ID
			if err := s.signalRepo.Create(ctx, signal); err != nil {
				return fmt.Errorf("failed to create signal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return run, nil
}

// UpdateReview 把 LLM 复盘文字写回计算记录
func (s *AnalysisService) UpdateReview(ctx context.Context, runId, review string) error {
	db := s.RunRepo.GetDB(ctx)
	return db.Table(s.RunRepo.GetTableName()).
		Where("id = ?", runId).
		Update("review", review).Error
}

// RunDetail 指定批次的完整明细
type RunDetail struct {
	Run         models.AnalysisRun  `json:"run"`
	Positions   []models.Position   `json:"positions"`
	T0Positions []models.T0Position `json:"t0_positions"`
	Alerts      []models.RiskAlert  `json:"alerts"`
	Signals     []models.T0Signal   `json:"signals"`
}

// GetRunDetail 查询指定批次的完整结果
func (s *AnalysisService) GetRunDetail(ctx context.Context, runId string) (*RunDetail, error) {
	run, err := s.RunRepo.FindById(ctx, runId)
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Run: run}
	if detail.Positions, err = s.positionRepo.FindByRunId(ctx, runId); err != nil {
		return nil, err
	}
	if detail.T0Positions, err = s.t0Repo.FindByRunId(ctx, runId); err != nil {
		return nil, err
	}
	if detail.Alerts, err = s.alertRepo.FindByRunId(ctx, runId); err != nil {
		return nil, err
	}
	if detail.Signals, err = s.signalRepo.FindByRunId(ctx, runId); err != nil {
		return nil, err
	}
	return detail, nil
}
