package engine

import (
	"context"
	"hash/fnv"
	"sort"

	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine 组合仓位计算、T0 配对、风险检查与信号生成的批量计算引擎。
// 单次 Run 对有限的记录集做一次完整重算，要么产出完整结果，要么返回错误，
// 不产生部分输出。各仓位键的计算互不读取对方状态，可按键分片并发后合并。
type Engine struct {
	ledger    *Ledger
	matcher   *Matcher
	evaluator *Evaluator
	generator *Generator
	workers   int
	logger    *zap.Logger
}

// NewEngine 创建计算引擎
func NewEngine(conf *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		ledger:    NewLedger(logger),
		matcher:   NewMatcher(logger),
		evaluator: NewEvaluator(conf.Risk, logger),
		generator: NewGenerator(conf.T0, logger),
		workers:   conf.Analysis.Workers,
		logger:    logger,
	}
}

// Input 单次批量计算的全部输入
type Input struct {
	Orders []*models.Order
	Trades []*models.Trade
	Prices map[string]float64
}

// PositionSummary 仓位摘要
type PositionSummary struct {
	TotalPositions   int     `json:"total_positions"`
	TotalMarketValue float64 `json:"total_market_value"`
	TotalProfitLoss  float64 `json:"total_profit_loss"`
	ProfitLossRatio  float64 `json:"profit_loss_ratio"`
}

// Result 单次批量计算的完整输出
type Result struct {
	Positions   map[models.PositionKey]*models.Position
	T0Positions map[models.PositionKey]*models.T0Position
	Alerts      []*models.RiskAlert
	Signals     []*models.T0Signal

	PositionSummary PositionSummary
	AlertSummary    AlertSummary
	SignalSummary   SignalSummary
}

// SortedPositions 按仓位键排序的仓位列表
func (r *Result) SortedPositions() []*models.Position {
	return sortedPositions(r.Positions)
}

// SortedT0Positions 按仓位键排序的 T0 仓位列表
func (r *Result) SortedT0Positions() []*models.T0Position {
	keys := make([]models.PositionKey, 0, len(r.T0Positions))
	for key := range r.T0Positions {
		keys = append(keys, key)
	}
	sortKeys(keys)

	result := make([]*models.T0Position, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.T0Positions[key])
	}
	return result
}

// Run 执行一次完整计算
func (e *Engine) Run(ctx context.Context, input Input) (*Result, error) {
	positions, t0Positions, err := e.compute(ctx, input)
	if err != nil {
		return nil, err
	}

	// T0 盈亏回填到仓位，底仓数量回填到 T0 仓位
	for key, t0 := range t0Positions {
		if pos, ok := positions[key]; ok {
			pos.T0Profit = t0.T0Profit
			t0.BaseVolume = pos.TotalVolume
		}
	}

	alerts := e.evaluator.Check(positions)
	signals := e.generator.GenerateSignals(t0Positions, input.Prices, positions)

	result := &Result{
		Positions:     positions,
		T0Positions:   t0Positions,
		Alerts:        alerts,
		Signals:       signals,
		AlertSummary:  e.evaluator.Summarize(alerts),
		SignalSummary: e.generator.Summarize(signals),
	}
	result.PositionSummary = summarizePositions(positions)

	e.logger.Info("analysis completed",
		zap.Int("orders", len(input.Orders)),
		zap.Int("trades", len(input.Trades)),
		zap.Int("positions", len(positions)),
		zap.Int("alerts", len(alerts)),
		zap.Int("signals", len(signals)),
		zap.String("risk_status", result.AlertSummary.Status))

	return result, nil
}

// compute 计算仓位与 T0 仓位，workers > 1 时按仓位键分片并发
func (e *Engine) compute(ctx context.Context, input Input) (
	map[models.PositionKey]*models.Position,
	map[models.PositionKey]*models.T0Position,
	error,
) {
	hasTrades := len(input.Trades) > 0

	if e.workers <= 1 {
		positions := e.ledger.Calculate(input.Orders, input.Trades, input.Prices)
		t0 := e.calculateT0(input, hasTrades)
		return positions, t0, nil
	}

	orderShards := make([][]*models.Order, e.workers)
	tradeShards := make([][]*models.Trade, e.workers)
	for _, order := range input.Orders {
		idx := shardIndex(order.StockCode, order.AccountID, order.StrategyOrDefault(), e.workers)
		orderShards[idx] = append(orderShards[idx], order)
	}
	for _, trade := range input.Trades {
		idx := shardIndex(trade.StockCode, trade.AccountID, trade.StrategyOrDefault(), e.workers)
		tradeShards[idx] = append(tradeShards[idx], trade)
	}

	positionResults := make([]map[models.PositionKey]*models.Position, e.workers)
	t0Results := make([]map[models.PositionKey]*models.T0Position, e.workers)

	group, _ := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		group.Go(func() error {
			positionResults[i] = e.ledger.calculate(orderShards[i], tradeShards[i], input.Prices, !hasTrades)
			if hasTrades {
				t0Results[i] = e.matcher.CalculateT0(tradeShards[i])
			} else {
				t0Results[i] = e.matcher.CalculateT0FromOrders(orderShards[i])
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	// 分片按键互斥，合并即简单并集
	positions := make(map[models.PositionKey]*models.Position)
	t0Positions := make(map[models.PositionKey]*models.T0Position)
	for i := 0; i < e.workers; i++ {
		for key, pos := range positionResults[i] {
			positions[key] = pos
		}
		for key, t0 := range t0Results[i] {
			t0Positions[key] = t0
		}
	}
	return positions, t0Positions, nil
}

func (e *Engine) calculateT0(input Input, hasTrades bool) map[models.PositionKey]*models.T0Position {
	if hasTrades {
		return e.matcher.CalculateT0(input.Trades)
	}
	return e.matcher.CalculateT0FromOrders(input.Orders)
}

func summarizePositions(positions map[models.PositionKey]*models.Position) PositionSummary {
	summary := PositionSummary{TotalPositions: len(positions)}
	for _, pos := range positions {
		summary.TotalMarketValue += pos.MarketValue
		summary.TotalProfitLoss += pos.ProfitLoss
	}
	if summary.TotalMarketValue > 0 {
		summary.ProfitLossRatio = summary.TotalProfitLoss / summary.TotalMarketValue
	}
	return summary
}

func sortKeys(keys []models.PositionKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

func shardIndex(stockCode, accountID, strategy string, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(stockCode))
	h.Write([]byte{0})
	h.Write([]byte(accountID))
	h.Write([]byte{0})
	h.Write([]byte(strategy))
	return int(h.Sum32() % uint32(workers))
}
