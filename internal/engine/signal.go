package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

// Generator T0 信号生成器。
// 每次调用只依赖传入的仓位与价格，无跨调用历史，也不做去重；
// 相同输入总是产生相同且顺序一致的信号序列。
// 信号仅供人工参考，不校验价格是否为 0：零价格作为数据质量标记原样透传。
type Generator struct {
	conf   config.T0Conf
	logger *zap.Logger

	// 测试中可替换的时间源
	now func() time.Time
}

// NewGenerator 创建信号生成器
func NewGenerator(conf config.T0Conf, logger *zap.Logger) *Generator {
	return &Generator{
		conf:   conf,
		logger: logger,
		now:    time.Now,
	}
}

// SignalSummary 信号摘要
type SignalSummary struct {
	TotalSignals    int   `json:"total_signals"`
	BuySignals      int   `json:"buy_signals"`
	SellSignals     int   `json:"sell_signals"`
	TotalBuyVolume  int64 `json:"total_buy_volume"`
	TotalSellVolume int64 `json:"total_sell_volume"`
}

// GenerateSignals 生成 T0 交易信号。
// 每个仓位键独立应用两条规则：待完成配对回补（优先级 2）、底仓做 T（优先级 3）。
// 输出按优先级升序稳定排序。
func (g *Generator) GenerateSignals(
	t0Positions map[models.PositionKey]*models.T0Position,
	prices map[string]float64,
	basePositions map[models.PositionKey]*models.Position,
) []*models.T0Signal {
	createdAt := g.now()

	keys := make([]models.PositionKey, 0, len(t0Positions))
	for key := range t0Positions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	var signals []*models.T0Signal
	for _, key := range keys {
		t0 := t0Positions[key]
		currentPrice := prices[t0.StockCode]

		if signal := g.pairingSignal(t0, currentPrice, createdAt); signal != nil {
			signals = append(signals, signal)
		}
		if base, ok := basePositions[key]; ok {
			if signal := g.rotationSignal(t0, base, currentPrice, createdAt); signal != nil {
				signals = append(signals, signal)
			}
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Priority < signals[j].Priority
	})

	return signals
}

// pairingSignal 规则一：T0 买卖未配平时生成回补信号。
// 买多于卖需要卖出配平，卖多于买需要买入回补。
func (g *Generator) pairingSignal(t0 *models.T0Position, currentPrice float64, createdAt time.Time) *models.T0Signal {
	if t0.T0Pending <= 0 {
		return nil
	}

	if t0.T0BuyVolume > t0.T0SellVolume {
		return &models.T0Signal{
			StockCode:    t0.StockCode,
			AccountID:    t0.AccountID,
			Strategy:     t0.Strategy,
			SignalType:   models.SignalTypeSell,
			TargetVolume: t0.T0Pending,
			TargetPrice:  currentPrice * (1 + g.conf.SellPremium),
			Reason:       fmt.Sprintf("T0 待完成：买入%d > 卖出%d", t0.T0BuyVolume, t0.T0SellVolume),
			Priority:     models.SignalPriorityPairing,
			CreatedAt:    createdAt,
		}
	}
	return &models.T0Signal{
		StockCode:    t0.StockCode,
		AccountID:    t0.AccountID,
		Strategy:     t0.Strategy,
		SignalType:   models.SignalTypeBuy,
		TargetVolume: t0.T0Pending,
		TargetPrice:  currentPrice * (1 - g.conf.BuyDiscount),
		Reason:       fmt.Sprintf("T0 待完成：卖出%d > 买入%d", t0.T0SellVolume, t0.T0BuyVolume),
		Priority:     models.SignalPriorityPairing,
		CreatedAt:    createdAt,
	}
}

// rotationSignal 规则二：底仓做 T。
// 可做 T 数量 = 底仓可用数量 - 当日已 T0 买入数量，
// 目标数量受底仓比例上限和单次 1000 股上限约束，不足最小数量时不出信号。
func (g *Generator) rotationSignal(t0 *models.T0Position, base *models.Position, currentPrice float64, createdAt time.Time) *models.T0Signal {
	availableForT0 := base.AvailableVolume - t0.T0BuyVolume
	if availableForT0 < g.conf.MinT0Volume {
		return nil
	}

	target := availableForT0
	if ratioCap := int64(float64(base.TotalVolume) * g.conf.MaxT0Ratio); ratioCap < target {
		target = ratioCap
	}
	if target > 1000 {
		target = 1000
	}
	if target < g.conf.MinT0Volume {
		return nil
	}

	return &models.T0Signal{
		StockCode:    t0.StockCode,
		AccountID:    t0.AccountID,
		Strategy:     t0.Strategy,
		SignalType:   models.SignalTypeSell,
		TargetVolume: target,
		TargetPrice:  currentPrice * (1 + g.conf.SellPremium),
		Reason:       fmt.Sprintf("底仓做 T：可用%d股", availableForT0),
		Priority:     models.SignalPriorityRotation,
		CreatedAt:    createdAt,
	}
}

// Summarize 汇总信号
func (g *Generator) Summarize(signals []*models.T0Signal) SignalSummary {
	var summary SignalSummary
	summary.TotalSignals = len(signals)
	for _, signal := range signals {
		switch signal.SignalType {
		case models.SignalTypeBuy:
			summary.BuySignals++
			summary.TotalBuyVolume += signal.TargetVolume
		case models.SignalTypeSell:
			summary.SellSignals++
			summary.TotalSellVolume += signal.TargetVolume
		}
	}
	return summary
}
