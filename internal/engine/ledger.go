package engine

import (
	"sort"

	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

// Ledger 仓位计算器。
// 计算分三个独立阶段：成交折算持仓、委托折算冻结、推导市值与盈亏。
// 每次 Calculate 从零重建，无跨批次状态。
type Ledger struct {
	logger *zap.Logger
}

// NewLedger 创建仓位计算器
func NewLedger(logger *zap.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// Calculate 计算仓位。
// 有成交记录时以成交为准折算持仓；没有成交记录时用委托数量估算持仓。
// 价格表中缺失的证券按 0 处理。
func (l *Ledger) Calculate(
	orders []*models.Order,
	trades []*models.Trade,
	prices map[string]float64,
) map[models.PositionKey]*models.Position {
	return l.calculate(orders, trades, prices, len(trades) == 0)
}

// calculate 分片计算时由调用方传入全局的"无成交记录"标记，
// 避免某个分片恰好没有成交时误用委托估算口径。
func (l *Ledger) calculate(
	orders []*models.Order,
	trades []*models.Trade,
	prices map[string]float64,
	estimateFromOrders bool,
) map[models.PositionKey]*models.Position {
	positions := make(map[models.PositionKey]*models.Position)

	l.applyTrades(positions, trades)
	l.applyOrders(positions, orders)
	if estimateFromOrders {
		l.estimateFromOrders(positions)
	}
	l.deriveMetrics(positions, prices)

	return positions
}

// applyTrades 按时间顺序折算成交记录：
// 买入增加持仓并按量加权更新平均成本，卖出减少持仓，超卖静默截断为 0。
func (l *Ledger) applyTrades(positions map[models.PositionKey]*models.Position, trades []*models.Trade) {
	sorted := make([]*models.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeTime.Before(sorted[j].TradeTime)
	})

	for _, trade := range sorted {
		pos := l.ensurePosition(positions, trade.Key())

		switch trade.Direction {
		case models.DirectionBuy:
			totalCost := pos.AvgCost*float64(pos.TotalVolume) + trade.Price*float64(trade.Volume)
			pos.TotalVolume += trade.Volume
			if pos.TotalVolume > 0 {
				pos.AvgCost = totalCost / float64(pos.TotalVolume)
			} else {
				pos.AvgCost = 0
			}
		case models.DirectionSell:
			pos.TotalVolume -= trade.Volume
			if pos.TotalVolume < 0 {
				pos.TotalVolume = 0
			}
		}
	}
}

// applyOrders 折算委托记录，累计买卖委托数量和冻结数量。
// 买入委托冻结资金对应的数量，卖出委托冻结持仓，两者都计入冻结。
func (l *Ledger) applyOrders(positions map[models.PositionKey]*models.Position, orders []*models.Order) {
	for _, order := range orders {
		key := models.PositionKey{
			StockCode: order.StockCode,
			AccountID: order.AccountID,
			Strategy:  order.StrategyOrDefault(),
		}
		pos := l.ensurePosition(positions, key)
		volume := order.ParsedVolume()

		switch directionOrBuy(order) {
		case models.DirectionBuy:
			pos.BuyVolume += volume
			pos.FrozenVolume += volume
		case models.DirectionSell:
			pos.SellVolume += volume
			pos.FrozenVolume += volume
		}
	}
}

// estimateFromOrders 没有成交记录时，用委托数量估算持仓：
// 持仓 = 买入委托 - 卖出委托，仅在为正时记录。
func (l *Ledger) estimateFromOrders(positions map[models.PositionKey]*models.Position) {
	for _, pos := range positions {
		if net := pos.BuyVolume - pos.SellVolume; net > 0 {
			pos.TotalVolume = net
		}
	}
}

// deriveMetrics 推导市值、盈亏与可用数量。
// 所有除法都先检查分母为正，计算过程不会出现算术异常。
func (l *Ledger) deriveMetrics(positions map[models.PositionKey]*models.Position, prices map[string]float64) {
	for _, pos := range positions {
		pos.CurrentPrice = prices[pos.StockCode]
		pos.MarketValue = float64(pos.TotalVolume) * pos.CurrentPrice

		if pos.TotalVolume > 0 && pos.AvgCost > 0 {
			pos.ProfitLoss = (pos.CurrentPrice - pos.AvgCost) * float64(pos.TotalVolume)
			pos.ProfitLossRatio = pos.ProfitLoss / (pos.AvgCost * float64(pos.TotalVolume))
		}

		pos.AvailableVolume = pos.TotalVolume - pos.FrozenVolume
		if pos.AvailableVolume < 0 {
			pos.AvailableVolume = 0
		}
	}
}

func (l *Ledger) ensurePosition(positions map[models.PositionKey]*models.Position, key models.PositionKey) *models.Position {
	if pos, ok := positions[key]; ok {
		return pos
	}
	pos := &models.Position{
		StockCode: key.StockCode,
		AccountID: key.AccountID,
		Strategy:  key.Strategy,
	}
	positions[key] = pos
	return pos
}

// directionOrBuy 委托方向推断的统一降级策略：
// 未识别的委托价格类型按买入处理。这是整个引擎里唯一的降级点。
func directionOrBuy(order *models.Order) models.Direction {
	if d := order.Direction(); d != models.DirectionUnknown {
		return d
	}
	return models.DirectionBuy
}
