package engine

import (
	"sort"

	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

// Matcher T0 配对计算器。
// 配对采用到达顺序的贪心扫描，不做价格/时间最优撮合；
// 换用其他撮合策略会改变已实现盈亏口径，属于策略选择而非缺陷。
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher 创建 T0 配对计算器
func NewMatcher(logger *zap.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// lot 剩余未配对的成交批次
type lot struct {
	volume int64
	price  float64
}

// CalculateT0 根据成交记录计算 T0 仓位。
// 每个仓位键内按成交时间排序，买卖两列表双指针贪心配对。
func (m *Matcher) CalculateT0(trades []*models.Trade) map[models.PositionKey]*models.T0Position {
	groups := make(map[models.PositionKey][]*models.Trade)
	for _, trade := range trades {
		key := trade.Key()
		groups[key] = append(groups[key], trade)
	}

	result := make(map[models.PositionKey]*models.T0Position, len(groups))
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].TradeTime.Before(group[j].TradeTime)
		})

		t0 := &models.T0Position{
			StockCode: key.StockCode,
			AccountID: key.AccountID,
			Strategy:  key.Strategy,
		}

		var buys, sells []lot
		var buyAmount, sellAmount float64
		for _, trade := range group {
			switch trade.Direction {
			case models.DirectionBuy:
				buys = append(buys, lot{volume: trade.Volume, price: trade.Price})
				t0.T0BuyVolume += trade.Volume
				buyAmount += trade.Price * float64(trade.Volume)
			case models.DirectionSell:
				sells = append(sells, lot{volume: trade.Volume, price: trade.Price})
				t0.T0SellVolume += trade.Volume
				sellAmount += trade.Price * float64(trade.Volume)
			}
		}

		t0.T0Completed, t0.T0Profit = matchLots(buys, sells)
		t0.T0Pending = abs64(t0.T0BuyVolume - t0.T0SellVolume)
		if t0.T0BuyVolume > 0 {
			t0.AvgBuyPrice = buyAmount / float64(t0.T0BuyVolume)
		}
		if t0.T0SellVolume > 0 {
			t0.AvgSellPrice = sellAmount / float64(t0.T0SellVolume)
		}

		result[key] = t0
	}

	return result
}

// CalculateT0FromOrders 没有确认成交时的降级口径：
// 只用委托数量估算配对完成量，不产生盈亏数字。
func (m *Matcher) CalculateT0FromOrders(orders []*models.Order) map[models.PositionKey]*models.T0Position {
	result := make(map[models.PositionKey]*models.T0Position)
	for _, order := range orders {
		key := models.PositionKey{
			StockCode: order.StockCode,
			AccountID: order.AccountID,
			Strategy:  order.StrategyOrDefault(),
		}
		t0, ok := result[key]
		if !ok {
			t0 = &models.T0Position{
				StockCode: key.StockCode,
				AccountID: key.AccountID,
				Strategy:  key.Strategy,
			}
			result[key] = t0
		}

		switch directionOrBuy(order) {
		case models.DirectionBuy:
			t0.T0BuyVolume += order.ParsedVolume()
		case models.DirectionSell:
			t0.T0SellVolume += order.ParsedVolume()
		}
	}

	for _, t0 := range result {
		t0.T0Completed = min64(t0.T0BuyVolume, t0.T0SellVolume)
		t0.T0Pending = abs64(t0.T0BuyVolume - t0.T0SellVolume)
	}

	return result
}

// matchLots 双指针贪心配对：每次撮合两队头部的较小剩余量，
// 盈亏 = (卖出价 - 买入价) × 配对数量，任一侧耗尽即结束。
func matchLots(buys, sells []lot) (completed int64, profit float64) {
	buyIdx, sellIdx := 0, 0

	for buyIdx < len(buys) && sellIdx < len(sells) {
		buy := &buys[buyIdx]
		sell := &sells[sellIdx]

		volume := min64(buy.volume, sell.volume)
		if volume <= 0 {
			break
		}

		profit += (sell.price - buy.price) * float64(volume)
		completed += volume
		buy.volume -= volume
		sell.volume -= volume

		if buy.volume == 0 {
			buyIdx++
		}
		if sell.volume == 0 {
			sellIdx++
		}
	}

	return completed, profit
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
