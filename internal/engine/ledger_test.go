package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

func testKey(code string) models.PositionKey {
	return models.PositionKey{StockCode: code, AccountID: "1001", Strategy: "DEFAULT"}
}

func buyTrade(code string, volume int64, price float64, at time.Time) *models.Trade {
	return &models.Trade{
		StockCode: code, AccountID: "1001", Strategy: "DEFAULT",
		Direction: models.DirectionBuy, Volume: volume, Price: price, TradeTime: at,
	}
}

func sellTrade(code string, volume int64, price float64, at time.Time) *models.Trade {
	return &models.Trade{
		StockCode: code, AccountID: "1001", Strategy: "DEFAULT",
		Direction: models.DirectionSell, Volume: volume, Price: price, TradeTime: at,
	}
}

func buyOrder(code, volume string) *models.Order {
	return &models.Order{
		OrderType: "23", PriceType: "18", StockCode: code,
		Volume: volume, AccountID: "1001",
	}
}

func sellOrder(code, volume string) *models.Order {
	return &models.Order{
		OrderType: "24", PriceType: "19", StockCode: code,
		Volume: volume, AccountID: "1001",
	}
}

func TestLedger_BuyTradeDerivesMetrics(t *testing.T) {
	ledger := NewLedger(zap.NewNop())
	now := time.Now()

	positions := ledger.Calculate(nil,
		[]*models.Trade{buyTrade("600000", 1000, 10, now)},
		map[string]float64{"600000": 12})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(1000), pos.TotalVolume)
	assert.InDelta(t, 10, pos.AvgCost, 1e-9)
	assert.InDelta(t, 12000, pos.MarketValue, 1e-9)
	assert.InDelta(t, 2000, pos.ProfitLoss, 1e-9)
	assert.InDelta(t, 0.2, pos.ProfitLossRatio, 1e-9)
}

func TestLedger_WeightedAverageCost(t *testing.T) {
	ledger := NewLedger(zap.NewNop())
	now := time.Now()

	positions := ledger.Calculate(nil, []*models.Trade{
		buyTrade("600000", 100, 10, now),
		buyTrade("600000", 100, 20, now.Add(time.Minute)),
	}, map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(200), pos.TotalVolume)
	assert.InDelta(t, 15, pos.AvgCost, 1e-9)
}

func TestLedger_TradesAppliedInTimeOrder(t *testing.T) {
	ledger := NewLedger(zap.NewNop())
	now := time.Now()

	// 记录乱序给入，卖出发生在买入之后，不应被截断
	positions := ledger.Calculate(nil, []*models.Trade{
		sellTrade("600000", 400, 10.5, now.Add(time.Hour)),
		buyTrade("600000", 1000, 10, now),
	}, map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(600), pos.TotalVolume)
}

func TestLedger_OversellClampsToZero(t *testing.T) {
	ledger := NewLedger(zap.NewNop())
	now := time.Now()

	positions := ledger.Calculate(nil, []*models.Trade{
		buyTrade("600000", 100, 10, now),
		sellTrade("600000", 500, 10, now.Add(time.Minute)),
	}, map[string]float64{"600000": 11})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(0), pos.TotalVolume)
	assert.InDelta(t, 0, pos.MarketValue, 1e-9)
	assert.InDelta(t, 0, pos.ProfitLoss, 1e-9)
}

func TestLedger_OrdersFreezeVolume(t *testing.T) {
	ledger := NewLedger(zap.NewNop())
	now := time.Now()

	positions := ledger.Calculate(
		[]*models.Order{sellOrder("600000", "300")},
		[]*models.Trade{buyTrade("600000", 1000, 10, now)},
		map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(300), pos.FrozenVolume)
	assert.Equal(t, int64(700), pos.AvailableVolume)
}

func TestLedger_AvailableVolumeNeverNegative(t *testing.T) {
	ledger := NewLedger(zap.NewNop())
	now := time.Now()

	positions := ledger.Calculate(
		[]*models.Order{sellOrder("600000", "2000")},
		[]*models.Trade{buyTrade("600000", 1000, 10, now)},
		map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(0), pos.AvailableVolume)
}

func TestLedger_EstimateFromOrdersWhenNoTrades(t *testing.T) {
	ledger := NewLedger(zap.NewNop())

	positions := ledger.Calculate([]*models.Order{
		buyOrder("600000", "800"),
		sellOrder("600000", "300"),
	}, nil, map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(500), pos.TotalVolume)
	assert.Equal(t, int64(800), pos.BuyVolume)
	assert.Equal(t, int64(300), pos.SellVolume)
}

func TestLedger_NetSellOrdersEstimateZero(t *testing.T) {
	ledger := NewLedger(zap.NewNop())

	positions := ledger.Calculate([]*models.Order{
		buyOrder("600000", "200"),
		sellOrder("600000", "500"),
	}, nil, map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(0), pos.TotalVolume)
}

func TestLedger_UnknownDirectionCountsAsBuy(t *testing.T) {
	ledger := NewLedger(zap.NewNop())

	order := buyOrder("600000", "100")
	order.PriceType = "M1" // 市价类委托，数据字典未定义方向

	positions := ledger.Calculate([]*models.Order{order}, nil, map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.Equal(t, int64(100), pos.BuyVolume)
	assert.Equal(t, int64(100), pos.TotalVolume)
}

func TestLedger_MissingPriceTreatedAsZero(t *testing.T) {
	ledger := NewLedger(zap.NewNop())
	now := time.Now()

	positions := ledger.Calculate(nil,
		[]*models.Trade{buyTrade("600000", 1000, 10, now)},
		map[string]float64{})

	pos := positions[testKey("600000")]
	require.NotNil(t, pos)
	assert.InDelta(t, 0, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 0, pos.MarketValue, 1e-9)
}
