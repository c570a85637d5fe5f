package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

func testT0Conf() config.T0Conf {
	return config.T0Conf{
		SellPremium: 0.002,
		BuyDiscount: 0.002,
		MinT0Volume: 100,
		MaxT0Ratio:  0.5,
	}
}

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	g := NewGenerator(testT0Conf(), zap.NewNop())
	fixed := time.Date(2026, 8, 21, 10, 30, 0, 0, time.Local)
	g.now = func() time.Time { return fixed }
	return g
}

func t0Position(code string, buyVolume, sellVolume int64) *models.T0Position {
	return &models.T0Position{
		StockCode: code, AccountID: "1001", Strategy: "DEFAULT",
		T0BuyVolume: buyVolume, T0SellVolume: sellVolume,
		T0Pending: abs64(buyVolume - sellVolume),
	}
}

func TestGenerator_PairingSellSignal(t *testing.T) {
	g := testGenerator(t)

	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{
			testKey("600000"): t0Position("600000", 800, 400),
		},
		map[string]float64{"600000": 10.5},
		nil)

	require.Len(t, signals, 1)
	signal := signals[0]
	assert.Equal(t, models.SignalTypeSell, signal.SignalType)
	assert.Equal(t, int64(400), signal.TargetVolume)
	assert.InDelta(t, 10.5*1.002, signal.TargetPrice, 1e-9)
	assert.Equal(t, models.SignalPriorityPairing, signal.Priority)
}

func TestGenerator_PairingBuySignal(t *testing.T) {
	g := testGenerator(t)

	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{
			testKey("600000"): t0Position("600000", 200, 600),
		},
		map[string]float64{"600000": 10},
		nil)

	require.Len(t, signals, 1)
	signal := signals[0]
	assert.Equal(t, models.SignalTypeBuy, signal.SignalType)
	assert.Equal(t, int64(400), signal.TargetVolume)
	assert.InDelta(t, 10*0.998, signal.TargetPrice, 1e-9)
}

func TestGenerator_NoPairingWhenBalanced(t *testing.T) {
	g := testGenerator(t)

	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{
			testKey("600000"): t0Position("600000", 500, 500),
		},
		map[string]float64{"600000": 10},
		nil)

	assert.Empty(t, signals)
}

func TestGenerator_RotationSignal(t *testing.T) {
	g := testGenerator(t)

	base := &models.Position{
		StockCode: "600000", AccountID: "1001", Strategy: "DEFAULT",
		TotalVolume: 2000, AvailableVolume: 2000,
	}
	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{
			testKey("600000"): t0Position("600000", 0, 0),
		},
		map[string]float64{"600000": 10},
		map[models.PositionKey]*models.Position{testKey("600000"): base})

	require.Len(t, signals, 1)
	signal := signals[0]
	assert.Equal(t, models.SignalTypeSell, signal.SignalType)
	// 可用 2000，底仓比例上限 1000，单次上限 1000
	assert.Equal(t, int64(1000), signal.TargetVolume)
	assert.Equal(t, models.SignalPriorityRotation, signal.Priority)
}

func TestGenerator_RotationRespectsRatioCap(t *testing.T) {
	g := testGenerator(t)

	base := &models.Position{
		StockCode: "600000", AccountID: "1001", Strategy: "DEFAULT",
		TotalVolume: 600, AvailableVolume: 600,
	}
	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{
			testKey("600000"): t0Position("600000", 0, 0),
		},
		map[string]float64{"600000": 10},
		map[models.PositionKey]*models.Position{testKey("600000"): base})

	require.Len(t, signals, 1)
	assert.Equal(t, int64(300), signals[0].TargetVolume)
}

func TestGenerator_RotationDeductsTodayBuys(t *testing.T) {
	g := testGenerator(t)

	base := &models.Position{
		StockCode: "600000", AccountID: "1001", Strategy: "DEFAULT",
		TotalVolume: 2000, AvailableVolume: 500,
	}
	t0 := t0Position("600000", 450, 450)
	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{testKey("600000"): t0},
		map[string]float64{"600000": 10},
		map[models.PositionKey]*models.Position{testKey("600000"): base})

	// 可做 T 数量 = 500 - 450 = 50，低于最小数量
	assert.Empty(t, signals)
}

func TestGenerator_SignalsSortedByPriority(t *testing.T) {
	g := testGenerator(t)

	base := &models.Position{
		StockCode: "600519", AccountID: "1001", Strategy: "DEFAULT",
		TotalVolume: 2000, AvailableVolume: 2000,
	}
	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{
			testKey("600519"): t0Position("600519", 0, 0),
			testKey("600000"): t0Position("600000", 800, 400),
		},
		map[string]float64{"600000": 10, "600519": 1800},
		map[models.PositionKey]*models.Position{testKey("600519"): base})

	require.Len(t, signals, 2)
	assert.Equal(t, models.SignalPriorityPairing, signals[0].Priority)
	assert.Equal(t, models.SignalPriorityRotation, signals[1].Priority)
}

func TestGenerator_ZeroPricePassesThrough(t *testing.T) {
	g := testGenerator(t)

	signals := g.GenerateSignals(
		map[models.PositionKey]*models.T0Position{
			testKey("600000"): t0Position("600000", 800, 400),
		},
		map[string]float64{},
		nil)

	require.Len(t, signals, 1)
	assert.InDelta(t, 0, signals[0].TargetPrice, 1e-9)
}

func TestGenerator_Deterministic(t *testing.T) {
	g := testGenerator(t)

	t0s := map[models.PositionKey]*models.T0Position{
		testKey("600000"): t0Position("600000", 800, 400),
		testKey("600519"): t0Position("600519", 100, 300),
		testKey("000001"): t0Position("000001", 500, 200),
	}
	prices := map[string]float64{"600000": 10, "600519": 1800, "000001": 12}

	first := g.GenerateSignals(t0s, prices, nil)
	second := g.GenerateSignals(t0s, prices, nil)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, *first[i], *second[i])
	}
}

func TestGenerator_Summarize(t *testing.T) {
	g := testGenerator(t)

	summary := g.Summarize([]*models.T0Signal{
		{SignalType: models.SignalTypeBuy, TargetVolume: 400},
		{SignalType: models.SignalTypeSell, TargetVolume: 300},
		{SignalType: models.SignalTypeSell, TargetVolume: 1000},
	})

	assert.Equal(t, 3, summary.TotalSignals)
	assert.Equal(t, 1, summary.BuySignals)
	assert.Equal(t, 2, summary.SellSignals)
	assert.Equal(t, int64(400), summary.TotalBuyVolume)
	assert.Equal(t, int64(1300), summary.TotalSellVolume)
}
