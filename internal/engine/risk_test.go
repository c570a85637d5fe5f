package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

func testRiskConf() config.RiskConf {
	return config.RiskConf{
		MaxTotalPosition:    10_000_000,
		MaxSingleStockRatio: 0.2,
		StopLossRatio:       -0.05,
		TakeProfitRatio:     0.1,
	}
}

func positionWith(code string, marketValue, plRatio float64) *models.Position {
	return &models.Position{
		StockCode: code, AccountID: "1001", Strategy: "DEFAULT",
		TotalVolume: 1000, MarketValue: marketValue, ProfitLossRatio: plRatio,
	}
}

func asMap(positions ...*models.Position) map[models.PositionKey]*models.Position {
	m := make(map[models.PositionKey]*models.Position)
	for _, pos := range positions {
		m[models.PositionKey{StockCode: pos.StockCode, AccountID: pos.AccountID, Strategy: pos.Strategy}] = pos
	}
	return m
}

func TestEvaluator_TotalPositionWarning(t *testing.T) {
	evaluator := NewEvaluator(testRiskConf(), zap.NewNop())

	// 8.5M 在 80% 与 100% 之间：只有 WARNING，没有 ERROR
	alerts := evaluator.Check(asMap(
		positionWith("600000", 1_500_000, 0),
		positionWith("600519", 1_500_000, 0),
		positionWith("000001", 1_500_000, 0),
		positionWith("000002", 1_500_000, 0),
		positionWith("000063", 1_500_000, 0),
		positionWith("002415", 1_000_000, 0),
	))

	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertLevelWarning, alerts[0].Level)
	assert.Equal(t, models.AlertCodeTotalPositionHigh, alerts[0].Code)
	assert.Equal(t, models.RiskStatusOK, evaluator.Summarize(alerts).Status)
}

func TestEvaluator_TotalPositionExceeded(t *testing.T) {
	evaluator := NewEvaluator(testRiskConf(), zap.NewNop())

	positions := asMap(
		positionWith("600000", 2_000_000, 0),
		positionWith("600519", 2_000_000, 0),
		positionWith("000001", 2_000_000, 0),
		positionWith("000002", 2_000_000, 0),
		positionWith("000063", 2_000_000, 0),
		positionWith("002415", 1_000_000, 0),
	)
	alerts := evaluator.Check(positions)

	var codes []string
	for _, alert := range alerts {
		codes = append(codes, alert.Code)
	}
	// 超限和较高不叠加
	assert.Contains(t, codes, models.AlertCodeTotalPositionExceeded)
	assert.NotContains(t, codes, models.AlertCodeTotalPositionHigh)
	assert.Equal(t, models.RiskStatusRisk, evaluator.Summarize(alerts).Status)
}

func TestEvaluator_ThresholdsAreStrict(t *testing.T) {
	conf := testRiskConf()
	conf.MaxTotalPosition = 1_000_000
	evaluator := NewEvaluator(conf, zap.NewNop())

	// 恰好等于限额或 80% 水位线时不告警
	alerts := evaluator.Check(asMap(positionWith("600000", 800_000, 0)))
	assert.Empty(t, alerts)

	alerts = evaluator.Check(asMap(
		positionWith("600000", 150_000, 0),
		positionWith("600519", 150_000, 0),
		positionWith("000001", 150_000, 0),
		positionWith("000002", 150_000, 0),
		positionWith("000063", 150_000, 0),
		positionWith("002415", 150_000, 0),
		positionWith("300750", 100_000, 0),
	))
	// 总计恰好 1,000,000
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertLevelWarning, alerts[0].Level)
}

func TestEvaluator_ConcentrationPerStock(t *testing.T) {
	evaluator := NewEvaluator(testRiskConf(), zap.NewNop())

	// A 占 25%，其余各占 15%，只有 A 超过 20%
	alerts := evaluator.Check(asMap(
		positionWith("600000", 250_000, 0),
		positionWith("600519", 150_000, 0),
		positionWith("000001", 150_000, 0),
		positionWith("000002", 150_000, 0),
		positionWith("000063", 150_000, 0),
		positionWith("002415", 150_000, 0),
	))

	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertLevelError, alerts[0].Level)
	assert.Equal(t, models.AlertCodeConcentrationExceeded, alerts[0].Code)
	assert.Equal(t, "600000", alerts[0].StockCode)
}

func TestEvaluator_ConcentrationAggregatesAccounts(t *testing.T) {
	evaluator := NewEvaluator(testRiskConf(), zap.NewNop())

	// 同一证券在两个策略下的市值合并计算集中度
	a := positionWith("600000", 150_000, 0)
	b := positionWith("600000", 150_000, 0)
	b.Strategy = "T0"
	alerts := evaluator.Check(asMap(
		a, b,
		positionWith("600519", 700_000, 0),
	))

	var offenders []string
	for _, alert := range alerts {
		if alert.Code == models.AlertCodeConcentrationExceeded {
			offenders = append(offenders, alert.StockCode)
		}
	}
	assert.Contains(t, offenders, "600000")
}

func TestEvaluator_StopLossAndTakeProfit(t *testing.T) {
	evaluator := NewEvaluator(testRiskConf(), zap.NewNop())

	// 六只等权仓位，集中度均低于 20%，只验证盈亏检查
	alerts := evaluator.Check(asMap(
		positionWith("600000", 100_000, -0.06),
		positionWith("600519", 100_000, 0.12),
		positionWith("000001", 100_000, -0.05), // 恰好等于止损线，不触发
		positionWith("000002", 100_000, 0.02),
		positionWith("000063", 100_000, 0),
		positionWith("002415", 100_000, 0),
	))

	require.Len(t, alerts, 2)
	byCode := make(map[string]*models.RiskAlert)
	for _, alert := range alerts {
		byCode[alert.Code] = alert
	}
	require.Contains(t, byCode, models.AlertCodeStopLoss)
	assert.Equal(t, models.AlertLevelWarning, byCode[models.AlertCodeStopLoss].Level)
	assert.Equal(t, "600000", byCode[models.AlertCodeStopLoss].StockCode)
	require.Contains(t, byCode, models.AlertCodeTakeProfit)
	assert.Equal(t, models.AlertLevelInfo, byCode[models.AlertCodeTakeProfit].Level)
}

func TestEvaluator_EmptyPositions(t *testing.T) {
	evaluator := NewEvaluator(testRiskConf(), zap.NewNop())

	alerts := evaluator.Check(nil)
	assert.Empty(t, alerts)

	summary := evaluator.Summarize(alerts)
	assert.Equal(t, models.RiskStatusOK, summary.Status)
	assert.Zero(t, summary.TotalAlerts)
}

func TestEvaluator_SummarizeCounts(t *testing.T) {
	evaluator := NewEvaluator(testRiskConf(), zap.NewNop())

	summary := evaluator.Summarize([]*models.RiskAlert{
		{Level: models.AlertLevelError},
		{Level: models.AlertLevelWarning},
		{Level: models.AlertLevelWarning},
		{Level: models.AlertLevelInfo},
	})

	assert.Equal(t, 4, summary.TotalAlerts)
	assert.Equal(t, 1, summary.ErrorCount)
	assert.Equal(t, 2, summary.WarningCount)
	assert.Equal(t, 1, summary.InfoCount)
	assert.Equal(t, models.RiskStatusRisk, summary.Status)
}
