package engine

import (
	"fmt"
	"sort"

	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

// Evaluator 风险检查器。
// 检查项按固定顺序全部执行，互不短路：
// 总仓位限额、单票集中度、盈亏止损止盈。
// 同一仓位可以同时触发多条告警。
type Evaluator struct {
	params config.RiskConf
	logger *zap.Logger
}

// NewEvaluator 创建风险检查器
func NewEvaluator(params config.RiskConf, logger *zap.Logger) *Evaluator {
	return &Evaluator{params: params, logger: logger}
}

// AlertSummary 告警摘要
type AlertSummary struct {
	TotalAlerts  int    `json:"total_alerts"`
	ErrorCount   int    `json:"error_count"`
	WarningCount int    `json:"warning_count"`
	InfoCount    int    `json:"info_count"`
	Status       string `json:"status"` // OK / RISK
}

// Check 执行风险检查，返回按检查顺序排列的告警列表
func (e *Evaluator) Check(positions map[models.PositionKey]*models.Position) []*models.RiskAlert {
	var alerts []*models.RiskAlert

	alerts = append(alerts, e.checkTotalPosition(positions)...)
	alerts = append(alerts, e.checkConcentration(positions)...)
	alerts = append(alerts, e.checkProfitLoss(positions)...)

	return alerts
}

// checkTotalPosition 检查总仓位。
// 超限为 ERROR，超过限额 80% 为 WARNING，两者不叠加。比较使用严格大于。
func (e *Evaluator) checkTotalPosition(positions map[models.PositionKey]*models.Position) []*models.RiskAlert {
	var totalValue float64
	for _, pos := range positions {
		totalValue += pos.MarketValue
	}
	maxLimit := e.params.MaxTotalPosition

	if totalValue > maxLimit {
		return []*models.RiskAlert{{
			Level:        models.AlertLevelError,
			Code:         models.AlertCodeTotalPositionExceeded,
			Message:      fmt.Sprintf("总仓位超限：%.2f > %.2f", totalValue, maxLimit),
			CurrentValue: totalValue,
			LimitValue:   maxLimit,
		}}
	}
	if totalValue > maxLimit*0.8 {
		return []*models.RiskAlert{{
			Level:        models.AlertLevelWarning,
			Code:         models.AlertCodeTotalPositionHigh,
			Message:      fmt.Sprintf("总仓位较高：%.2f / %.2f (%.1f%%)", totalValue, maxLimit, totalValue/maxLimit*100),
			CurrentValue: totalValue,
			LimitValue:   maxLimit,
		}}
	}
	return nil
}

// checkConcentration 检查单票集中度，每只超限股票一条 ERROR 告警
func (e *Evaluator) checkConcentration(positions map[models.PositionKey]*models.Position) []*models.RiskAlert {
	var totalValue float64
	stockValues := make(map[string]float64)
	for _, pos := range positions {
		totalValue += pos.MarketValue
		stockValues[pos.StockCode] += pos.MarketValue
	}
	if totalValue <= 0 {
		return nil
	}

	stocks := make([]string, 0, len(stockValues))
	for code := range stockValues {
		stocks = append(stocks, code)
	}
	sort.Strings(stocks)

	maxRatio := e.params.MaxSingleStockRatio
	var alerts []*models.RiskAlert
	for _, code := range stocks {
		ratio := stockValues[code] / totalValue
		if ratio > maxRatio {
			alerts = append(alerts, &models.RiskAlert{
				Level:        models.AlertLevelError,
				Code:         models.AlertCodeConcentrationExceeded,
				Message:      fmt.Sprintf("单票%s集中度过高：%.1f%% > %.1f%%", code, ratio*100, maxRatio*100),
				StockCode:    code,
				CurrentValue: ratio,
				LimitValue:   maxRatio,
			})
		}
	}
	return alerts
}

// checkProfitLoss 检查单仓盈亏：触及止损为 WARNING，触及止盈为 INFO
func (e *Evaluator) checkProfitLoss(positions map[models.PositionKey]*models.Position) []*models.RiskAlert {
	stopLoss := e.params.StopLossRatio
	takeProfit := e.params.TakeProfitRatio

	var alerts []*models.RiskAlert
	for _, pos := range sortedPositions(positions) {
		if pos.ProfitLossRatio < stopLoss {
			alerts = append(alerts, &models.RiskAlert{
				Level:        models.AlertLevelWarning,
				Code:         models.AlertCodeStopLoss,
				Message:      fmt.Sprintf("%s 触及止损线：%.2f%% < %.1f%%", pos.StockCode, pos.ProfitLossRatio*100, stopLoss*100),
				StockCode:    pos.StockCode,
				AccountID:    pos.AccountID,
				CurrentValue: pos.ProfitLossRatio,
				LimitValue:   stopLoss,
			})
		} else if pos.ProfitLossRatio > takeProfit {
			alerts = append(alerts, &models.RiskAlert{
				Level:        models.AlertLevelInfo,
				Code:         models.AlertCodeTakeProfit,
				Message:      fmt.Sprintf("%s 触及止盈线：%.2f%% > %.1f%%", pos.StockCode, pos.ProfitLossRatio*100, takeProfit*100),
				StockCode:    pos.StockCode,
				AccountID:    pos.AccountID,
				CurrentValue: pos.ProfitLossRatio,
				LimitValue:   takeProfit,
			})
		}
	}
	return alerts
}

// Summarize 汇总告警，存在任何 ERROR 时状态为 RISK
func (e *Evaluator) Summarize(alerts []*models.RiskAlert) AlertSummary {
	summary := AlertSummary{
		TotalAlerts: len(alerts),
		Status:      models.RiskStatusOK,
	}
	for _, alert := range alerts {
		switch alert.Level {
		case models.AlertLevelError:
			summary.ErrorCount++
		case models.AlertLevelWarning:
			summary.WarningCount++
		case models.AlertLevelInfo:
			summary.InfoCount++
		}
	}
	if summary.ErrorCount > 0 {
		summary.Status = models.RiskStatusRisk
	}
	return summary
}

// sortedPositions 按仓位键排序，保证重复计算输出稳定
func sortedPositions(positions map[models.PositionKey]*models.Position) []*models.Position {
	keys := make([]models.PositionKey, 0, len(positions))
	for key := range positions {
		keys = append(keys, key)
	}
	sortKeys(keys)

	result := make([]*models.Position, 0, len(keys))
	for _, key := range keys {
		result = append(result, positions[key])
	}
	return result
}
