package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yxtlab/tzero/internal/engine"
	"go.uber.org/zap"
)

// Sink 报告输出器，把一次计算结果写成 CSV 明细和 JSON 汇总
type Sink struct {
	dir    string
	logger *zap.Logger
}

// NewSink 创建报告输出器
func NewSink(dir string, logger *zap.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

// Write 输出完整报告：仓位、T0 仓位、告警、信号明细与汇总
func (s *Sink) Write(result *engine.Result) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}

	if err := s.writePositions(result); err != nil {
		return err
	}
	if err := s.writeT0Positions(result); err != nil {
		return err
	}
	if err := s.writeAlerts(result); err != nil {
		return err
	}
	if err := s.writeSignals(result); err != nil {
		return err
	}
	if err := s.writeSummary(result); err != nil {
		return err
	}

	s.logger.Info("report written", zap.String("dir", s.dir))
	return nil
}

func (s *Sink) writePositions(result *engine.Result) error {
	header := []string{
		"stock_code", "account_id", "strategy",
		"total_volume", "available_volume", "frozen_volume",
		"buy_volume", "sell_volume",
		"avg_cost", "current_price", "market_value",
		"profit_loss", "profit_loss_ratio", "t0_profit",
	}
	rows := make([][]string, 0, len(result.Positions))
	for _, pos := range result.SortedPositions() {
		rows = append(rows, []string{
			pos.StockCode, pos.AccountID, pos.Strategy,
			formatInt(pos.TotalVolume), formatInt(pos.AvailableVolume), formatInt(pos.FrozenVolume),
			formatInt(pos.BuyVolume), formatInt(pos.SellVolume),
			formatFloat(pos.AvgCost), formatFloat(pos.CurrentPrice), formatFloat(pos.MarketValue),
			formatFloat(pos.ProfitLoss), formatFloat(pos.ProfitLossRatio), formatFloat(pos.T0Profit),
		})
	}
	return s.writeCSV("positions.csv", header, rows)
}

func (s *Sink) writeT0Positions(result *engine.Result) error {
	header := []string{
		"stock_code", "account_id", "strategy",
		"base_volume", "t0_buy_volume", "t0_sell_volume",
		"t0_completed", "t0_pending", "t0_profit",
		"avg_buy_price", "avg_sell_price",
	}
	rows := make([][]string, 0, len(result.T0Positions))
	for _, t0 := range result.SortedT0Positions() {
		rows = append(rows, []string{
			t0.StockCode, t0.AccountID, t0.Strategy,
			formatInt(t0.BaseVolume), formatInt(t0.T0BuyVolume), formatInt(t0.T0SellVolume),
			formatInt(t0.T0Completed), formatInt(t0.T0Pending), formatFloat(t0.T0Profit),
			formatFloat(t0.AvgBuyPrice), formatFloat(t0.AvgSellPrice),
		})
	}
	return s.writeCSV("t0_positions.csv", header, rows)
}

func (s *Sink) writeAlerts(result *engine.Result) error {
	header := []string{"level", "code", "message", "stock_code", "account_id", "current_value", "limit_value"}
	rows := make([][]string, 0, len(result.Alerts))
	for _, alert := range result.Alerts {
		rows = append(rows, []string{
			string(alert.Level), alert.Code, alert.Message,
			alert.StockCode, alert.AccountID,
			formatFloat(alert.CurrentValue), formatFloat(alert.LimitValue),
		})
	}
	return s.writeCSV("alerts.csv", header, rows)
}

func (s *Sink) writeSignals(result *engine.Result) error {
	header := []string{
		"stock_code", "account_id", "strategy", "signal_type",
		"target_volume", "target_price", "reason", "priority", "created_at",
	}
	rows := make([][]string, 0, len(result.Signals))
	for _, signal := range result.Signals {
		rows = append(rows, []string{
			signal.StockCode, signal.AccountID, signal.Strategy, string(signal.SignalType),
			formatInt(signal.TargetVolume), formatFloat(signal.TargetPrice),
			signal.Reason, strconv.Itoa(signal.Priority),
			signal.CreatedAt.Format(time.RFC3339),
		})
	}
	return s.writeCSV("signals.csv", header, rows)
}

func (s *Sink) writeSummary(result *engine.Result) error {
	summary := map[string]any{
		"generated_at": time.Now().Format(time.RFC3339),
		"positions":    result.PositionSummary,
		"alerts":       result.AlertSummary,
		"signals":      result.SignalSummary,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(s.dir, "summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func (s *Sink) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(s.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	// Excel 打开 GBK 环境下的 UTF-8 CSV 需要 BOM
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
