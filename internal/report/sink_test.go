package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yxtlab/tzero/internal/engine"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

func sampleResult() *engine.Result {
	key := models.PositionKey{StockCode: "600000", AccountID: "1001", Strategy: "DEFAULT"}
	return &engine.Result{
		Positions: map[models.PositionKey]*models.Position{
			key: {
				StockCode: "600000", AccountID: "1001", Strategy: "DEFAULT",
				TotalVolume: 1000, AvailableVolume: 700, FrozenVolume: 300,
				AvgCost: 10, CurrentPrice: 12, MarketValue: 12000,
				ProfitLoss: 2000, ProfitLossRatio: 0.2,
			},
		},
		T0Positions: map[models.PositionKey]*models.T0Position{
			key: {
				StockCode: "600000", AccountID: "1001", Strategy: "DEFAULT",
				BaseVolume: 1000, T0BuyVolume: 800, T0SellVolume: 400,
				T0Completed: 400, T0Pending: 400, T0Profit: 240,
			},
		},
		Alerts: []*models.RiskAlert{
			{Level: models.AlertLevelWarning, Code: models.AlertCodeStopLoss, Message: "600000 触及止损线"},
		},
		Signals: []*models.T0Signal{
			{
				StockCode: "600000", AccountID: "1001", Strategy: "DEFAULT",
				SignalType: models.SignalTypeSell, TargetVolume: 400, TargetPrice: 12.024,
				Reason: "T0 待完成", Priority: models.SignalPriorityPairing, CreatedAt: time.Now(),
			},
		},
		PositionSummary: engine.PositionSummary{TotalPositions: 1, TotalMarketValue: 12000, TotalProfitLoss: 2000},
		AlertSummary:    engine.AlertSummary{TotalAlerts: 1, WarningCount: 1, Status: models.RiskStatusOK},
		SignalSummary:   engine.SignalSummary{TotalSignals: 1, SellSignals: 1, TotalSellVolume: 400},
	}
}

func TestSink_WritesAllFiles(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(filepath.Join(dir, "reports"), zap.NewNop())

	require.NoError(t, sink.Write(sampleResult()))

	for _, name := range []string{"positions.csv", "t0_positions.csv", "alerts.csv", "signals.csv", "summary.json"} {
		_, err := os.Stat(filepath.Join(dir, "reports", name))
		assert.NoError(t, err, name)
	}
}

func TestSink_PositionsCSVContent(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, zap.NewNop())
	require.NoError(t, sink.Write(sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, "positions.csv"))
	require.NoError(t, err)

	// Excel 兼容的 UTF-8 BOM
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(strings.NewReader(string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "stock_code", records[0][0])
	assert.Equal(t, "600000", records[1][0])
	assert.Equal(t, "1000", records[1][3])
	assert.Equal(t, "0.2", records[1][12])
}

func TestSink_SummaryJSON(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, zap.NewNop())
	require.NoError(t, sink.Write(sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)

	var summary struct {
		Positions engine.PositionSummary `json:"positions"`
		Alerts    engine.AlertSummary    `json:"alerts"`
		Signals   engine.SignalSummary   `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 1, summary.Positions.TotalPositions)
	assert.Equal(t, models.RiskStatusOK, summary.Alerts.Status)
	assert.Equal(t, 1, summary.Signals.TotalSignals)
}

func TestSink_EmptyResult(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, zap.NewNop())

	require.NoError(t, sink.Write(&engine.Result{}))

	data, err := os.ReadFile(filepath.Join(dir, "alerts.csv"))
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1) // 只有表头
}
