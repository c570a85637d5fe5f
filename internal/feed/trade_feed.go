package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
)

// 成交文件的中文列名 → 规范字段名
var tradeFieldMapping = map[string]string{
	"证券代码": "stock_code",
	"资金账号": "account_id",
	"策略名称": "strategy",
	"策略备注": "strategy",
	"买卖方向": "direction",
	"成交数量": "volume",
	"成交价格": "price",
	"成交时间": "trade_time",
}

var tradeCanonicalFields = map[string]struct{}{
	"stock_code": {}, "account_id": {}, "strategy": {},
	"direction": {}, "volume": {}, "price": {}, "trade_time": {},
}

// 成交时间支持的格式
var tradeTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"20060102150405",
	time.RFC3339,
	"15:04:05",
}

// TradeFeed 成交文件解析器（CSV，GBK 或 UTF-8）。
// 数量、价格按宽松口径转换，非法值按 0 处理并记入诊断。
type TradeFeed struct {
	path   string
	logger *zap.Logger

	trades      []*models.Trade
	parseErrors []string
}

// NewTradeFeed 创建成交文件解析器
func NewTradeFeed(path string, logger *zap.Logger) *TradeFeed {
	return &TradeFeed{path: path, logger: logger}
}

// Parse 解析成交文件
func (f *TradeFeed) Parse() ([]*models.Trade, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade file: %w", err)
	}

	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trade file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("trade file is empty: %s", f.path)
	}

	columns := f.mapHeader(records[0])
	if _, ok := columns["stock_code"]; !ok {
		return nil, fmt.Errorf("trade file missing stock_code column: %s", f.path)
	}

	f.trades = f.trades[:0]
	for i, row := range records[1:] {
		trade := &models.Trade{
			StockCode: columnValue(row, columns, "stock_code"),
			AccountID: columnValue(row, columns, "account_id"),
			Strategy:  columnValue(row, columns, "strategy"),
			Direction: models.ParseDirection(columnValue(row, columns, "direction")),
			Volume:    cast.ToInt64(columnValue(row, columns, "volume")),
			Price:     cast.ToFloat64(columnValue(row, columns, "price")),
		}
		if trade.Volume < 0 {
			trade.Volume = 0
		}

		if raw := columnValue(row, columns, "trade_time"); raw != "" {
			t, err := parseTradeTime(raw)
			if err != nil {
				f.parseErrors = append(f.parseErrors, fmt.Sprintf("成交%d: 成交时间格式错误：%s", i+1, raw))
			}
			trade.TradeTime = t
		}

		f.trades = append(f.trades, trade)
	}

	f.logger.Info("trade feed parsed",
		zap.String("file", f.path),
		zap.Int("trades", len(f.trades)),
		zap.Int("parse_errors", len(f.parseErrors)))

	return f.trades, nil
}

// ParseErrors 解析诊断列表
func (f *TradeFeed) ParseErrors() []string {
	return f.parseErrors
}

func (f *TradeFeed) mapHeader(header []string) map[string]int {
	columns := make(map[string]int)
	for idx, col := range header {
		name := strings.TrimSpace(col)

		if canonical, ok := tradeFieldMapping[name]; ok {
			columns[canonical] = idx
			continue
		}
		lower := strings.ToLower(name)
		if _, ok := tradeCanonicalFields[lower]; ok {
			columns[lower] = idx
		}
	}
	return columns
}

func parseTradeTime(raw string) (time.Time, error) {
	for _, layout := range tradeTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %s", raw)
}
