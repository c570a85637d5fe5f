package feed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/yxtlab/tzero/internal/models"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 迅投导出文件的中文列名 → 规范字段名
var orderFieldMapping = map[string]string{
	"下单类型":   "order_type",
	"委托价格类型": "price_type",
	"委托价格":   "mode_price",
	"证券代码":   "stock_code",
	"委托数量":   "volume",
	"下单资金账号": "account_id",
	"策略备注":   "strategy",
	"投资备注":   "note",
	"写入时间":   "insert_time",
	"批次 ID":   "batch_id",
	"批次ID":    "batch_id",
}

// 规范字段名集合，英文表头直接透传
var orderCanonicalFields = map[string]struct{}{
	"order_type": {}, "price_type": {}, "mode_price": {}, "stock_code": {},
	"volume": {}, "account_id": {}, "strategy": {}, "note": {},
	"insert_time": {}, "inserttime": {}, "batch_id": {},
}

// OrderFeed 委托文件解析器。
// 支持迅投 XT_DBF_ORDER 的 CSV 导出（GBK 或 UTF-8 编码，中英文表头）。
// 解析与校验过程只收集诊断信息，不中断。
type OrderFeed struct {
	path   string
	logger *zap.Logger

	orders           []*models.Order
	parseErrors      []string
	validationErrors []string
}

// NewOrderFeed 创建委托文件解析器
func NewOrderFeed(path string, logger *zap.Logger) *OrderFeed {
	return &OrderFeed{path: path, logger: logger}
}

// OrderFeedSummary 解析摘要
type OrderFeedSummary struct {
	FilePath         string   `json:"file_path"`
	TotalOrders      int      `json:"total_orders"`
	ParseErrors      int      `json:"parse_errors"`
	ValidationErrors int      `json:"validation_errors"`
	Errors           []string `json:"errors"`
	UniqueStocks     int      `json:"unique_stocks"`
	UniqueAccounts   int      `json:"unique_accounts"`
	BuyOrders        int      `json:"buy_orders"`
	SellOrders       int      `json:"sell_orders"`
}

// Parse 解析委托文件。只有文件无法读取或不是合法 CSV 时返回错误，
// 单条记录的问题记入诊断列表。
func (f *OrderFeed) Parse() ([]*models.Order, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read order file: %w", err)
	}

	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode order file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("order file is empty: %s", f.path)
	}

	columns := f.mapHeader(records[0])
	if !hasRequiredColumns(columns) {
		return nil, fmt.Errorf("order file missing required columns: %s", f.path)
	}

	f.orders = f.orders[:0]
	for i, row := range records[1:] {
		order := &models.Order{
			OrderType:  columnValue(row, columns, "order_type"),
			PriceType:  columnValue(row, columns, "price_type"),
			StockCode:  columnValue(row, columns, "stock_code"),
			Volume:     columnValue(row, columns, "volume"),
			AccountID:  columnValue(row, columns, "account_id"),
			ModePrice:  columnValue(row, columns, "mode_price"),
			Strategy:   columnValue(row, columns, "strategy"),
			Note:       columnValue(row, columns, "note"),
			InsertTime: columnValue(row, columns, "insert_time"),
			BatchID:    columnValue(row, columns, "batch_id"),
		}
		f.orders = append(f.orders, order)

		if valid, errs := order.Validate(); !valid {
			for _, e := range errs {
				f.validationErrors = append(f.validationErrors, fmt.Sprintf("订单%d: %s", i+1, e))
			}
		}
	}

	f.logger.Info("order feed parsed",
		zap.String("file", f.path),
		zap.Int("orders", len(f.orders)),
		zap.Int("validation_errors", len(f.validationErrors)))

	return f.orders, nil
}

// Validate 所有订单是否通过校验
func (f *OrderFeed) Validate() bool {
	return len(f.orders) > 0 && len(f.validationErrors) == 0
}

// ValidationErrors 校验错误列表
func (f *OrderFeed) ValidationErrors() []string {
	return f.validationErrors
}

// Summary 获取解析摘要
func (f *OrderFeed) Summary() OrderFeedSummary {
	stocks := make(map[string]struct{})
	accounts := make(map[string]struct{})
	buys, sells := 0, 0
	for _, order := range f.orders {
		stocks[order.StockCode] = struct{}{}
		accounts[order.AccountID] = struct{}{}
		switch order.Direction() {
		case models.DirectionBuy:
			buys++
		case models.DirectionSell:
			sells++
		}
	}

	errs := make([]string, 0, 10)
	errs = append(errs, firstN(f.parseErrors, 5)...)
	errs = append(errs, firstN(f.validationErrors, 5)...)

	return OrderFeedSummary{
		FilePath:         f.path,
		TotalOrders:      len(f.orders),
		ParseErrors:      len(f.parseErrors),
		ValidationErrors: len(f.validationErrors),
		Errors:           errs,
		UniqueStocks:     len(stocks),
		UniqueAccounts:   len(accounts),
		BuyOrders:        buys,
		SellOrders:       sells,
	}
}

// Filter 按证券代码、资金账号、买卖方向筛选订单，空条件表示不过滤
func (f *OrderFeed) Filter(stockCode, accountID string, direction models.Direction) []*models.Order {
	var result []*models.Order
	for _, order := range f.orders {
		if stockCode != "" && order.StockCode != stockCode {
			continue
		}
		if accountID != "" && order.AccountID != accountID {
			continue
		}
		if direction != "" && order.Direction() != direction {
			continue
		}
		result = append(result, order)
	}
	return result
}

// mapHeader 表头列名映射：先精确匹配中文列名，再透传规范英文名，
// 最后做包含关系的模糊匹配。未识别的列忽略。
func (f *OrderFeed) mapHeader(header []string) map[string]int {
	columns := make(map[string]int)
	for idx, col := range header {
		name := strings.TrimSpace(col)

		if canonical, ok := orderFieldMapping[name]; ok {
			columns[canonical] = idx
			continue
		}

		lower := strings.ToLower(name)
		if lower == "inserttime" {
			lower = "insert_time"
		}
		if _, ok := orderCanonicalFields[lower]; ok {
			columns[lower] = idx
			continue
		}

		matched := false
		for cn, canonical := range orderFieldMapping {
			if strings.Contains(name, cn) || strings.Contains(cn, name) {
				columns[canonical] = idx
				matched = true
				break
			}
		}
		if !matched {
			f.parseErrors = append(f.parseErrors, fmt.Sprintf("未识别的列：%s", name))
		}
	}
	return columns
}

func hasRequiredColumns(columns map[string]int) bool {
	for _, name := range []string{"order_type", "price_type", "stock_code", "volume", "account_id"} {
		if _, ok := columns[name]; ok {
			return true
		}
	}
	return false
}

func columnValue(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// decodeText 解码文件内容：去除 UTF-8 BOM 后，内容是合法 UTF-8 则直接使用，
// 否则按 GBK 解码。GBK 字节恰好构成合法 UTF-8 的情况无法区分，按 UTF-8 处理。
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("gbk decode: %w", err)
	}
	return string(decoded), nil
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
