package feed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// LoadPrices 加载价格文件（JSON，{证券代码: 当前价格}）。
// 数值允许以字符串形式出现，无法转换的条目按 0 处理。
func LoadPrices(path string, logger *zap.Logger) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse price file: %w", err)
	}

	prices := make(map[string]float64, len(raw))
	for code, value := range raw {
		price, err := cast.ToFloat64E(value)
		if err != nil {
			logger.Warn("invalid price value, treated as 0",
				zap.String("stock_code", code),
				zap.Any("value", value))
			price = 0
		}
		prices[code] = price
	}

	logger.Info("price feed loaded", zap.String("file", path), zap.Int("prices", len(prices)))
	return prices, nil
}
