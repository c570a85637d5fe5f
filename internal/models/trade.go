package models

import "time"

// Trade 成交记录，按成交时间排序后参与仓位与 T0 计算。
// 解析完成后不再修改。
type Trade struct {
	StockCode string    `json:"stock_code"` // 证券代码
	AccountID string    `json:"account_id"` // 资金账号
	Strategy  string    `json:"strategy"`   // 策略名称
	Direction Direction `json:"direction"`  // 买卖方向
	Volume    int64     `json:"volume"`     // 成交数量
	Price     float64   `json:"price"`      // 成交价格
	TradeTime time.Time `json:"trade_time"` // 成交时间
}

// Key 生成仓位键
func (t *Trade) Key() PositionKey {
	return PositionKey{
		StockCode: t.StockCode,
		AccountID: t.AccountID,
		Strategy:  t.StrategyOrDefault(),
	}
}

// StrategyOrDefault 策略名称，为空时归入 DEFAULT 策略
func (t *Trade) StrategyOrDefault() string {
	if t.Strategy == "" {
		return "DEFAULT"
	}
	return t.Strategy
}
