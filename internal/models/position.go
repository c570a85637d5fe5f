package models

import "time"

// PositionKey 仓位唯一键：证券代码 + 资金账号 + 策略。
// 使用结构体键而不是字符串拼接，避免分隔符冲突。
type PositionKey struct {
	StockCode string `json:"stock_code"`
	AccountID string `json:"account_id"`
	Strategy  string `json:"strategy"`
}

// Less 按证券代码、资金账号、策略排序，用于稳定输出
func (k PositionKey) Less(other PositionKey) bool {
	if k.StockCode != other.StockCode {
		return k.StockCode < other.StockCode
	}
	if k.AccountID != other.AccountID {
		return k.AccountID < other.AccountID
	}
	return k.Strategy < other.Strategy
}

// Position 仓位信息，每次计算从零重建，无跨批次状态
type Position struct {
	ID              string    `gorm:"primaryKey;type:varchar(26)" json:"id,omitempty"`
	RunID           string    `gorm:"type:varchar(26);index" json:"run_id,omitempty"`
	StockCode       string    `gorm:"type:varchar(10);not null;index" json:"stock_code"`     // 证券代码
	AccountID       string    `gorm:"type:varchar(20);not null;index" json:"account_id"`     // 资金账号
	Strategy        string    `gorm:"type:varchar(64);not null" json:"strategy"`             // 策略名称
	TotalVolume     int64     `gorm:"not null" json:"total_volume"`                          // 总持仓数量
	AvailableVolume int64     `gorm:"not null" json:"available_volume"`                      // 可用数量
	FrozenVolume    int64     `gorm:"not null" json:"frozen_volume"`                         // 冻结数量
	BuyVolume       int64     `gorm:"not null" json:"buy_volume"`                            // 买入委托数量
	SellVolume      int64     `gorm:"not null" json:"sell_volume"`                           // 卖出委托数量
	AvgCost         float64   `gorm:"type:decimal(20,8)" json:"avg_cost"`                    // 平均成本
	CurrentPrice    float64   `gorm:"type:decimal(20,8)" json:"current_price"`               // 当前价格
	MarketValue     float64   `gorm:"type:decimal(20,8)" json:"market_value"`                // 市值
	ProfitLoss      float64   `gorm:"type:decimal(20,8)" json:"profit_loss"`                 // 盈亏
	ProfitLossRatio float64   `gorm:"type:decimal(20,8)" json:"profit_loss_ratio"`           // 盈亏比例
	T0Profit        float64   `gorm:"type:decimal(20,8)" json:"t0_profit"`                   // T0 盈亏
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at,omitempty"`
}

// TableName 指定表名
func (*Position) TableName() string {
	return "positions"
}

// Key 生成仓位键
func (p *Position) Key() PositionKey {
	return PositionKey{StockCode: p.StockCode, AccountID: p.AccountID, Strategy: p.Strategy}
}

// T0Position T0 交易仓位，仅由当日活动推导
type T0Position struct {
	ID           string    `gorm:"primaryKey;type:varchar(26)" json:"id,omitempty"`
	RunID        string    `gorm:"type:varchar(26);index" json:"run_id,omitempty"`
	StockCode    string    `gorm:"type:varchar(10);not null;index" json:"stock_code"` // 证券代码
	AccountID    string    `gorm:"type:varchar(20);not null;index" json:"account_id"` // 资金账号
	Strategy     string    `gorm:"type:varchar(64);not null" json:"strategy"`         // 策略名称
	BaseVolume   int64     `gorm:"not null" json:"base_volume"`                       // 底仓数量
	T0BuyVolume  int64     `gorm:"not null" json:"t0_buy_volume"`                     // T0 买入数量
	T0SellVolume int64     `gorm:"not null" json:"t0_sell_volume"`                    // T0 卖出数量
	T0Completed  int64     `gorm:"not null" json:"t0_completed"`                      // T0 完成数量（配对成功）
	T0Pending    int64     `gorm:"not null" json:"t0_pending"`                        // T0 待完成数量
	T0Profit     float64   `gorm:"type:decimal(20,8)" json:"t0_profit"`               // T0 盈亏
	AvgBuyPrice  float64   `gorm:"type:decimal(20,8)" json:"avg_buy_price"`           // T0 平均买入价
	AvgSellPrice float64   `gorm:"type:decimal(20,8)" json:"avg_sell_price"`          // T0 平均卖出价
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at,omitempty"`
}

// TableName 指定表名
func (*T0Position) TableName() string {
	return "t0_positions"
}

// Key 生成仓位键
func (p *T0Position) Key() PositionKey {
	return PositionKey{StockCode: p.StockCode, AccountID: p.AccountID, Strategy: p.Strategy}
}
