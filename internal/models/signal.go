package models

import "time"

// SignalType 信号类型
type SignalType string

const (
	SignalTypeBuy  SignalType = "BUY"
	SignalTypeSell SignalType = "SELL"
)

// 信号优先级，数值越小优先级越高
const (
	SignalPriorityPairing  = 2 // T0 待完成配对
	SignalPriorityRotation = 3 // 底仓做 T
)

// T0Signal T0 交易信号。信号仅供人工参考，不触发任何下单动作，
// 生成后不再修改。
type T0Signal struct {
	ID           string     `gorm:"primaryKey;type:varchar(26)" json:"id,omitempty"`
	RunID        string     `gorm:"type:varchar(26);index" json:"run_id,omitempty"`
	StockCode    string     `gorm:"type:varchar(10);not null;index" json:"stock_code"` // 证券代码
	AccountID    string     `gorm:"type:varchar(20);not null" json:"account_id"`       // 资金账号
	Strategy     string     `gorm:"type:varchar(64);not null" json:"strategy"`         // 策略名称
	SignalType   SignalType `gorm:"type:varchar(10);not null" json:"signal_type"`      // 信号类型
	TargetVolume int64      `gorm:"not null" json:"target_volume"`                     // 目标数量
	TargetPrice  float64    `gorm:"type:decimal(20,8)" json:"target_price"`            // 目标价格
	Reason       string     `gorm:"type:text" json:"reason"`                           // 信号原因
	Priority     int        `gorm:"not null" json:"priority"`                          // 优先级 1-5
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`                        // 生成时间
}

// TableName 指定表名
func (*T0Signal) TableName() string {
	return "t0_signals"
}
