package models

import "time"

// AlertLevel 告警级别
type AlertLevel string

const (
	AlertLevelInfo    AlertLevel = "INFO"
	AlertLevelWarning AlertLevel = "WARNING"
	AlertLevelError   AlertLevel = "ERROR"
)

// 告警代码
const (
	AlertCodeTotalPositionExceeded = "RISK_TOTAL_POSITION_EXCEEDED"
	AlertCodeTotalPositionHigh     = "RISK_TOTAL_POSITION_HIGH"
	AlertCodeConcentrationExceeded = "RISK_CONCENTRATION_EXCEEDED"
	AlertCodeStopLoss              = "RISK_STOP_LOSS"
	AlertCodeTakeProfit            = "RISK_TAKE_PROFIT"
)

// RiskAlert 风险告警，单次批处理内只增不改
type RiskAlert struct {
	ID           string     `gorm:"primaryKey;type:varchar(26)" json:"id,omitempty"`
	RunID        string     `gorm:"type:varchar(26);index" json:"run_id,omitempty"`
	Level        AlertLevel `gorm:"type:varchar(10);not null" json:"level"`         // 告警级别
	Code         string     `gorm:"type:varchar(64);not null" json:"code"`          // 告警代码
	Message      string     `gorm:"type:text;not null" json:"message"`              // 告警信息
	StockCode    string     `gorm:"type:varchar(10)" json:"stock_code,omitempty"`   // 证券代码（可选）
	AccountID    string     `gorm:"type:varchar(20)" json:"account_id,omitempty"`   // 资金账号（可选）
	CurrentValue float64    `gorm:"type:decimal(20,8)" json:"current_value"`        // 当前值
	LimitValue   float64    `gorm:"type:decimal(20,8)" json:"limit_value"`          // 阈值
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at,omitempty"`
}

// TableName 指定表名
func (*RiskAlert) TableName() string {
	return "risk_alerts"
}

// IsError 是否为错误级别告警
func (a *RiskAlert) IsError() bool {
	return a.Level == AlertLevelError
}
