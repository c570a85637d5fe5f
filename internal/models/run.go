package models

import (
	"time"

	"gorm.io/datatypes"
)

// RiskStatus 风险状态
const (
	RiskStatusOK   = "OK"
	RiskStatusRisk = "RISK"
)

// AnalysisRun 单次批量计算的记录与汇总
type AnalysisRun struct {
	ID               string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	OrderFile        string         `gorm:"type:varchar(255)" json:"order_file"`          // 委托文件路径
	TradeFile        string         `gorm:"type:varchar(255)" json:"trade_file"`          // 成交文件路径
	OrderCount       int            `gorm:"not null" json:"order_count"`                  // 订单数
	TradeCount       int            `gorm:"not null" json:"trade_count"`                  // 成交数
	PositionCount    int            `gorm:"not null" json:"position_count"`               // 仓位数
	AlertCount       int            `gorm:"not null" json:"alert_count"`                  // 告警数
	SignalCount      int            `gorm:"not null" json:"signal_count"`                 // 信号数
	TotalMarketValue float64        `gorm:"type:decimal(20,8)" json:"total_market_value"` // 总市值
	TotalProfitLoss  float64        `gorm:"type:decimal(20,8)" json:"total_profit_loss"`  // 总盈亏
	RiskStatus       string         `gorm:"type:varchar(10);not null" json:"risk_status"` // OK / RISK
	Summary          datatypes.JSON `gorm:"type:json" json:"summary"`                     // 完整汇总（JSON）
	Review           string         `gorm:"type:text" json:"review,omitempty"`            // LLM 复盘（可选）
	StartedAt        time.Time      `gorm:"not null" json:"started_at"`                   // 开始时间
	FinishedAt       time.Time      `gorm:"not null" json:"finished_at"`                  // 结束时间
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (*AnalysisRun) TableName() string {
	return "analysis_runs"
}
