package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Feeds    FeedsConf    `json:"feeds" yaml:"feeds"`
	Risk     RiskConf     `json:"risk" yaml:"risk"`
	T0       T0Conf       `json:"t0" yaml:"t0"`
	Report   ReportConf   `json:"report" yaml:"report"`
	Analysis AnalysisConf `json:"analysis" yaml:"analysis"`
	Telegram TelegramConf `json:"telegram" yaml:"telegram"`
	LLM      LlmConf      `json:"llm" yaml:"llm"`
}

// FeedsConf 输入数据源配置
type FeedsConf struct {
	OrderFile string `json:"order_file" yaml:"order_file"` // 委托文件路径（CSV，GBK/UTF-8）
	TradeFile string `json:"trade_file" yaml:"trade_file"` // 成交文件路径（CSV，可选）
	PriceFile string `json:"price_file" yaml:"price_file"` // 价格文件路径（JSON，可选）
}

// RiskConf 风险控制阈值
type RiskConf struct {
	MaxTotalPosition    float64 `json:"max_total_position" yaml:"max_total_position" validate:"gt=0"`               // 最大总仓位，默认 1000 万
	MaxSingleStockRatio float64 `json:"max_single_stock_ratio" yaml:"max_single_stock_ratio" validate:"gt=0,lte=1"` // 单票最大占比，默认 20%
	StopLossRatio       float64 `json:"stop_loss_ratio" yaml:"stop_loss_ratio" validate:"lt=0"`                     // 止损线，默认 -5%
	TakeProfitRatio     float64 `json:"take_profit_ratio" yaml:"take_profit_ratio" validate:"gt=0"`                 // 止盈线，默认 10%
	MaxT0TradesPerDay   int     `json:"max_t0_trades_per_day" yaml:"max_t0_trades_per_day" validate:"gte=0"`        // 单日最大 T0 次数（预留，当前检查未使用）
}

// T0Conf T0 策略参数
type T0Conf struct {
	SellPremium float64 `json:"sell_premium" yaml:"sell_premium" validate:"gte=0"`      // 卖出溢价，默认 0.2%
	BuyDiscount float64 `json:"buy_discount" yaml:"buy_discount" validate:"gte=0"`      // 买入折价，默认 0.2%
	MinT0Volume int64   `json:"min_t0_volume" yaml:"min_t0_volume" validate:"gt=0"`     // 单次 T0 最小数量，默认 100 股
	MaxT0Ratio  float64 `json:"max_t0_ratio" yaml:"max_t0_ratio" validate:"gt=0,lte=1"` // T0 数量占底仓最大比例，默认 50%
}

// ReportConf 报告输出配置
type ReportConf struct {
	OutputDir string `json:"output_dir" yaml:"output_dir"` // 报告输出目录
}

// AnalysisConf 批量计算配置
type AnalysisConf struct {
	IntervalMinutes int `json:"interval_minutes" yaml:"interval_minutes" validate:"gte=0"` // serve 模式重算周期（分钟），0 表示不定时重算
	Workers         int `json:"workers" yaml:"workers" validate:"gte=0"`                   // 分片计算并发数，0 表示不分片
}

type TelegramConf struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Token   string `json:"token" yaml:"token"`
	ChatID  string `json:"chat_id" yaml:"chat_id"`
}

type LlmConf struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	BaseURL  string `json:"base_url" yaml:"base_url"`   // LLM API基础URL
	APIKey   string `json:"api_key" yaml:"api_key"`     // LLM API密钥
	Model    string `json:"model" yaml:"model"`         // 模型名称
	ProxyURL string `json:"proxy_url" yaml:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
}

// Default 返回带文档化默认值的配置
func Default() *Config {
	return &Config{
		Risk: RiskConf{
			MaxTotalPosition:    10_000_000,
			MaxSingleStockRatio: 0.2,
			StopLossRatio:       -0.05,
			TakeProfitRatio:     0.1,
			MaxT0TradesPerDay:   10,
		},
		T0: T0Conf{
			SellPremium: 0.002,
			BuyDiscount: 0.002,
			MinT0Volume: 100,
			MaxT0Ratio:  0.5,
		},
		Report: ReportConf{
			OutputDir: "reports",
		},
		Analysis: AnalysisConf{
			IntervalMinutes: 10,
			Workers:         4,
		},
	}
}

// Load 从 YAML 文件加载配置，未设置的字段保留默认值，加载后立即校验
func Load(path string) (*Config, error) {
	conf := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate 校验配置，仅在构造时调用一次
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
