package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/yxtlab/tzero/internal"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/engine"
	"github.com/yxtlab/tzero/internal/feed"
	"github.com/yxtlab/tzero/internal/report"
	"go.uber.org/zap"
)

var (
	configFile string

	orderFile string
	tradeFile string
	priceFile string
	outputDir string
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "tzero",
	Short: "Tzero - A股持仓与T0交易分析引擎",
	Long:  ``,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动常驻服务：定时计算、HTTP API、Telegram 通知",
	RunE: func(cmd *cobra.Command, args []string) error {
		return internal.Run(configFile)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "执行一次批量计算并输出报告文件，不依赖数据库",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "配置文件路径")

	analyzeCmd.Flags().StringVar(&orderFile, "orders", "", "委托文件路径（CSV），覆盖配置文件")
	analyzeCmd.Flags().StringVar(&tradeFile, "trades", "", "成交文件路径（CSV），覆盖配置文件")
	analyzeCmd.Flags().StringVar(&priceFile, "prices", "", "价格文件路径（JSON），覆盖配置文件")
	analyzeCmd.Flags().StringVar(&outputDir, "output", "", "报告输出目录，覆盖配置文件")
	analyzeCmd.Flags().IntVar(&workers, "workers", 0, "分片计算并发数，覆盖配置文件")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// loadConfig 加载配置文件；文件不存在且用户未显式指定时回退到默认配置
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) && configFile == "config.yaml" {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	return config.Load(configFile)
}

func runAnalyze() error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	if orderFile != "" {
		conf.Feeds.OrderFile = orderFile
	}
	if tradeFile != "" {
		conf.Feeds.TradeFile = tradeFile
	}
	if priceFile != "" {
		conf.Feeds.PriceFile = priceFile
	}
	if outputDir != "" {
		conf.Report.OutputDir = outputDir
	}
	if workers > 0 {
		conf.Analysis.Workers = workers
	}

	if conf.Feeds.OrderFile == "" {
		return fmt.Errorf("order file is required, use --orders or feeds.order_file in config")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	input := engine.Input{Prices: map[string]float64{}}

	orderFeed := feed.NewOrderFeed(conf.Feeds.OrderFile, logger)
	if input.Orders, err = orderFeed.Parse(); err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	if conf.Feeds.TradeFile != "" {
		tradeFeed := feed.NewTradeFeed(conf.Feeds.TradeFile, logger)
		if input.Trades, err = tradeFeed.Parse(); err != nil {
			return fmt.Errorf("failed to load trades: %w", err)
		}
	}

	if conf.Feeds.PriceFile != "" {
		if input.Prices, err = feed.LoadPrices(conf.Feeds.PriceFile, logger); err != nil {
			return fmt.Errorf("failed to load prices: %w", err)
		}
	}

	eng := engine.NewEngine(conf, logger)
	result, err := eng.Run(context.Background(), input)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if conf.Report.OutputDir != "" {
		sink := report.NewSink(conf.Report.OutputDir, logger)
		if err := sink.Write(result); err != nil {
			return fmt.Errorf("failed to write report files: %w", err)
		}
	}

	printSummary(result)
	return nil
}

// printSummary 在控制台输出本次计算的摘要
func printSummary(result *engine.Result) {
	fmt.Println("==================== 计算摘要 ====================")
	fmt.Printf("仓位数：%d，总市值：%.2f，总盈亏：%.2f\n",
		result.PositionSummary.TotalPositions,
		result.PositionSummary.TotalMarketValue,
		result.PositionSummary.TotalProfitLoss)
	fmt.Printf("风险状态：%s（ERROR %d / WARNING %d / INFO %d）\n",
		result.AlertSummary.Status,
		result.AlertSummary.ErrorCount,
		result.AlertSummary.WarningCount,
		result.AlertSummary.InfoCount)
	fmt.Printf("T0 信号：%d（买入 %d / 卖出 %d）\n",
		result.SignalSummary.TotalSignals,
		result.SignalSummary.BuySignals,
		result.SignalSummary.SellSignals)

	for _, alert := range result.Alerts {
		fmt.Printf("[%s] %s\n", alert.Level, alert.Message)
	}
	for _, signal := range result.Signals {
		fmt.Printf("[信号 P%d] %s %s %d股 @%.3f（%s）\n",
			signal.Priority, signal.StockCode, signal.SignalType,
			signal.TargetVolume, signal.TargetPrice, signal.Reason)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
