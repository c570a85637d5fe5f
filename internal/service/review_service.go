package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/valyala/fasttemplate"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/engine"
	"go.uber.org/zap"
)

const reviewSystemInstructions = "你是一名 A 股策略团队的风控助理。" +
	"根据给出的仓位、风险告警与 T0 信号汇总，用中文写一段简短的当日复盘：" +
	"先说总体风险状态，再点出需要优先处理的告警和信号，不要复述全部数字。"

const reviewPromptTemplate = `## 仓位汇总
仓位数：{{total_positions}}，总市值：{{total_market_value}}，总盈亏：{{total_profit_loss}}

## 风险告警（状态：{{risk_status}}）
{{alert_lines}}

## T0 信号
{{signal_lines}}
`

// ReviewService 可选的 LLM 复盘服务，对一次计算结果生成自然语言总结。
// 未启用时 Review 直接返回空字符串。
type ReviewService struct {
	logger       *zap.Logger
	openAIClient *openai.Client
	model        string
	enabled      bool
}

// NewReviewService 创建复盘服务
func NewReviewService(openAIClient *openai.Client, conf *config.Config, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		logger:       logger,
		openAIClient: openAIClient,
		model:        conf.LLM.Model,
		enabled:      conf.LLM.Enabled && openAIClient != nil,
	}
}

// Enabled 是否启用
func (s *ReviewService) Enabled() bool {
	return s.enabled
}

// Review 生成当日复盘
func (s *ReviewService) Review(ctx context.Context, result *engine.Result) (string, error) {
	if !s.enabled {
		return "", nil
	}

	prompt := s.buildPrompt(result)

	resp, err := s.openAIClient.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(reviewSystemInstructions),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from LLM")
	}

	review := resp.Choices[0].Message.Content
	s.logger.Info("review generated",
		zap.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		zap.Int("completion_tokens", int(resp.Usage.CompletionTokens)))

	return review, nil
}

func (s *ReviewService) buildPrompt(result *engine.Result) string {
	var alertLines strings.Builder
	for _, alert := range result.Alerts {
		fmt.Fprintf(&alertLines, "- [%s] %s\n", alert.Level, alert.Message)
	}
	if alertLines.Len() == 0 {
		alertLines.WriteString("无\n")
	}

	var signalLines strings.Builder
	for _, signal := range result.Signals {
		fmt.Fprintf(&signalLines, "- [%d] %s %s %d股 @%.3f（%s）\n",
			signal.Priority, signal.StockCode, signal.SignalType,
			signal.TargetVolume, signal.TargetPrice, signal.Reason)
	}
	if signalLines.Len() == 0 {
		signalLines.WriteString("无\n")
	}

	replacements := map[string]interface{}{
		"total_positions":    fmt.Sprintf("%d", result.PositionSummary.TotalPositions),
		"total_market_value": fmt.Sprintf("%.2f", result.PositionSummary.TotalMarketValue),
		"total_profit_loss":  fmt.Sprintf("%.2f", result.PositionSummary.TotalProfitLoss),
		"risk_status":        result.AlertSummary.Status,
		"alert_lines":        alertLines.String(),
		"signal_lines":       signalLines.String(),
	}

	tmpl := fasttemplate.New(reviewPromptTemplate, "{{", "}}")
	return tmpl.ExecuteString(replacements)
}
