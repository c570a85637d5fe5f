//go:build wireinject
// +build wireinject

package internal

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/engine"
	"github.com/yxtlab/tzero/internal/handler"
	"github.com/yxtlab/tzero/internal/service"
	"github.com/yxtlab/tzero/internal/telegram"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	telegramHTTPTimeout     = 10 * time.Second
	logFieldConfiguredModel = "model"
)

var (
	handlerSet = wire.NewSet(
		handler.NewReportHandler,
	)

	analysisSet = wire.NewSet(
		provideOpenAIClient,
		provideEngine,
		service.NewAnalysisService,
		service.NewReviewService,
		service.NewAnalysisLoop,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		analysisSet,
		provideTelegram,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// provideEngine provides the position analysis engine
func provideEngine(conf *config.Config, logger *zap.Logger) *engine.Engine {
	return engine.NewEngine(conf, logger)
}

// provideOpenAIClient provides OpenAI client
func provideOpenAIClient(conf *config.Config, logger *zap.Logger) *openai.Client {
	if !conf.LLM.Enabled {
		return nil
	}

	var options = []option.RequestOption{
		option.WithBaseURL(conf.LLM.BaseURL),
		option.WithAPIKey(conf.LLM.APIKey),
	}
	if conf.LLM.ProxyURL != "" {
		u, err := url.Parse(conf.LLM.ProxyURL)
		if err != nil {
			logger.Fatal("failed to parse proxy URL", zap.Error(err))
		}
		httpClient := &http.Client{
			Timeout: time.Minute,
			Transport: &http.Transport{
				Proxy: http.ProxyURL(u),
			},
		}
		options = append(options, option.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(options...)

	logger.Info("OpenAI client initialized",
		zap.String(logFieldConfiguredModel, conf.LLM.Model))
	return &client
}
