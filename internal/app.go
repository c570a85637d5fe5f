package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/handler"
	"github.com/yxtlab/tzero/internal/models"
	"github.com/yxtlab/tzero/internal/service"
	"github.com/yxtlab/tzero/internal/telegram"
	"github.com/yxtlab/tzero/pkg/nostd"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewTzeroApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewTzeroApp() orz.Application {
	return &TzeroApp{}
}

var _ orz.Application = (*TzeroApp)(nil)

type AppComponents struct {
	ReportHandler *handler.ReportHandler

	AnalysisLoop    *service.AnalysisLoop
	AnalysisService *service.AnalysisService
	ReviewService   *service.ReviewService

	Telegram *telegram.Telegram
}

type TzeroApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *TzeroApp) GetComponents() *AppComponents {
	return r.components
}

func (r *TzeroApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	conf := config.Default()
	if err := app.GetConfig().App.Unmarshal(conf); err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}

	components, err := InitializeApp(logger, db, conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = conf

	if err := db.AutoMigrate(
		models.AnalysisRun{}, models.Position{}, models.T0Position{},
		models.RiskAlert{}, models.T0Signal{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	api := e.Group("/api")
	{
		if r.components.ReportHandler != nil {
			r.components.ReportHandler.RegisterRoutes(api)
		}
	}

	return nil
}

func (r *TzeroApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Tzero Position Analysis Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	if components.Telegram != nil {
		components.Telegram.Start()
	}

	go func() {
		if err := components.AnalysisLoop.Start(context.Background()); err != nil {
			logger.Error("analysis loop error", zap.Error(err))
		}
	}()
	return nil
}
