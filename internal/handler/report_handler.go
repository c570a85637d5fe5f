package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/yxtlab/tzero/internal/config"
	"github.com/yxtlab/tzero/internal/service"
	"github.com/yxtlab/tzero/internal/xe"
	"github.com/yxtlab/tzero/pkg/nostd"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportHandler 持仓计算结果的 HTTP 处理器
type ReportHandler struct {
	analysisLoop    *service.AnalysisLoop
	analysisService *service.AnalysisService
	conf            *config.Config
	logger          *zap.Logger
}

// NewReportHandler 创建报告处理器
func NewReportHandler(
	analysisLoop *service.AnalysisLoop,
	analysisService *service.AnalysisService,
	conf *config.Config,
	logger *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		analysisLoop:    analysisLoop,
		analysisService: analysisService,
		conf:            conf,
		logger:          logger,
	}
}

// GetStatus 获取调度器状态与最近一次计算摘要
// GET /api/report/status
func (h *ReportHandler) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	resp := map[string]interface{}{
		"loop": h.analysisLoop.GetStatus(),
	}

	run, err := h.analysisService.FindLatest(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Error("failed to load latest run", zap.Error(err))
		}
		return c.JSON(http.StatusOK, resp)
	}
	resp["latest_run"] = run

	return c.JSON(http.StatusOK, resp)
}

// GetLatest 获取最近一次计算的完整明细
// GET /api/report/latest
func (h *ReportHandler) GetLatest(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := h.analysisService.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrNoRunYet
		}
		return err
	}

	detail, err := h.analysisService.GetRunDetail(ctx, run.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, detail)
}

// GetRuns 获取最近的计算批次列表
// GET /api/report/runs?limit=20
func (h *ReportHandler) GetRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := h.analysisService.FindRecent(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// GetRunDetail 获取指定批次的完整明细
// GET /api/report/runs/:id
func (h *ReportHandler) GetRunDetail(c echo.Context) error {
	ctx := c.Request().Context()

	runId := c.Param("id")
	if runId == "" {
		return xe.ErrInvalidParams
	}

	detail, err := h.analysisService.GetRunDetail(ctx, runId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrRunNotFound
		}
		return err
	}

	return c.JSON(http.StatusOK, detail)
}

// TriggerRun 手动触发一次计算
// POST /api/report/run
func (h *ReportHandler) TriggerRun(c echo.Context) error {
	ctx := c.Request().Context()

	run, result, err := h.analysisService.RunOnce(ctx)
	if err != nil {
		h.logger.Error("manual run failed", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"run":       run,
		"positions": result.PositionSummary,
		"alerts":    result.AlertSummary,
		"signals":   result.SignalSummary,
	})
}

// GetReportFile 下载报告目录内的文件
// GET /api/report/files/:name
func (h *ReportHandler) GetReportFile(c echo.Context) error {
	name := c.Param("name")
	if name == "" || h.conf.Report.OutputDir == "" {
		return xe.ErrInvalidParams
	}

	path, err := nostd.SafePathJoin(h.conf.Report.OutputDir, name)
	if err != nil {
		return xe.ErrInvalidParams
	}

	return c.Attachment(path, name)
}

// RegisterRoutes 注册路由
func (h *ReportHandler) RegisterRoutes(g *echo.Group) {
	report := g.Group("/report")

	report.GET("/status", h.GetStatus)
	report.GET("/latest", h.GetLatest)
	report.GET("/runs", h.GetRuns)
	report.GET("/runs/:id", h.GetRunDetail)
	report.GET("/files/:name", h.GetReportFile)

	report.POST("/run", h.TriggerRun)
}
