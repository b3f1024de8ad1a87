package controller

import (
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
	AnalyticsService *service.AnalyticsService
	ExportService    *service.ExportService
}

func NewDashboardController(dashboardService *service.DashboardService, analyticsService *service.AnalyticsService, exportService *service.ExportService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		AnalyticsService: analyticsService,
		ExportService:    exportService,
	}
}

// @Summary 获取仪表盘数据
// @Description 概览、最近测试、创建的测验、分类表现、最近动态、月度趋势和徽章
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Dashboard}
// @Router /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	dashboard, err := c.DashboardService.GetDashboard(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// @Summary 测验结果详情
// @Description 结果本人或测验创建者可查看
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param id path string true "结果ID"
// @Success 200 {object} util.Response{data=model.ResultDetail}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/dashboard/results/{id} [get]
func (c *DashboardController) GetTestResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.DashboardService.GetTestResult(ctx.Request.Context(), ctx.Param("id"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 作答历史
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param category query string false "分类"
// @Param difficulty query string false "难度" Enums(Easy, Medium, Hard)
// @Param startDate query string false "开始日期 YYYY-MM-DD 或 RFC3339"
// @Param endDate query string false "结束日期 YYYY-MM-DD 或 RFC3339；只传日期时包含当天全天（含当天 23:59:59）"
// @Param sortBy query string false "排序字段" Enums(completedAt, percentage, timeSpent, earnedPoints)
// @Param sortOrder query string false "排序方向" Enums(asc, desc)
// @Success 200 {object} util.Response{data=model.HistoryPage}
// @Router /api/dashboard/history [get]
func (c *DashboardController) GetTestHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	history, err := c.DashboardService.GetTestHistory(ctx.Request.Context(), service.HistoryQuery{
		UserID:     user.UserID,
		Page:       util.AtoiDefault(ctx.Query("page"), 1),
		Limit:      util.LimitParam(ctx.Query("limit"), util.DefaultPageSize),
		Category:   ctx.Query("category"),
		Difficulty: ctx.Query("difficulty"),
		StartDate:  ctx.Query("startDate"),
		EndDate:    ctx.Query("endDate"),
		SortBy:     ctx.DefaultQuery("sortBy", "completedAt"),
		SortOrder:  ctx.DefaultQuery("sortOrder", "desc"),
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// @Summary 表现分析
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param timeframe query string false "时间窗口" Enums(7d, 30d, 90d, 1y) default(30d)
// @Success 200 {object} util.Response{data=model.AnalyticsSnapshot}
// @Router /api/dashboard/analytics [get]
func (c *DashboardController) GetAnalytics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	snapshot, err := c.AnalyticsService.GetAnalytics(ctx.Request.Context(), user.UserID, ctx.DefaultQuery("timeframe", service.DefaultTimeframe))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, snapshot)
}

// @Summary 导出作答历史
// @Description 生成 xlsx 并上传到配置的存储，返回下载地址
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ExportOutcome}
// @Router /api/dashboard/history/export [post]
func (c *DashboardController) ExportHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	outcome, err := c.ExportService.ExportHistory(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, outcome)
}
