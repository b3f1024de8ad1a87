package controller

import (
	"quiz_platform_backend/internal/grading"
	"quiz_platform_backend/internal/middleware"
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService       *service.QuizService
	SubmissionService *service.SubmissionService
}

func NewQuizController(quizService *service.QuizService, submissionService *service.SubmissionService) *QuizController {
	return &QuizController{
		QuizService:       quizService,
		SubmissionService: submissionService,
	}
}

// SubmitQuizRequest 答案按题目顺序排列，answers 必须存在（可以为空数组）；
// 单个元素缺失字段、类型不对或不是对象时按非法选项判错
type SubmitQuizRequest struct {
	Answers   []*grading.RawAnswer `json:"answers" binding:"required"`
	TimeSpent any                  `json:"timeSpent"`
}

// @Summary 测验列表
// @Description 公开且启用的测验，支持分类、难度、关键字筛选
// @Tags 测验
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(12)
// @Param category query string false "分类"
// @Param difficulty query string false "难度" Enums(Easy, Medium, Hard)
// @Param search query string false "标题、描述或标签关键字"
// @Param sortBy query string false "排序字段" Enums(createdAt, title, totalAttempts, averageScore)
// @Param sortOrder query string false "排序方向" Enums(asc, desc)
// @Success 200 {object} util.Response{data=service.QuizPage}
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, err := c.QuizService.ListQuizzes(ctx.Request.Context(), service.QuizListQuery{
		Category:   ctx.Query("category"),
		Difficulty: ctx.Query("difficulty"),
		Search:     ctx.Query("search"),
		SortBy:     ctx.DefaultQuery("sortBy", "createdAt"),
		SortOrder:  ctx.DefaultQuery("sortOrder", "desc"),
		Page:       util.AtoiDefault(ctx.Query("page"), 1),
		Limit:      util.LimitParam(ctx.Query("limit"), util.DefaultQuizPageSize),
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, page)
}

// @Summary 分类统计
// @Tags 测验
// @Produce json
// @Success 200 {object} util.Response{data=[]service.CategoryInfo}
// @Router /api/quizzes/categories [get]
func (c *QuizController) GetCategories(ctx *gin.Context) {
	categories, err := c.QuizService.GetCategories(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// @Summary 测验详情
// @Description 创建者可见正确答案和解析，其他人只能看到题目和选项
// @Tags 测验
// @Produce json
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	view, err := c.QuizService.GetQuiz(ctx.Request.Context(), ctx.Param("id"), util.CallerID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 创建测验
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.QuizRequest true "测验内容"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, middleware.BindingError(err))
		return
	}

	quiz, err := c.QuizService.CreateQuiz(ctx.Request.Context(), user.UserID, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 更新测验
// @Description 仅创建者；传入 questions 时整体替换题目
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param request body service.QuizPatch true "需要修改的字段"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Router /api/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var patch service.QuizPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.HandleError(ctx, middleware.BindingError(err))
		return
	}

	quiz, err := c.QuizService.UpdateQuiz(ctx.Request.Context(), ctx.Param("id"), user.UserID, &patch)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Quiz updated successfully", quiz)
}

// @Summary 删除测验
// @Description 已有作答记录时改为停用
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response{data=service.DeleteOutcome}
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	outcome, err := c.QuizService.DeleteQuiz(ctx.Request.Context(), ctx.Param("id"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	message := "Quiz deleted successfully"
	if outcome.Deactivated {
		message = "Quiz deactivated because it has existing results"
	}
	util.SuccessMessage(ctx, message, outcome)
}

// @Summary 提交答案
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param request body SubmitQuizRequest true "答案"
// @Success 200 {object} util.Response{data=model.TestResult}
// @Failure 400 {object} util.Response
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, middleware.BindingError(err))
		return
	}

	result, err := c.SubmissionService.SubmitQuiz(ctx.Request.Context(), &service.SubmitRequest{
		QuizID:    ctx.Param("id"),
		UserID:    user.UserID,
		Answers:   req.Answers,
		TimeSpent: req.TimeSpent,
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.GetHeader("User-Agent"),
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, "Quiz submitted successfully", result)
}

// @Summary 重算测验统计
// @Description 仅创建者，按全部结果重算平均分
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response{data=model.QuizStats}
// @Router /api/quizzes/{id}/stats/refresh [post]
func (c *QuizController) RefreshStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.QuizService.RefreshStats(ctx.Request.Context(), ctx.Param("id"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 我创建的测验
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param status query string false "状态" Enums(all, active, inactive)
// @Success 200 {object} util.Response{data=service.MyQuizPage}
// @Router /api/quizzes/user/my-quizzes [get]
func (c *QuizController) GetMyQuizzes(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, err := c.QuizService.GetMyQuizzes(ctx.Request.Context(), user.UserID,
		ctx.DefaultQuery("status", "all"),
		util.AtoiDefault(ctx.Query("page"), 1),
		util.LimitParam(ctx.Query("limit"), util.DefaultPageSize),
	)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, page)
}
