package app

import (
	"quiz_platform_backend/docs"
	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/middleware"
	"quiz_platform_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	// 1. 测验浏览：可选认证，创建者能看到完整内容
	a.registerQuizRoutes(api, c, repos, cfg)

	// 2. 仪表盘：强制认证
	dashboard := api.Group("/dashboard")
	dashboard.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		dashboard.GET("", c.dashboard.GetDashboard)
		dashboard.GET("/results/:id", c.dashboard.GetTestResult)
		dashboard.GET("/history", c.dashboard.GetTestHistory)
		dashboard.POST("/history/export", c.dashboard.ExportHistory)
		dashboard.GET("/analytics", c.dashboard.GetAnalytics)
	}
}

func (a *App) registerQuizRoutes(api *gin.RouterGroup, c *controllers, repos *repositories, cfg *config.Config) {
	quizzes := api.Group("/quizzes")
	{
		quizzes.GET("", middleware.TryAuthMiddleware(cfg), c.quiz.ListQuizzes)
		quizzes.GET("/categories", c.quiz.GetCategories)
		quizzes.GET("/:id", middleware.TryAuthMiddleware(cfg), c.quiz.GetQuiz)

		authorized := quizzes.Group("")
		authorized.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
		{
			authorized.GET("/user/my-quizzes", c.quiz.GetMyQuizzes)
			authorized.POST("", c.quiz.CreateQuiz)
			authorized.PUT("/:id", c.quiz.UpdateQuiz)
			authorized.DELETE("/:id", c.quiz.DeleteQuiz)
			authorized.POST("/:id/submit", c.quiz.SubmitQuiz)
			authorized.POST("/:id/stats/refresh", c.quiz.RefreshStats)
		}
	}
}
