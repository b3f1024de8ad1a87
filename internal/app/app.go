package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/controller"
	"quiz_platform_backend/internal/middleware"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/configwatcher"
	"quiz_platform_backend/pkg/database"
	"quiz_platform_backend/pkg/logger"
	"quiz_platform_backend/pkg/monitoring"
	"quiz_platform_backend/pkg/security"
	"quiz_platform_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigFile 热加载监听的配置文件
const ConfigFile = "configs/config.yaml"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	cors            *security.CORSPolicy
	scheduler       *gocron.Scheduler
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user   *repository.UserRepository
	quiz   *repository.QuizRepository
	result *repository.TestResultRepository
}

type services struct {
	quiz       *service.QuizService
	submission *service.SubmissionService
	dashboard  *service.DashboardService
	analytics  *service.AnalyticsService
	export     *service.ExportService
	storage    service.StorageProvider
}

type controllers struct {
	quiz      *controller.QuizController
	dashboard *controller.DashboardController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:   repository.NewUserRepository(db),
		quiz:   repository.NewQuizRepository(db),
		result: repository.NewTestResultRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageProvider(&cfg.Storage)
	s.quiz = service.NewQuizService(repos.quiz, repos.result, repos.user, rdb, cfg.Quiz)
	s.submission = service.NewSubmissionService(repos.quiz, repos.result, rdb, cfg.Quiz)
	s.dashboard = service.NewDashboardService(repos.quiz, repos.result, repos.user)
	s.analytics = service.NewAnalyticsService(repos.result)
	s.export = service.NewExportService(repos.result, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		quiz:      controller.NewQuizController(s.quiz, s.submission),
		dashboard: controller.NewDashboardController(s.dashboard, s.analytics, s.export),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(a.cors.Middleware())
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时重算测验平均分
func (a *App) startBackgroundTasks(s *services) {
	interval := a.Config.Stats.RecalcIntervalMinutes
	if interval <= 0 {
		return
	}

	a.scheduler = gocron.NewScheduler(time.UTC)
	_, err := a.scheduler.Every(interval).Minutes().SingletonMode().WaitForSchedule().Do(func() {
		if _, err := s.quiz.RecalculateAllStats(a.ctx); err != nil {
			logger.Log.Error("Scheduled stats recalculation failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Log.Error("Failed to schedule stats recalculation", zap.Error(err))
		return
	}
	a.scheduler.StartAsync()
}

// watchConfig 配置文件变更后刷新 CORS 白名单并通知已注册的回调
func (a *App) watchConfig() {
	if _, err := os.Stat(ConfigFile); err != nil {
		return
	}
	go func() {
		err := configwatcher.Watch(a.ctx, ConfigFile, func(newCfg *config.Config) {
			a.cors.SetOrigins(newCfg.CORS.AllowedOrigins)
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()
}

// New 组装路由和依赖，不做任何外部连接；测试直接传入 sqlite 连接
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	ctx, cancel := context.WithCancel(ctx)
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		cors:   security.NewCORSPolicy(cfg.CORS.AllowedOrigins),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := middleware.RegisterValidators(); err != nil {
		logger.Log.Error("Failed to register validators", zap.Error(err))
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal || cfg.Storage.Type == "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Database.Driver == "sqlite")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis 只用于缓存和提交锁，不可用时降级运行
		logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		rdb = nil
	}

	// 监控初始化
	monitoring.Init()

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer(cfg.Server.Name, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	if cfg.Storage.Type == util.StorageLocal && cfg.Storage.LocalPath != "" {
		if err := os.MkdirAll(filepath.Clean(cfg.Storage.LocalPath), os.ModePerm); err != nil {
			logger.Log.Warn("Failed to create upload dir", zap.Error(err))
		}
	}

	app := New(context.Background(), cfg, db, rdb)
	app.tracer = tp
	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	a.startBackgroundTasks(a.services)
	a.watchConfig()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close()

	logger.Log.Info("Server exiting")
}

// Close 停止后台任务并释放连接
func (a *App) Close() {
	a.cancel()
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
