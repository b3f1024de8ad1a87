// 手动重算全部测验的平均分
//
// 主应用已按 stats.recalc_interval_minutes 定时执行，此脚本用于导入历史结果后立即修正。
//
// 用法: go run scripts/recalculate_stats.go

package main

import (
	"context"
	"log"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/service"
	"quiz_platform_backend/pkg/database"
	"quiz_platform_backend/pkg/logger"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("无法读取 .env: %v", err)
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	quizService := service.NewQuizService(
		repository.NewQuizRepository(db),
		repository.NewTestResultRepository(db),
		repository.NewUserRepository(db),
		nil,
		cfg.Quiz,
	)

	log.Println("开始重算测验统计...")
	n, err := quizService.RecalculateAllStats(context.Background())
	if err != nil {
		log.Fatalf("重算失败: %v", err)
	}
	log.Printf("完成！共更新 %d 个测验", n)
}
