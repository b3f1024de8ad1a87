package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/grading"
	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"
	"quiz_platform_backend/pkg/monitoring"
	"quiz_platform_backend/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmissionService struct {
	QuizRepo   QuizStore
	ResultRepo ResultStore
	Redis      *redis.Client
	Config     config.QuizConfig
	// Now 测试中可替换
	Now func() time.Time
}

func NewSubmissionService(quizRepo QuizStore, resultRepo ResultStore, rdb *redis.Client, cfg config.QuizConfig) *SubmissionService {
	return &SubmissionService{
		QuizRepo:   quizRepo,
		ResultRepo: resultRepo,
		Redis:      rdb,
		Config:     cfg,
		Now:        time.Now,
	}
}

// SubmitRequest 提交内容，答案按题目顺序排列
type SubmitRequest struct {
	QuizID    string
	UserID    string
	Answers   []*grading.RawAnswer
	TimeSpent any
	IPAddress string
	UserAgent string
}

// SubmitQuiz 前置检查依次为：存在、启用、重做规则，全部通过后才判分。
// 结果写入和作答次数自增在同一事务内，被拒绝的提交不会留下任何记录。
func (s *SubmissionService) SubmitQuiz(ctx context.Context, req *SubmitRequest) (result *model.TestResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.SubmitQuiz",
		attribute.String("quiz.id", req.QuizID),
		attribute.String("user.id", req.UserID),
	)
	defer func() { tracing.EndSpan(span, err) }()

	quiz, err := s.QuizRepo.FindByID(ctx, req.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz %s: %w", req.QuizID, err)
	}

	if !quiz.IsActive {
		monitoring.SubmissionRejections.WithLabelValues("inactive").Inc()
		return nil, util.ErrQuizNotActive
	}

	release := func() {}
	if !quiz.Settings.AllowRetake {
		taken, err := s.ResultRepo.ExistsForUserAndQuiz(ctx, req.UserID, req.QuizID)
		if err != nil {
			return nil, fmt.Errorf("check previous attempts: %w", err)
		}
		if taken {
			monitoring.SubmissionRejections.WithLabelValues("retake").Inc()
			return nil, util.ErrRetakeNotAllowed
		}

		acquired, unlock := s.acquireGuard(ctx, req.UserID, req.QuizID)
		if !acquired {
			monitoring.SubmissionRejections.WithLabelValues("retake").Inc()
			return nil, util.ErrRetakeNotAllowed
		}
		release = unlock
	}

	outcome := grading.Grade(quiz, req.Answers, req.TimeSpent)
	result = outcome.Result(req.UserID, req.QuizID, s.Now())
	result.IPAddress = req.IPAddress
	result.UserAgent = req.UserAgent

	if err := s.ResultRepo.RecordSubmission(ctx, result); err != nil {
		release()
		return nil, fmt.Errorf("record submission: %w", err)
	}

	monitoring.ObserveSubmission(result.Grade, result.IsPassed)
	span.SetAttributes(
		attribute.Int("result.percentage", result.Percentage),
		attribute.String("result.grade", result.Grade),
	)
	logger.Log.Info("Quiz submitted",
		zap.String("quizId", req.QuizID),
		zap.String("userId", req.UserID),
		zap.String("resultId", result.ID),
		zap.Int("percentage", result.Percentage),
		zap.String("grade", result.Grade),
	)
	return result, nil
}

// acquireGuard 不允许重做的测验，同一用户的并发提交只放行一个。
// Redis 未配置或出错时放行，退化为仅依赖存在性检查。
func (s *SubmissionService) acquireGuard(ctx context.Context, userID, quizID string) (bool, func()) {
	noop := func() {}
	ttl := s.Config.SubmitGuardTTL()
	if s.Redis == nil || ttl <= 0 {
		return true, noop
	}

	key := s.Config.RedisKey("submit", quizID, userID)
	ok, err := s.Redis.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		logger.Log.Warn("Submit guard unavailable", zap.String("key", key), zap.Error(err))
		return true, noop
	}
	if !ok {
		return false, noop
	}
	return true, func() {
		if err := s.Redis.Del(context.Background(), key).Err(); err != nil {
			logger.Log.Warn("Failed to release submit guard", zap.String("key", key), zap.Error(err))
		}
	}
}
