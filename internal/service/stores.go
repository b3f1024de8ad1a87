package service

import (
	"context"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
)

// QuizStore 测验存储，由 repository.QuizRepository 实现
type QuizStore interface {
	Create(ctx context.Context, quiz *model.Quiz) error
	FindByID(ctx context.Context, id string) (*model.Quiz, error)
	ListPublic(ctx context.Context, filter repository.QuizListFilter) ([]model.Quiz, int64, error)
	ListByCreator(ctx context.Context, creatorID, status string, offset, limit int) ([]model.Quiz, int64, error)
	QuestionCounts(ctx context.Context, quizIDs []string) (map[string]int, error)
	Update(ctx context.Context, quiz *model.Quiz, replaceQuestions bool) error
	Deactivate(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// IncrementAttempts 必须是存储层的原子自增
	IncrementAttempts(ctx context.Context, id string, delta int) error
	UpdateAverageScore(ctx context.Context, id string, average int) error
	CategoryCounts(ctx context.Context) ([]repository.CategoryCount, error)
	ListIDsWithAttempts(ctx context.Context) ([]string, error)
}

// ResultStore 测验结果存储，由 repository.TestResultRepository 实现
type ResultStore interface {
	// RecordSubmission 写入结果并自增作答次数，二者同成同败
	RecordSubmission(ctx context.Context, result *model.TestResult) error
	FindByID(ctx context.Context, id string) (*model.TestResult, error)
	ExistsForUserAndQuiz(ctx context.Context, userID, quizID string) (bool, error)
	CountByQuiz(ctx context.Context, quizID string) (int64, error)
	ScoreStatsByQuizzes(ctx context.Context, quizIDs []string) (map[string]repository.QuizScoreStats, error)
	ListWithQuiz(ctx context.Context, q repository.ResultQuery) ([]model.ResultWithQuiz, error)
	History(ctx context.Context, f repository.HistoryFilter) ([]model.ResultWithQuiz, int64, error)
}

// UserStore 本地用户资料，由 repository.UserRepository 实现
type UserStore interface {
	Upsert(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error)
}

var (
	_ QuizStore   = (*repository.QuizRepository)(nil)
	_ ResultStore = (*repository.TestResultRepository)(nil)
	_ UserStore   = (*repository.UserRepository)(nil)
)
