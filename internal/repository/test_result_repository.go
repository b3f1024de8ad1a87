package repository

import (
	"context"
	"time"

	"quiz_platform_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TestResultRepository struct {
	DB *gorm.DB
}

func NewTestResultRepository(db *gorm.DB) *TestResultRepository {
	return &TestResultRepository{DB: db}
}

// ResultQuery 结果联表查询条件
type ResultQuery struct {
	UserID string
	Since  *time.Time
	// 只返回测验仍存在的结果
	RequireQuiz bool
	Limit       int
}

// HistoryFilter 历史记录筛选，SortBy 为接口字段名
type HistoryFilter struct {
	UserID     string
	Category   model.Category
	Difficulty model.Difficulty
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	Desc       bool
	Offset     int
	Limit      int
}

// QuizScoreStats 单个测验的作答统计
type QuizScoreStats struct {
	QuizID   string
	Attempts int
	Average  float64
}

var historySortColumns = map[string]string{
	"completedAt":  "test_results.completed_at",
	"percentage":   "test_results.percentage",
	"timeSpent":    "test_results.time_spent",
	"earnedPoints": "test_results.earned_points",
}

// HistorySortColumn 未知字段按完成时间排序
func HistorySortColumn(sortBy string) string {
	if col, ok := historySortColumns[sortBy]; ok {
		return col
	}
	return historySortColumns["completedAt"]
}

const resultWithQuizColumns = "test_results.*, quizzes.title AS quiz_title, quizzes.category AS quiz_category, quizzes.difficulty AS quiz_difficulty"

// RecordSubmission 同一事务内写入结果并自增测验作答次数
func (r *TestResultRepository) RecordSubmission(ctx context.Context, result *model.TestResult) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		return incrementAttempts(tx, result.QuizID, 1)
	})
}

func (r *TestResultRepository) FindByID(ctx context.Context, id string) (*model.TestResult, error) {
	var result model.TestResult
	if err := r.DB.WithContext(ctx).First(&result, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *TestResultRepository) ExistsForUserAndQuiz(ctx context.Context, userID, quizID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.TestResult{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *TestResultRepository) CountByQuiz(ctx context.Context, quizID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.TestResult{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

// ScoreStatsByQuizzes 按测验汇总作答次数和平均百分比
func (r *TestResultRepository) ScoreStatsByQuizzes(ctx context.Context, quizIDs []string) (map[string]QuizScoreStats, error) {
	stats := make(map[string]QuizScoreStats, len(quizIDs))
	if len(quizIDs) == 0 {
		return stats, nil
	}

	var rows []QuizScoreStats
	err := r.DB.WithContext(ctx).Model(&model.TestResult{}).
		Select("quiz_id, COUNT(*) AS attempts, AVG(percentage) AS average").
		Where("quiz_id IN ?", quizIDs).
		Group("quiz_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats[row.QuizID] = row
	}
	return stats, nil
}

// ListWithQuiz 按完成时间倒序，左联测验；测验已删除时 Quiz* 字段为空
func (r *TestResultRepository) ListWithQuiz(ctx context.Context, q ResultQuery) ([]model.ResultWithQuiz, error) {
	join := "LEFT JOIN quizzes ON quizzes.id = test_results.quiz_id"
	if q.RequireQuiz {
		join = "JOIN quizzes ON quizzes.id = test_results.quiz_id"
	}

	query := r.DB.WithContext(ctx).Table("test_results").
		Select(resultWithQuizColumns).
		Joins(join).
		Where("test_results.user_id = ?", q.UserID)
	if q.Since != nil {
		query = query.Where("test_results.completed_at >= ?", q.Since.UTC())
	}
	query = query.Order("test_results.completed_at DESC").Order("test_results.id")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []model.ResultWithQuiz
	err := query.Scan(&rows).Error
	return rows, err
}

// History 分页历史记录，只包含测验仍存在的结果，total 与分页使用同一条件
func (r *TestResultRepository) History(ctx context.Context, f HistoryFilter) ([]model.ResultWithQuiz, int64, error) {
	query := r.DB.WithContext(ctx).Table("test_results").
		Joins("JOIN quizzes ON quizzes.id = test_results.quiz_id").
		Where("test_results.user_id = ?", f.UserID)

	if f.Category != "" {
		query = query.Where("quizzes.category = ?", f.Category)
	}
	if f.Difficulty != "" {
		query = query.Where("quizzes.difficulty = ?", f.Difficulty)
	}
	if f.StartDate != nil {
		query = query.Where("test_results.completed_at >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		query = query.Where("test_results.completed_at <= ?", f.EndDate.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.ResultWithQuiz
	err := query.
		Select(resultWithQuizColumns).
		Order(clause.OrderByColumn{Column: clause.Column{Name: HistorySortColumn(f.SortBy), Raw: true}, Desc: f.Desc}).
		Order("test_results.id").
		Offset(f.Offset).
		Limit(f.Limit).
		Scan(&rows).Error
	return rows, total, err
}
