package repository

import (
	"context"
	"strings"
	"time"

	"quiz_platform_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// QuizListFilter 公开测验列表查询条件
type QuizListFilter struct {
	Category   model.Category
	Difficulty model.Difficulty
	Search     string
	SortBy     string
	Desc       bool
	Offset     int
	Limit      int
}

// CategoryCount 分类计数
type CategoryCount struct {
	Category model.Category
	Count    int
}

// 我的测验状态筛选
const (
	QuizStatusAll      = "all"
	QuizStatusActive   = "active"
	QuizStatusInactive = "inactive"
)

var quizSortColumns = map[string]string{
	"createdAt":     "created_at",
	"title":         "title",
	"totalAttempts": "stats_total_attempts",
	"averageScore":  "stats_average_score",
}

// QuizSortColumn 未知字段按创建时间排序
func QuizSortColumn(sortBy string) string {
	if col, ok := quizSortColumns[sortBy]; ok {
		return col
	}
	return "created_at"
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	for i := range quiz.Questions {
		quiz.Questions[i].Position = i
	}
	return r.DB.WithContext(ctx).Create(quiz).Error
}

// FindByID 含题目（按顺序）
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		First(&quiz, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ListPublic 仅公开且启用的测验，不加载题目
func (r *QuizRepository) ListPublic(ctx context.Context, filter QuizListFilter) ([]model.Quiz, int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.Quiz{}).
		Where("is_public = ? AND is_active = ?", true, true)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(CAST(tags AS CHAR)) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []model.Quiz
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: QuizSortColumn(filter.SortBy)}, Desc: filter.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&quizzes).Error
	return quizzes, total, err
}

// ListByCreator limit<=0 时返回全部
func (r *QuizRepository) ListByCreator(ctx context.Context, creatorID, status string, offset, limit int) ([]model.Quiz, int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.Quiz{}).Where("creator_id = ?", creatorID)
	switch status {
	case QuizStatusActive:
		query = query.Where("is_active = ?", true)
	case QuizStatusInactive:
		query = query.Where("is_active = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var quizzes []model.Quiz
	err := query.Find(&quizzes).Error
	return quizzes, total, err
}

// QuestionCounts 每个测验的题目数
func (r *QuizRepository) QuestionCounts(ctx context.Context, quizIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(quizIDs))
	if len(quizIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		QuizID string
		Count  int
	}
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Select("quiz_id, COUNT(*) AS count").
		Where("quiz_id IN ?", quizIDs).
		Group("quiz_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.QuizID] = row.Count
	}
	return counts, nil
}

// Update 保存测验字段；replaceQuestions 为 true 时整体替换题目
func (r *QuizRepository) Update(ctx context.Context, quiz *model.Quiz, replaceQuestions bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replaceQuestions {
			if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&model.Question{}).Error; err != nil {
				return err
			}
			for i := range quiz.Questions {
				quiz.Questions[i].ID = ""
				quiz.Questions[i].QuizID = quiz.ID
				quiz.Questions[i].Position = i
			}
			if len(quiz.Questions) > 0 {
				if err := tx.Create(&quiz.Questions).Error; err != nil {
					return err
				}
			}
		}
		// 统计字段由自增和重算维护，这里不覆盖
		return tx.Omit(clause.Associations, "stats_total_attempts", "stats_average_score").Save(quiz).Error
	})
}

// Deactivate 软删除：下线并设为私有，保留历史结果
func (r *QuizRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.Quiz{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":      false,
			"is_public":      false,
			"deactivated_at": at,
		}).Error
}

// Delete 物理删除测验及题目
func (r *QuizRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Quiz{}).Error
	})
}

// IncrementAttempts 原子自增，不做读改写
func (r *QuizRepository) IncrementAttempts(ctx context.Context, id string, delta int) error {
	return incrementAttempts(r.DB.WithContext(ctx), id, delta)
}

func incrementAttempts(db *gorm.DB, id string, delta int) error {
	return db.Model(&model.Quiz{}).
		Where("id = ?", id).
		UpdateColumn("stats_total_attempts", gorm.Expr("stats_total_attempts + ?", delta)).Error
}

func (r *QuizRepository) UpdateAverageScore(ctx context.Context, id string, average int) error {
	return r.DB.WithContext(ctx).Model(&model.Quiz{}).
		Where("id = ?", id).
		UpdateColumn("stats_average_score", average).Error
}

// CategoryCounts 公开且启用测验的分类分布
func (r *QuizRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.DB.WithContext(ctx).Model(&model.Quiz{}).
		Select("category, COUNT(*) AS count").
		Where("is_public = ? AND is_active = ?", true, true).
		Group("category").
		Scan(&rows).Error
	return rows, err
}

// ListIDsWithAttempts 有作答记录的测验，用于重算平均分
func (r *QuizRepository) ListIDsWithAttempts(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Quiz{}).
		Where("stats_total_attempts > ?", 0).
		Pluck("id", &ids).Error
	return ids, err
}
