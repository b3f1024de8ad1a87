package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"
	"quiz_platform_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 重算平均分时每批查询的测验数
const recalcBatchSize = 200

type QuizService struct {
	QuizRepo   QuizStore
	ResultRepo ResultStore
	UserRepo   UserStore
	Redis      *redis.Client
	Config     config.QuizConfig
}

func NewQuizService(quizRepo QuizStore, resultRepo ResultStore, userRepo UserStore, rdb *redis.Client, cfg config.QuizConfig) *QuizService {
	return &QuizService{
		QuizRepo:   quizRepo,
		ResultRepo: resultRepo,
		UserRepo:   userRepo,
		Redis:      rdb,
		Config:     cfg,
	}
}

// QuizListQuery 公开测验列表参数，未经校验
type QuizListQuery struct {
	Category   string
	Difficulty string
	Search     string
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

type CreatorInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// QuizSummary 列表行，不含题目内容
type QuizSummary struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       model.Category   `json:"category"`
	Difficulty     model.Difficulty `json:"difficulty"`
	TotalQuestions int              `json:"totalQuestions"`
	TotalPoints    int              `json:"totalPoints"`
	TimeLimit      int              `json:"timeLimit"`
	TotalAttempts  int              `json:"totalAttempts"`
	AverageScore   int              `json:"averageScore"`
	Tags           []string         `json:"tags"`
	Creator        CreatorInfo      `json:"creator"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type QuizPage struct {
	Quizzes    []QuizSummary    `json:"quizzes"`
	Pagination model.Pagination `json:"pagination"`
}

type MyQuizPage struct {
	Quizzes    []model.CreatedQuizSummary `json:"quizzes"`
	Pagination model.Pagination           `json:"pagination"`
}

// DeleteOutcome 有作答记录时只做停用
type DeleteOutcome struct {
	Deleted     bool `json:"deleted,omitempty"`
	Deactivated bool `json:"deactivated,omitempty"`
}

type CategoryInfo struct {
	Name  model.Category `json:"name"`
	Count int            `json:"count"`
	Slug  string         `json:"slug"`
}

func (s *QuizService) loadQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz %s: %w", id, err)
	}
	return quiz, nil
}

// CreateQuiz 校验后在一个事务中保存测验和题目
func (s *QuizService) CreateQuiz(ctx context.Context, creatorID string, req *QuizRequest) (*model.Quiz, error) {
	quiz, err := ValidateQuizRequest(req)
	if err != nil {
		return nil, err
	}
	quiz.CreatorID = creatorID

	if err := s.QuizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	s.invalidateCategories(ctx)

	logger.Log.Info("Quiz created",
		zap.String("quizId", quiz.ID),
		zap.String("creatorId", creatorID),
		zap.Int("questions", len(quiz.Questions)),
		zap.Int("totalPoints", quiz.TotalPoints),
	)
	return quiz, nil
}

// GetQuiz 创建者拿到完整测验，其他人拿到隐藏答案的版本
func (s *QuizService) GetQuiz(ctx context.Context, quizID, callerID string) (*QuizView, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := CanViewQuiz(quiz, callerID); err != nil {
		return nil, err
	}

	var view *QuizView
	if quiz.IsOwnedBy(callerID) {
		view = FullQuiz(quiz)
	} else {
		view = RedactQuiz(quiz)
	}

	if creator, err := s.UserRepo.FindByID(ctx, quiz.CreatorID); err == nil {
		view.CreatorName = creator.Username
	}
	return view, nil
}

// ListQuizzes 公开且启用的测验
func (s *QuizService) ListQuizzes(ctx context.Context, q QuizListQuery) (*QuizPage, error) {
	verr := &util.ValidationError{}
	filter := repository.QuizListFilter{
		Search: strings.TrimSpace(q.Search),
		SortBy: q.SortBy,
		Desc:   !strings.EqualFold(q.SortOrder, "asc"),
	}
	if q.Category != "" {
		filter.Category = model.Category(q.Category)
		if !filter.Category.IsValid() {
			verr.Add("category", "Invalid category")
		}
	}
	if q.Difficulty != "" {
		filter.Difficulty = model.Difficulty(q.Difficulty)
		if !filter.Difficulty.IsValid() {
			verr.Add("difficulty", "Invalid difficulty")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	page := util.ClampPage(q.Page)
	limit := util.ClampLimit(q.Limit, util.DefaultQuizPageSize)
	filter.Offset = util.Offset(page, limit)
	filter.Limit = limit

	quizzes, total, err := s.QuizRepo.ListPublic(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	ids := make([]string, 0, len(quizzes))
	creatorIDs := make([]string, 0, len(quizzes))
	for _, quiz := range quizzes {
		ids = append(ids, quiz.ID)
		creatorIDs = append(creatorIDs, quiz.CreatorID)
	}
	counts, err := s.QuizRepo.QuestionCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	creators, err := s.UserRepo.FindByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, fmt.Errorf("load creators: %w", err)
	}

	items := make([]QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		items = append(items, QuizSummary{
			ID:             quiz.ID,
			Title:          quiz.Title,
			Description:    quiz.Description,
			Category:       quiz.Category,
			Difficulty:     quiz.Difficulty,
			TotalQuestions: counts[quiz.ID],
			TotalPoints:    quiz.TotalPoints,
			TimeLimit:      quiz.TimeLimit,
			TotalAttempts:  quiz.Stats.TotalAttempts,
			AverageScore:   quiz.Stats.AverageScore,
			Tags:           append([]string{}, quiz.Tags...),
			Creator:        CreatorInfo{ID: quiz.CreatorID, Username: creators[quiz.CreatorID].Username},
			CreatedAt:      quiz.CreatedAt,
		})
	}

	return &QuizPage{
		Quizzes:    items,
		Pagination: model.NewPagination(page, limit, total),
	}, nil
}

// UpdateQuiz 仅创建者；题目整体替换时重新计算总分
func (s *QuizService) UpdateQuiz(ctx context.Context, quizID, callerID string, patch *QuizPatch) (*model.Quiz, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := CanModifyQuiz(quiz, callerID); err != nil {
		return nil, err
	}

	replaceQuestions, err := ApplyQuizPatch(quiz, patch)
	if err != nil {
		return nil, err
	}
	if err := s.QuizRepo.Update(ctx, quiz, replaceQuestions); err != nil {
		return nil, fmt.Errorf("update quiz %s: %w", quizID, err)
	}
	s.invalidateCategories(ctx)

	logger.Log.Info("Quiz updated",
		zap.String("quizId", quiz.ID),
		zap.Bool("questionsReplaced", replaceQuestions),
	)
	return quiz, nil
}

// DeleteQuiz 已有作答记录时停用并设为私有，保留历史结果
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID, callerID string) (*DeleteOutcome, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := CanDeleteQuiz(quiz, callerID); err != nil {
		return nil, err
	}

	count, err := s.ResultRepo.CountByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("count results of quiz %s: %w", quizID, err)
	}
	defer s.invalidateCategories(ctx)

	if count > 0 {
		if err := s.QuizRepo.Deactivate(ctx, quizID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("deactivate quiz %s: %w", quizID, err)
		}
		logger.Log.Info("Quiz deactivated",
			zap.String("quizId", quizID),
			zap.Int64("results", count),
		)
		return &DeleteOutcome{Deactivated: true}, nil
	}

	if err := s.QuizRepo.Delete(ctx, quizID); err != nil {
		return nil, fmt.Errorf("delete quiz %s: %w", quizID, err)
	}
	logger.Log.Info("Quiz deleted", zap.String("quizId", quizID))
	return &DeleteOutcome{Deleted: true}, nil
}

// GetMyQuizzes 创建者自己的测验，status 为 all|active|inactive
func (s *QuizService) GetMyQuizzes(ctx context.Context, creatorID, status string, page, limit int) (*MyQuizPage, error) {
	switch status {
	case "", repository.QuizStatusAll:
		status = repository.QuizStatusAll
	case repository.QuizStatusActive, repository.QuizStatusInactive:
	default:
		return nil, util.NewValidationError("status", "Status must be one of all, active, inactive")
	}

	page = util.ClampPage(page)
	limit = util.ClampLimit(limit, util.DefaultPageSize)

	quizzes, total, err := s.QuizRepo.ListByCreator(ctx, creatorID, status, util.Offset(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("list quizzes of %s: %w", creatorID, err)
	}

	ids := make([]string, 0, len(quizzes))
	for _, quiz := range quizzes {
		ids = append(ids, quiz.ID)
	}
	counts, err := s.QuizRepo.QuestionCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	items := make([]model.CreatedQuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		items = append(items, model.CreatedQuizSummary{
			ID:            quiz.ID,
			Title:         quiz.Title,
			Category:      quiz.Category,
			Difficulty:    quiz.Difficulty,
			IsPublic:      quiz.IsPublic,
			IsActive:      quiz.IsActive,
			QuestionCount: counts[quiz.ID],
			TotalAttempts: quiz.Stats.TotalAttempts,
			AverageScore:  quiz.Stats.AverageScore,
			CreatedAt:     quiz.CreatedAt,
		})
	}

	return &MyQuizPage{
		Quizzes:    items,
		Pagination: model.NewPagination(page, limit, total),
	}, nil
}

// GetCategories 公开启用测验的分类分布，按数量降序、名称升序；Redis 可用时缓存
func (s *QuizService) GetCategories(ctx context.Context) ([]CategoryInfo, error) {
	if cached, ok := s.cachedCategories(ctx); ok {
		return cached, nil
	}

	counts, err := s.QuizRepo.CategoryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}

	categories := make([]CategoryInfo, 0, len(counts))
	for _, c := range counts {
		categories = append(categories, CategoryInfo{Name: c.Category, Count: c.Count, Slug: c.Category.Slug()})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Name < categories[j].Name
	})

	s.cacheCategories(ctx, categories)
	return categories, nil
}

func (s *QuizService) cachedCategories(ctx context.Context) ([]CategoryInfo, bool) {
	if s.Redis == nil {
		return nil, false
	}
	raw, err := s.Redis.Get(ctx, s.Config.RedisKey("categories")).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Failed to read categories cache", zap.Error(err))
		}
		return nil, false
	}
	var categories []CategoryInfo
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false
	}
	return categories, true
}

func (s *QuizService) cacheCategories(ctx context.Context, categories []CategoryInfo) {
	if s.Redis == nil || s.Config.CategoriesCacheTTL() <= 0 {
		return
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, s.Config.RedisKey("categories"), raw, s.Config.CategoriesCacheTTL()).Err(); err != nil {
		logger.Log.Warn("Failed to write categories cache", zap.Error(err))
	}
}

func (s *QuizService) invalidateCategories(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, s.Config.RedisKey("categories")).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate categories cache", zap.Error(err))
	}
}

// RefreshStats 创建者手动触发平均分重算
func (s *QuizService) RefreshStats(ctx context.Context, quizID, callerID string) (*model.QuizStats, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := CanModifyQuiz(quiz, callerID); err != nil {
		return nil, err
	}
	return s.RecalculateStats(ctx, quizID)
}

// RecalculateStats 全量扫描结果重算平均分；作答次数仍以自增计数为准
func (s *QuizService) RecalculateStats(ctx context.Context, quizID string) (*model.QuizStats, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	stats, err := s.ResultRepo.ScoreStatsByQuizzes(ctx, []string{quizID})
	if err != nil {
		return nil, fmt.Errorf("score stats of quiz %s: %w", quizID, err)
	}
	average := roundAverage(stats[quizID].Average)
	if err := s.QuizRepo.UpdateAverageScore(ctx, quizID, average); err != nil {
		return nil, fmt.Errorf("update average of quiz %s: %w", quizID, err)
	}
	monitoring.StatsRecalculations.Inc()

	return &model.QuizStats{
		TotalAttempts: quiz.Stats.TotalAttempts,
		AverageScore:  average,
	}, nil
}

// RecalculateAllStats 重算所有有作答记录的测验，返回更新数量
func (s *QuizService) RecalculateAllStats(ctx context.Context) (int, error) {
	ids, err := s.QuizRepo.ListIDsWithAttempts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list quizzes with attempts: %w", err)
	}

	updated := 0
	for start := 0; start < len(ids); start += recalcBatchSize {
		end := start + recalcBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		stats, err := s.ResultRepo.ScoreStatsByQuizzes(ctx, batch)
		if err != nil {
			return updated, fmt.Errorf("score stats: %w", err)
		}
		for _, id := range batch {
			if err := s.QuizRepo.UpdateAverageScore(ctx, id, roundAverage(stats[id].Average)); err != nil {
				return updated, fmt.Errorf("update average of quiz %s: %w", id, err)
			}
			updated++
		}
	}

	monitoring.StatsRecalculations.Inc()
	logger.Log.Info("Quiz statistics recalculated", zap.Int("quizzes", updated))
	return updated, nil
}

func roundAverage(avg float64) int {
	return int(math.Floor(avg + 0.5))
}
