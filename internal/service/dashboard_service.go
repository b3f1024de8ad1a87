package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"quiz_platform_backend/internal/grading"
	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const activityQuizCompleted = "quiz_completed"

type DashboardService struct {
	QuizRepo   QuizStore
	ResultRepo ResultStore
	UserRepo   UserStore
	Now        func() time.Time
}

func NewDashboardService(quizRepo QuizStore, resultRepo ResultStore, userRepo UserStore) *DashboardService {
	return &DashboardService{
		QuizRepo:   quizRepo,
		ResultRepo: resultRepo,
		UserRepo:   userRepo,
		Now:        time.Now,
	}
}

// HistoryQuery 历史记录参数，未经校验
type HistoryQuery struct {
	UserID     string
	Page       int
	Limit      int
	Category   string
	Difficulty string
	StartDate  string
	EndDate    string
	SortBy     string
	SortOrder  string
}

// GetDashboard 结果和创建的测验并发加载，其余统计在内存中完成
func (s *DashboardService) GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	var (
		rows    []model.ResultWithQuiz
		created []model.CreatedQuizSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.ResultRepo.ListWithQuiz(gctx, repository.ResultQuery{UserID: userID})
		if err != nil {
			return fmt.Errorf("load results of %s: %w", userID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		created, err = s.createdQuizzes(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	dashboard := &model.Dashboard{
		Overview:            overview(rows, created),
		RecentTests:         recentTests(rows, util.RecentTestsLimit),
		CreatedQuizzes:      created,
		CategoryPerformance: categoryPerformance(rows),
		RecentActivity:      recentActivity(rows, now.AddDate(0, 0, -util.RecentActivityDays), util.RecentActivityLimit),
		PerformanceTrends:   monthlyTrends(rows, now.AddDate(0, -util.TrendMonths, 0)),
	}
	dashboard.Achievements = achievements(dashboard, now)
	return dashboard, nil
}

// createdQuizzes 作答次数和平均分按结果实时计算，而不是读冗余字段
func (s *DashboardService) createdQuizzes(ctx context.Context, userID string) ([]model.CreatedQuizSummary, error) {
	quizzes, _, err := s.QuizRepo.ListByCreator(ctx, userID, repository.QuizStatusAll, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load quizzes of %s: %w", userID, err)
	}

	ids := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	counts, err := s.QuizRepo.QuestionCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	stats, err := s.ResultRepo.ScoreStatsByQuizzes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("score stats: %w", err)
	}

	out := make([]model.CreatedQuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		st := stats[q.ID]
		out = append(out, model.CreatedQuizSummary{
			ID:            q.ID,
			Title:         q.Title,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			IsPublic:      q.IsPublic,
			IsActive:      q.IsActive,
			QuestionCount: counts[q.ID],
			TotalAttempts: st.Attempts,
			AverageScore:  roundAverage(st.Average),
			CreatedAt:     q.CreatedAt,
		})
	}
	return out, nil
}

func overview(rows []model.ResultWithQuiz, created []model.CreatedQuizSummary) model.DashboardOverview {
	o := model.DashboardOverview{
		TotalTestsTaken:     len(rows),
		TotalQuizzesCreated: len(created),
	}

	sum := 0
	for i := range rows {
		sum += rows[i].Percentage
	}
	o.AverageScore = roundMean(sum, len(rows))

	for _, q := range created {
		o.TotalQuizAttempts += q.TotalAttempts
		if q.IsPublic {
			o.PublicQuizzes++
		}
	}
	o.PrivateQuizzes = o.TotalQuizzesCreated - o.PublicQuizzes
	return o
}

// recentTests rows 已按完成时间倒序
func recentTests(rows []model.ResultWithQuiz, limit int) []model.RecentTest {
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]model.RecentTest, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, model.RecentTest{
			ID:             r.ID,
			QuizID:         r.QuizID,
			QuizTitle:      quizTitleOf(r),
			Category:       quizCategoryOf(r),
			Difficulty:     quizDifficultyOf(r),
			Score:          r.EarnedPoints,
			Percentage:     r.Percentage,
			Grade:          r.Grade,
			IsPassed:       r.IsPassed,
			CorrectAnswers: r.CorrectAnswers,
			TotalQuestions: r.TotalQuestions,
			EarnedPoints:   r.EarnedPoints,
			TotalPoints:    r.TotalPoints,
			TimeSpent:      r.TimeSpent,
			CompletedAt:    r.CompletedAt,
		})
	}
	return out
}

// categoryPerformance 只统计测验仍存在的结果，按平均分降序
func categoryPerformance(rows []model.ResultWithQuiz) []model.CategoryPerformance {
	buckets, keys := groupBy(rows, byCategory)
	out := make([]model.CategoryPerformance, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, model.CategoryPerformance{
			Category:      k,
			AverageScore:  b.Average(),
			TotalAttempts: b.Count,
			BestScore:     b.Best,
			TotalPoints:   b.Points,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore > out[j].AverageScore
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func recentActivity(rows []model.ResultWithQuiz, since time.Time, limit int) []model.RecentActivity {
	out := make([]model.RecentActivity, 0, limit)
	for i := range rows {
		r := &rows[i]
		if r.CompletedAt.Before(since) {
			continue
		}
		out = append(out, model.RecentActivity{
			Type:        activityQuizCompleted,
			ResultID:    r.ID,
			QuizTitle:   quizTitleOf(r),
			Category:    quizCategoryOf(r),
			Percentage:  r.Percentage,
			Grade:       r.Grade,
			CompletedAt: r.CompletedAt,
		})
		if len(out) == limit {
			break
		}
	}
	return out
}

// monthlyTrends 按 YYYY-MM 升序
func monthlyTrends(rows []model.ResultWithQuiz, since time.Time) []model.MonthlyTrend {
	inWindow := filterRows(rows, func(r *model.ResultWithQuiz) bool {
		return !r.CompletedAt.Before(since)
	})
	buckets, keys := groupBy(inWindow, func(r *model.ResultWithQuiz) (string, bool) {
		return r.CompletedAt.UTC().Format(util.MonthFormat), true
	})

	out := make([]model.MonthlyTrend, 0, len(keys))
	for _, month := range sortedKeys(keys) {
		b := buckets[month]
		out = append(out, model.MonthlyTrend{
			Month:        month,
			AverageScore: b.Average(),
			TotalTests:   b.Count,
		})
	}
	return out
}

type achievementRule struct {
	Name        string
	Description string
	Icon        string
	Earned      func(o model.DashboardOverview) bool
}

// achievementRules 顺序即返回顺序
var achievementRules = []achievementRule{
	{"First Steps", "Completed your first quiz", "🎯", func(o model.DashboardOverview) bool { return o.TotalTestsTaken >= 1 }},
	{"Quiz Enthusiast", "Completed 10+ quizzes", "📚", func(o model.DashboardOverview) bool { return o.TotalTestsTaken >= 10 }},
	{"Quiz Master", "Completed 50+ quizzes", "🏆", func(o model.DashboardOverview) bool { return o.TotalTestsTaken >= 50 }},
	{"High Achiever", "Maintained 80%+ average score", "⭐", func(o model.DashboardOverview) bool { return o.AverageScore >= 80 }},
	{"Perfectionist", "Maintained 95%+ average score", "💎", func(o model.DashboardOverview) bool { return o.AverageScore >= 95 }},
	{"Content Creator", "Created your first quiz", "✏️", func(o model.DashboardOverview) bool { return o.TotalQuizzesCreated >= 1 }},
	{"Quiz Creator", "Created 5+ quizzes", "🎨", func(o model.DashboardOverview) bool { return o.TotalQuizzesCreated >= 5 }},
	{"Prolific Creator", "Created 20+ quizzes", "🚀", func(o model.DashboardOverview) bool { return o.TotalQuizzesCreated >= 20 }},
	{"Popular Creator", "Your quizzes have 100+ attempts", "🌟", func(o model.DashboardOverview) bool { return o.TotalQuizAttempts >= 100 }},
}

// achievements First Steps 取最近测试窗口中最早的一条，超过窗口大小时并非真正的首次作答；
// Content Creator 取最早创建的测验；其余为当前时间
func achievements(d *model.Dashboard, now time.Time) []model.Achievement {
	out := make([]model.Achievement, 0, len(achievementRules))
	for _, rule := range achievementRules {
		if !rule.Earned(d.Overview) {
			continue
		}
		earnedAt := now
		switch rule.Name {
		case "First Steps":
			if n := len(d.RecentTests); n > 0 {
				earnedAt = d.RecentTests[n-1].CompletedAt
			}
		case "Content Creator":
			if n := len(d.CreatedQuizzes); n > 0 {
				earnedAt = d.CreatedQuizzes[n-1].CreatedAt
			}
		}
		out = append(out, model.Achievement{
			Name:        rule.Name,
			Description: rule.Description,
			Icon:        rule.Icon,
			EarnedAt:    earnedAt,
		})
	}
	return out
}

// GetTestResult 结果本人或测验创建者可查看；测验或题目已变更时使用占位文本
func (s *DashboardService) GetTestResult(ctx context.Context, resultID, callerID string) (*model.ResultDetail, error) {
	result, err := s.ResultRepo.FindByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, fmt.Errorf("load result %s: %w", resultID, err)
	}

	quiz, err := s.QuizRepo.FindByID(ctx, result.QuizID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load quiz %s: %w", result.QuizID, err)
		}
		quiz = nil
	}

	if err := CanViewResult(result, quiz, callerID); err != nil {
		return nil, err
	}

	detail := &model.ResultDetail{
		Result: *result,
		Quiz: model.ResultQuizInfo{
			ID:         result.QuizID,
			Title:      util.UnknownQuiz,
			Category:   util.UnknownValue,
			Difficulty: util.UnknownValue,
		},
		DetailedAnswers: make([]model.DetailedAnswer, 0, len(result.Answers)),
		Statistics: model.ResultStatistics{
			AccuracyRate:           grading.Percentage(result.CorrectAnswers, result.TotalQuestions),
			AverageTimePerQuestion: roundMean(result.TimeSpent, result.TotalQuestions),
			IncorrectAnswers:       result.TotalQuestions - result.CorrectAnswers,
		},
	}

	if quiz != nil {
		detail.Quiz.Title = quiz.Title
		detail.Quiz.Category = string(quiz.Category)
		detail.Quiz.Difficulty = string(quiz.Difficulty)
		detail.Quiz.Description = quiz.Description
		if creator, err := s.UserRepo.FindByID(ctx, quiz.CreatorID); err == nil {
			detail.Quiz.CreatorName = creator.FullName()
		}
	}

	for i, answer := range result.Answers {
		detail.DetailedAnswers = append(detail.DetailedAnswers, detailedAnswer(quiz, i, answer))
	}
	return detail, nil
}

func detailedAnswer(quiz *model.Quiz, index int, answer model.Answer) model.DetailedAnswer {
	da := model.DetailedAnswer{
		QuestionNumber: index + 1,
		QuestionID:     answer.QuestionID,
		Question:       util.QuestionNotFound,
		SelectedOption: answer.SelectedOption,
		SelectedText:   util.OptionNotFound,
		CorrectOption:  -1,
		CorrectText:    util.CorrectAnswerMissing,
		AllOptions:     []string{},
		IsCorrect:      answer.IsCorrect,
		Points:         answer.Points,
		TimeSpent:      answer.TimeSpent,
	}
	if quiz == nil {
		return da
	}
	question, _, ok := quiz.FindQuestion(answer.QuestionID)
	if !ok {
		return da
	}

	da.Question = question.Text
	da.Explanation = question.Explanation
	if opt, ok := question.OptionAt(answer.SelectedOption); ok {
		da.SelectedText = opt.Text
	}
	da.CorrectOption = question.CorrectOption()
	if opt, ok := question.OptionAt(da.CorrectOption); ok {
		da.CorrectText = opt.Text
	}
	for _, o := range question.Options {
		da.AllOptions = append(da.AllOptions, o.Text)
	}
	return da
}

// GetTestHistory 分页历史；分类统计基于用户全部结果，不受当前筛选影响
func (s *DashboardService) GetTestHistory(ctx context.Context, q HistoryQuery) (*model.HistoryPage, error) {
	filter, err := historyFilter(q)
	if err != nil {
		return nil, err
	}
	page := util.ClampPage(q.Page)
	limit := util.ClampLimit(q.Limit, util.DefaultPageSize)
	filter.Offset = util.Offset(page, limit)
	filter.Limit = limit

	var (
		rows  []model.ResultWithQuiz
		total int64
		all   []model.ResultWithQuiz
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, total, err = s.ResultRepo.History(gctx, filter)
		if err != nil {
			return fmt.Errorf("load history of %s: %w", q.UserID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		all, err = s.ResultRepo.ListWithQuiz(gctx, repository.ResultQuery{UserID: q.UserID, RequireQuiz: true})
		if err != nil {
			return fmt.Errorf("load category facets of %s: %w", q.UserID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]model.HistoryItem, 0, len(rows))
	sum, timeSpent := 0, 0
	for i := range rows {
		items = append(items, toHistoryItem(&rows[i]))
		sum += rows[i].Percentage
		timeSpent += rows[i].TimeSpent
	}

	return &model.HistoryPage{
		Results:    items,
		Pagination: model.NewPagination(page, limit, total),
		Summary: model.HistorySummary{
			TotalTests:     total,
			AverageScore:   roundMean(sum, len(rows)),
			TotalTimeSpent: timeSpent,
		},
		Filters: model.HistoryFilters{
			Categories:            categoryFacets(all),
			AvailableDifficulties: model.Difficulties,
		},
	}, nil
}

func historyFilter(q HistoryQuery) (repository.HistoryFilter, error) {
	verr := &util.ValidationError{}
	filter := repository.HistoryFilter{
		UserID: q.UserID,
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

	var err error
	if filter.StartDate, err = parseDate(q.StartDate, false); err != nil {
		verr.Add("startDate", "Invalid start date")
	}
	if filter.EndDate, err = parseDate(q.EndDate, true); err != nil {
		verr.Add("endDate", "Invalid end date")
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		verr.Add("endDate", "End date must not be before start date")
	}
	return filter, verr.OrNil()
}

// parseDate 支持 RFC3339 和 YYYY-MM-DD；只有日期的结束时间包含当天
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(util.DateFormat, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func toHistoryItem(r *model.ResultWithQuiz) model.HistoryItem {
	return model.HistoryItem{
		ID:             r.ID,
		QuizID:         r.QuizID,
		QuizTitle:      quizTitleOf(r),
		Category:       quizCategoryOf(r),
		Difficulty:     quizDifficultyOf(r),
		Percentage:     r.Percentage,
		Grade:          r.Grade,
		IsPassed:       r.IsPassed,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		EarnedPoints:   r.EarnedPoints,
		TotalPoints:    r.TotalPoints,
		TimeSpent:      r.TimeSpent,
		CompletedAt:    r.CompletedAt,
	}
}

// categoryFacets 平均分保留一位小数，按数量降序
func categoryFacets(rows []model.ResultWithQuiz) []model.CategoryFacet {
	buckets, keys := groupBy(rows, byCategory)
	out := make([]model.CategoryFacet, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, model.CategoryFacet{
			Category:     k,
			Count:        b.Count,
			AverageScore: b.AverageOneDecimal(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}
