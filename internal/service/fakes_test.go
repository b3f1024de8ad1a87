package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"

	"gorm.io/gorm"
)

type fakeQuizStore struct {
	quizzes map[string]*model.Quiz
	seq     int

	createCalls    int
	updateCalls    int
	incrementCalls int
	deactivated    []string
	deleted        []string
	lastReplace    bool
	averages       map[string]int
	listFilter     repository.QuizListFilter
}

func newFakeQuizStore(quizzes ...*model.Quiz) *fakeQuizStore {
	s := &fakeQuizStore{quizzes: map[string]*model.Quiz{}, averages: map[string]int{}}
	for _, q := range quizzes {
		s.put(q)
	}
	return s
}

func (s *fakeQuizStore) put(q *model.Quiz) {
	if q.ID == "" {
		s.seq++
		q.ID = fmt.Sprintf("quiz-%d", s.seq)
	}
	for i := range q.Questions {
		if q.Questions[i].ID == "" {
			q.Questions[i].ID = fmt.Sprintf("%s-q%d", q.ID, i)
		}
		q.Questions[i].QuizID = q.ID
		q.Questions[i].Position = i
	}
	cp := *q
	cp.Questions = append([]model.Question(nil), q.Questions...)
	s.quizzes[q.ID] = &cp
}

func (s *fakeQuizStore) Create(ctx context.Context, quiz *model.Quiz) error {
	s.createCalls++
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}
	s.put(quiz)
	return nil
}

func (s *fakeQuizStore) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	q, ok := s.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	cp.Questions = append([]model.Question(nil), q.Questions...)
	return &cp, nil
}

func (s *fakeQuizStore) sorted() []*model.Quiz {
	out := make([]*model.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func pageOf[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *fakeQuizStore) ListPublic(ctx context.Context, filter repository.QuizListFilter) ([]model.Quiz, int64, error) {
	s.listFilter = filter
	var out []model.Quiz
	for _, q := range s.sorted() {
		if !q.IsPublic || !q.IsActive {
			continue
		}
		if filter.Category != "" && q.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && q.Difficulty != filter.Difficulty {
			continue
		}
		out = append(out, *q)
	}
	return pageOf(out, filter.Offset, filter.Limit), int64(len(out)), nil
}

func (s *fakeQuizStore) ListByCreator(ctx context.Context, creatorID, status string, offset, limit int) ([]model.Quiz, int64, error) {
	var out []model.Quiz
	for _, q := range s.sorted() {
		if q.CreatorID != creatorID {
			continue
		}
		if status == repository.QuizStatusActive && !q.IsActive || status == repository.QuizStatusInactive && q.IsActive {
			continue
		}
		out = append(out, *q)
	}
	return pageOf(out, offset, limit), int64(len(out)), nil
}

func (s *fakeQuizStore) QuestionCounts(ctx context.Context, quizIDs []string) (map[string]int, error) {
	counts := map[string]int{}
	for _, id := range quizIDs {
		if q, ok := s.quizzes[id]; ok {
			counts[id] = len(q.Questions)
		}
	}
	return counts, nil
}

func (s *fakeQuizStore) Update(ctx context.Context, quiz *model.Quiz, replaceQuestions bool) error {
	s.updateCalls++
	s.lastReplace = replaceQuestions
	if replaceQuestions {
		for i := range quiz.Questions {
			quiz.Questions[i].ID = ""
		}
	}
	stats := s.quizzes[quiz.ID].Stats
	s.put(quiz)
	s.quizzes[quiz.ID].Stats = stats
	return nil
}

func (s *fakeQuizStore) Deactivate(ctx context.Context, id string, at time.Time) error {
	q := s.quizzes[id]
	q.IsActive, q.IsPublic, q.DeactivatedAt = false, false, &at
	s.deactivated = append(s.deactivated, id)
	return nil
}

func (s *fakeQuizStore) Delete(ctx context.Context, id string) error {
	delete(s.quizzes, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeQuizStore) IncrementAttempts(ctx context.Context, id string, delta int) error {
	s.incrementCalls++
	if q, ok := s.quizzes[id]; ok {
		q.Stats.TotalAttempts += delta
	}
	return nil
}

func (s *fakeQuizStore) UpdateAverageScore(ctx context.Context, id string, average int) error {
	s.averages[id] = average
	if q, ok := s.quizzes[id]; ok {
		q.Stats.AverageScore = average
	}
	return nil
}

func (s *fakeQuizStore) CategoryCounts(ctx context.Context) ([]repository.CategoryCount, error) {
	counts := map[model.Category]int{}
	for _, q := range s.quizzes {
		if q.IsPublic && q.IsActive {
			counts[q.Category]++
		}
	}
	out := make([]repository.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, repository.CategoryCount{Category: c, Count: n})
	}
	return out, nil
}

func (s *fakeQuizStore) ListIDsWithAttempts(ctx context.Context) ([]string, error) {
	var ids []string
	for _, q := range s.sorted() {
		if q.Stats.TotalAttempts > 0 {
			ids = append(ids, q.ID)
		}
	}
	return ids, nil
}

type fakeResultStore struct {
	quizzes *fakeQuizStore
	results []model.TestResult
	seq     int

	recordCalls int
	recordErr   error
}

func newFakeResultStore(quizzes *fakeQuizStore) *fakeResultStore {
	return &fakeResultStore{quizzes: quizzes}
}

// add 直接写入，不经过提交流程
func (s *fakeResultStore) add(r model.TestResult) model.TestResult {
	s.seq++
	if r.ID == "" {
		r.ID = fmt.Sprintf("result-%d", s.seq)
	}
	s.results = append(s.results, r)
	return r
}

func (s *fakeResultStore) RecordSubmission(ctx context.Context, result *model.TestResult) error {
	s.recordCalls++
	if s.recordErr != nil {
		return s.recordErr
	}
	*result = s.add(*result)
	return s.quizzes.IncrementAttempts(ctx, result.QuizID, 1)
}

func (s *fakeResultStore) FindByID(ctx context.Context, id string) (*model.TestResult, error) {
	for i := range s.results {
		if s.results[i].ID == id {
			r := s.results[i]
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeResultStore) ExistsForUserAndQuiz(ctx context.Context, userID, quizID string) (bool, error) {
	for _, r := range s.results {
		if r.UserID == userID && r.QuizID == quizID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeResultStore) CountByQuiz(ctx context.Context, quizID string) (int64, error) {
	var n int64
	for _, r := range s.results {
		if r.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s *fakeResultStore) ScoreStatsByQuizzes(ctx context.Context, quizIDs []string) (map[string]repository.QuizScoreStats, error) {
	out := map[string]repository.QuizScoreStats{}
	for _, id := range quizIDs {
		sum, n := 0, 0
		for _, r := range s.results {
			if r.QuizID == id {
				sum += r.Percentage
				n++
			}
		}
		if n > 0 {
			out[id] = repository.QuizScoreStats{QuizID: id, Attempts: n, Average: float64(sum) / float64(n)}
		}
	}
	return out, nil
}

func (s *fakeResultStore) joined(userID string, requireQuiz bool) []model.ResultWithQuiz {
	var out []model.ResultWithQuiz
	for _, r := range s.results {
		if r.UserID != userID {
			continue
		}
		row := model.ResultWithQuiz{TestResult: r}
		if q, ok := s.quizzes.quizzes[r.QuizID]; ok {
			title, category, difficulty := q.Title, string(q.Category), string(q.Difficulty)
			row.QuizTitle, row.QuizCategory, row.QuizDifficulty = &title, &category, &difficulty
		} else if requireQuiz {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out
}

func (s *fakeResultStore) ListWithQuiz(ctx context.Context, q repository.ResultQuery) ([]model.ResultWithQuiz, error) {
	rows := s.joined(q.UserID, q.RequireQuiz)
	if q.Since != nil {
		rows = filterRows(rows, func(r *model.ResultWithQuiz) bool { return !r.CompletedAt.Before(*q.Since) })
	}
	return pageOf(rows, 0, q.Limit), nil
}

func (s *fakeResultStore) History(ctx context.Context, f repository.HistoryFilter) ([]model.ResultWithQuiz, int64, error) {
	rows := filterRows(s.joined(f.UserID, true), func(r *model.ResultWithQuiz) bool {
		if f.Category != "" && *r.QuizCategory != string(f.Category) {
			return false
		}
		if f.Difficulty != "" && *r.QuizDifficulty != string(f.Difficulty) {
			return false
		}
		if f.StartDate != nil && r.CompletedAt.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && r.CompletedAt.After(*f.EndDate) {
			return false
		}
		return true
	})
	if f.SortBy == "percentage" {
		sort.SliceStable(rows, func(i, j int) bool {
			if f.Desc {
				return rows[i].Percentage > rows[j].Percentage
			}
			return rows[i].Percentage < rows[j].Percentage
		})
	} else if !f.Desc {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CompletedAt.Before(rows[j].CompletedAt) })
	}
	return pageOf(rows, f.Offset, f.Limit), int64(len(rows)), nil
}

type fakeUserStore struct {
	users map[string]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Upsert(ctx context.Context, user *model.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *fakeUserStore) FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	out := map[string]model.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

var errStoreDown = errors.New("store unavailable")

// twoQuestionQuiz 每题 1 分两个选项，第一题选 0 正确，第二题选 1 正确
func twoQuestionQuiz(creatorID string) *model.Quiz {
	quiz := &model.Quiz{
		Title:       "Two question quiz",
		Description: "Scenario quiz with two questions",
		Category:    model.CategoryScience,
		Difficulty:  model.DifficultyEasy,
		CreatorID:   creatorID,
		TimeLimit:   30,
		IsPublic:    true,
		IsActive:    true,
		Settings:    model.DefaultQuizSettings(),
		Questions: []model.Question{
			{Text: "Which option is first?", Points: 1, Explanation: "The first one",
				Options: []model.Option{{Text: "first", IsCorrect: true}, {Text: "second"}}},
			{Text: "Which option is second?", Points: 1, Explanation: "The second one",
				Options: []model.Option{{Text: "first"}, {Text: "second", IsCorrect: true}}},
		},
	}
	quiz.RecalculateTotalPoints()
	return quiz
}

func resultFor(userID, quizID string, percentage int, completedAt time.Time) model.TestResult {
	return model.TestResult{
		UserID:         userID,
		QuizID:         quizID,
		Percentage:     percentage,
		EarnedPoints:   percentage / 10,
		TotalPoints:    10,
		TotalQuestions: 10,
		CorrectAnswers: percentage / 10,
		TimeSpent:      60,
		CompletedAt:    completedAt,
	}
}
