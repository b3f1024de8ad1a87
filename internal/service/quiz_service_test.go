package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/util"
)

func newQuizService(quizzes *fakeQuizStore, results *fakeResultStore, users *fakeUserStore) *QuizService {
	return NewQuizService(quizzes, results, users, nil, config.QuizConfig{})
}

func validRequest() *QuizRequest {
	return &QuizRequest{
		Title:       "  Physics basics  ",
		Description: "Newton and friends, a warm up quiz",
		Category:    model.CategoryScience,
		Tags:        []string{" physics ", "physics", "motion"},
		Questions: []QuestionInput{
			{
				Question: "What is the unit of force?",
				Options:  []OptionInput{{Text: "Newton", IsCorrect: true}, {Text: "Joule"}},
				Points:   3,
			},
			{
				Question: "What does F equal in Newton's second law?",
				Options:  []OptionInput{{Text: "m*a", IsCorrect: true}, {Text: "m/a"}},
			},
		},
	}
}

func fieldMessages(t *testing.T, err error) []string {
	t.Helper()
	var verr *util.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	msgs := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

func containsMessage(msgs []string, want string) bool {
	for _, m := range msgs {
		if m == want {
			return true
		}
	}
	return false
}

func TestCreateQuizAppliesDefaults(t *testing.T) {
	quizzes := newFakeQuizStore()
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore())

	quiz, err := svc.CreateQuiz(context.Background(), "creator-1", validRequest())
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if quizzes.createCalls != 1 {
		t.Fatalf("create calls = %d", quizzes.createCalls)
	}
	if quiz.Title != "Physics basics" {
		t.Fatalf("title not trimmed: %q", quiz.Title)
	}
	if quiz.CreatorID != "creator-1" {
		t.Fatalf("creator = %q", quiz.CreatorID)
	}
	if quiz.Difficulty != model.DifficultyMedium || quiz.TimeLimit != model.DefaultTimeLimit {
		t.Fatalf("defaults not applied: %s %d", quiz.Difficulty, quiz.TimeLimit)
	}
	if !quiz.IsPublic || !quiz.IsActive {
		t.Fatalf("new quiz should be public and active")
	}
	if quiz.Settings != model.DefaultQuizSettings() {
		t.Fatalf("settings = %+v", quiz.Settings)
	}
	if quiz.TotalPoints != 4 {
		t.Fatalf("total points = %d, want 4", quiz.TotalPoints)
	}
	if quiz.Questions[1].Points != 1 {
		t.Fatalf("missing points should default to 1, got %d", quiz.Questions[1].Points)
	}
	if len(quiz.Tags) != 2 || quiz.Tags[0] != "physics" {
		t.Fatalf("tags = %v", quiz.Tags)
	}
	if quiz.Stats.TotalAttempts != 0 || quiz.Stats.AverageScore != 0 {
		t.Fatalf("stats should start at zero: %+v", quiz.Stats)
	}
}

func TestCreateQuizValidationMessages(t *testing.T) {
	quizzes := newFakeQuizStore()
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore())

	req := validRequest()
	req.Title = "Hi"
	req.Category = "Cooking"
	req.Questions[1].Options = []OptionInput{{Text: "a"}, {Text: " "}}

	_, err := svc.CreateQuiz(context.Background(), "creator-1", req)
	if !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msgs := fieldMessages(t, err)
	for _, want := range []string{
		"Title must be between 5 and 100 characters",
		"Invalid category",
		"Question 2 must have at least one correct answer",
		"All options in question 2 must have text",
	} {
		if !containsMessage(msgs, want) {
			t.Fatalf("missing message %q in %v", want, msgs)
		}
	}
	if quizzes.createCalls != 0 {
		t.Fatalf("invalid quiz must not be stored")
	}
}

func TestCreateQuizRejectsQuestionCount(t *testing.T) {
	req := validRequest()
	req.Questions = nil
	_, err := ValidateQuizRequest(req)
	if !containsMessage(fieldMessages(t, err), "Quiz must have between 1 and 50 questions") {
		t.Fatalf("unexpected error %v", err)
	}

	req = validRequest()
	for len(req.Questions) <= MaxQuestions {
		req.Questions = append(req.Questions, req.Questions[0])
	}
	if _, err := ValidateQuizRequest(req); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("51 questions should be rejected, got %v", err)
	}
}

func TestGetQuizAccessRules(t *testing.T) {
	public := twoQuestionQuiz("owner")
	private := twoQuestionQuiz("owner")
	private.IsPublic = false
	inactive := twoQuestionQuiz("owner")
	inactive.IsActive = false

	quizzes := newFakeQuizStore(public, private, inactive)
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore(model.User{ID: "owner", Username: "alice"}))
	ctx := context.Background()

	cases := []struct {
		name   string
		quizID string
		caller string
		want   error
	}{
		{"missing", "nope", "owner", util.ErrQuizNotFound},
		{"inactive for owner", inactive.ID, "owner", util.ErrQuizUnavailable},
		{"inactive for others", inactive.ID, "bob", util.ErrQuizUnavailable},
		{"private for others", private.ID, "bob", util.ErrQuizAccessDenied},
		{"private anonymous", private.ID, "", util.ErrQuizAccessDenied},
		{"private for owner", private.ID, "owner", nil},
		{"public anonymous", public.ID, "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view, err := svc.GetQuiz(ctx, tc.quizID, tc.caller)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if tc.want == nil && view.CreatorName != "alice" {
				t.Fatalf("creator name = %q", view.CreatorName)
			}
		})
	}
}

func TestGetQuizRedactsAnswersForNonOwner(t *testing.T) {
	quiz := twoQuestionQuiz("owner")
	quizzes := newFakeQuizStore(quiz)
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore())
	ctx := context.Background()

	view, err := svc.GetQuiz(ctx, quiz.ID, "stranger")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	raw, _ := json.Marshal(view)
	body := string(raw)
	if strings.Contains(body, "isCorrect") || strings.Contains(body, "explanation") {
		t.Fatalf("redacted quiz leaks answers: %s", body)
	}
	if !view.Redacted || len(view.Questions) != 2 || len(view.Questions[0].Options) != 2 {
		t.Fatalf("redacted view shape wrong: %+v", view)
	}

	owner, err := svc.GetQuiz(ctx, quiz.ID, "owner")
	if err != nil {
		t.Fatalf("GetQuiz owner: %v", err)
	}
	raw, _ = json.Marshal(owner)
	if !strings.Contains(string(raw), `"isCorrect":true`) || !strings.Contains(string(raw), "explanation") {
		t.Fatalf("owner view should carry answers: %s", raw)
	}
}

func TestListQuizzesClampsPagination(t *testing.T) {
	var seeded []*model.Quiz
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		q := twoQuestionQuiz("owner")
		q.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		seeded = append(seeded, q)
	}
	quizzes := newFakeQuizStore(seeded...)
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore())
	ctx := context.Background()

	page, err := svc.ListQuizzes(ctx, QuizListQuery{Page: 0, Limit: 9999})
	if err != nil {
		t.Fatalf("ListQuizzes: %v", err)
	}
	if page.Pagination.CurrentPage != 1 || len(page.Quizzes) != util.MaxPageSize {
		t.Fatalf("pagination = %+v, items %d", page.Pagination, len(page.Quizzes))
	}
	if page.Pagination.TotalItems != 60 || page.Pagination.TotalPages != 2 {
		t.Fatalf("pagination totals = %+v", page.Pagination)
	}

	page, err = svc.ListQuizzes(ctx, QuizListQuery{})
	if err != nil {
		t.Fatalf("ListQuizzes: %v", err)
	}
	if quizzes.listFilter.Limit != util.DefaultQuizPageSize || len(page.Quizzes) != util.DefaultQuizPageSize {
		t.Fatalf("default limit = %d", quizzes.listFilter.Limit)
	}
	if page.Quizzes[0].TotalQuestions != 2 {
		t.Fatalf("question count = %d", page.Quizzes[0].TotalQuestions)
	}

	if _, err := svc.ListQuizzes(ctx, QuizListQuery{Category: "Cooking"}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("invalid category should fail, got %v", err)
	}
}

func TestUpdateQuizOwnerOnly(t *testing.T) {
	quiz := twoQuestionQuiz("owner")
	quizzes := newFakeQuizStore(quiz)
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore())
	ctx := context.Background()

	title := "Renamed quiz"
	if _, err := svc.UpdateQuiz(ctx, quiz.ID, "stranger", &QuizPatch{Title: &title}); !errors.Is(err, util.ErrQuizUpdateDenied) {
		t.Fatalf("expected update denied, got %v", err)
	}

	short := "no"
	if _, err := svc.UpdateQuiz(ctx, quiz.ID, "owner", &QuizPatch{Title: &short}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if quizzes.updateCalls != 0 {
		t.Fatalf("rejected patches must not reach the store")
	}

	updated, err := svc.UpdateQuiz(ctx, quiz.ID, "owner", &QuizPatch{
		Title: &title,
		Questions: []QuestionInput{{
			Question: "A single replacement question?",
			Options:  []OptionInput{{Text: "yes", IsCorrect: true}, {Text: "no"}},
			Points:   5,
		}},
	})
	if err != nil {
		t.Fatalf("UpdateQuiz: %v", err)
	}
	if !quizzes.lastReplace || updated.TotalPoints != 5 || updated.Title != title {
		t.Fatalf("update not applied: replace=%t %+v", quizzes.lastReplace, updated)
	}

	stored, _ := quizzes.FindByID(ctx, quiz.ID)
	if len(stored.Questions) != 1 || stored.TotalPoints != 5 {
		t.Fatalf("stored quiz = %+v", stored)
	}
}

func TestDeleteQuizDeactivatesWhenResultsExist(t *testing.T) {
	used := twoQuestionQuiz("owner")
	unused := twoQuestionQuiz("owner")
	quizzes := newFakeQuizStore(used, unused)
	results := newFakeResultStore(quizzes)
	results.add(resultFor("student", used.ID, 50, time.Now()))
	svc := newQuizService(quizzes, results, newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.DeleteQuiz(ctx, used.ID, "stranger"); !errors.Is(err, util.ErrQuizDeleteDenied) {
		t.Fatalf("expected delete denied, got %v", err)
	}

	out, err := svc.DeleteQuiz(ctx, used.ID, "owner")
	if err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	if !out.Deactivated || out.Deleted {
		t.Fatalf("outcome = %+v", out)
	}
	stored, _ := quizzes.FindByID(ctx, used.ID)
	if stored.IsActive || stored.IsPublic || stored.DeactivatedAt == nil {
		t.Fatalf("quiz should be inactive and private: %+v", stored)
	}

	out, err = svc.DeleteQuiz(ctx, unused.ID, "owner")
	if err != nil || !out.Deleted {
		t.Fatalf("DeleteQuiz unused = %+v, %v", out, err)
	}
	if _, err := svc.GetQuiz(ctx, unused.ID, "owner"); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("deleted quiz should be gone, got %v", err)
	}
}

func TestGetMyQuizzesStatusFilter(t *testing.T) {
	active := twoQuestionQuiz("owner")
	inactive := twoQuestionQuiz("owner")
	inactive.IsActive = false
	other := twoQuestionQuiz("someone-else")
	quizzes := newFakeQuizStore(active, inactive, other)
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore())
	ctx := context.Background()

	all, err := svc.GetMyQuizzes(ctx, "owner", "", 0, 0)
	if err != nil {
		t.Fatalf("GetMyQuizzes: %v", err)
	}
	if len(all.Quizzes) != 2 || all.Pagination.Limit != util.DefaultPageSize {
		t.Fatalf("all = %+v", all)
	}

	only, err := svc.GetMyQuizzes(ctx, "owner", "inactive", 1, 10)
	if err != nil || len(only.Quizzes) != 1 || only.Quizzes[0].ID != inactive.ID {
		t.Fatalf("inactive = %+v, %v", only, err)
	}

	if _, err := svc.GetMyQuizzes(ctx, "owner", "archived", 1, 10); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("unknown status should fail, got %v", err)
	}
}

func TestGetCategoriesCountsPublicActive(t *testing.T) {
	hidden := twoQuestionQuiz("owner")
	hidden.IsPublic = false
	history := twoQuestionQuiz("owner")
	history.Category = model.CategoryGeneralKnowledge
	quizzes := newFakeQuizStore(twoQuestionQuiz("owner"), twoQuestionQuiz("owner"), history, hidden)
	svc := newQuizService(quizzes, newFakeResultStore(quizzes), newFakeUserStore())

	categories, err := svc.GetCategories(context.Background())
	if err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("categories = %+v", categories)
	}
	if categories[0].Name != model.CategoryScience || categories[0].Count != 2 {
		t.Fatalf("first = %+v", categories[0])
	}
	if categories[1].Slug != "general-knowledge" {
		t.Fatalf("slug = %q", categories[1].Slug)
	}
}

func TestRecalculateStatsRoundsAverage(t *testing.T) {
	quiz := twoQuestionQuiz("owner")
	quizzes := newFakeQuizStore(quiz)
	results := newFakeResultStore(quizzes)
	now := time.Now()
	for _, p := range []int{70, 71} {
		r := results.add(resultFor("u", quiz.ID, p, now))
		_ = quizzes.IncrementAttempts(context.Background(), r.QuizID, 1)
	}
	svc := newQuizService(quizzes, results, newFakeUserStore())

	if _, err := svc.RefreshStats(context.Background(), quiz.ID, "stranger"); !errors.Is(err, util.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	stats, err := svc.RefreshStats(context.Background(), quiz.ID, "owner")
	if err != nil {
		t.Fatalf("RefreshStats: %v", err)
	}
	if stats.AverageScore != 71 || stats.TotalAttempts != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	n, err := svc.RecalculateAllStats(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("RecalculateAllStats = %d, %v", n, err)
	}
	if quizzes.averages[quiz.ID] != 71 {
		t.Fatalf("stored average = %d", quizzes.averages[quiz.ID])
	}
}
