package service

import (
	"context"
	"fmt"
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/repository"
	"quiz_platform_backend/internal/util"
)

const DefaultTimeframe = "30d"

var timeframes = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// NormalizeTimeframe 未知值回退到 30d
func NormalizeTimeframe(timeframe string) string {
	if _, ok := timeframes[timeframe]; ok {
		return timeframe
	}
	return DefaultTimeframe
}

type AnalyticsService struct {
	ResultRepo ResultStore
	Now        func() time.Time
}

func NewAnalyticsService(resultRepo ResultStore) *AnalyticsService {
	return &AnalyticsService{ResultRepo: resultRepo, Now: time.Now}
}

// GetAnalytics 时间窗口内的表现；难度维度只统计测验仍存在的结果
func (s *AnalyticsService) GetAnalytics(ctx context.Context, userID, timeframe string) (*model.AnalyticsSnapshot, error) {
	timeframe = NormalizeTimeframe(timeframe)
	end := s.Now().UTC()
	start := end.Add(-timeframes[timeframe])

	rows, err := s.ResultRepo.ListWithQuiz(ctx, repository.ResultQuery{UserID: userID, Since: &start})
	if err != nil {
		return nil, fmt.Errorf("load results of %s: %w", userID, err)
	}

	return &model.AnalyticsSnapshot{
		Timeframe:           timeframe,
		StartDate:           start,
		EndDate:             end,
		PerformanceOverTime: dailyPerformance(rows),
		DifficultyAnalysis:  difficultyPerformance(rows),
		TimeAnalysis:        timeAnalysis(rows),
	}, nil
}

func dailyPerformance(rows []model.ResultWithQuiz) []model.DailyPerformance {
	buckets, keys := groupBy(rows, func(r *model.ResultWithQuiz) (string, bool) {
		return r.CompletedAt.UTC().Format(util.DateFormat), true
	})

	out := make([]model.DailyPerformance, 0, len(keys))
	for _, day := range sortedKeys(keys) {
		b := buckets[day]
		out = append(out, model.DailyPerformance{
			Date:           day,
			AverageScore:   b.Average(),
			TotalTests:     b.Count,
			TotalTimeSpent: b.TimeSpent,
		})
	}
	return out
}

// difficultyPerformance 按 Easy、Medium、Hard 顺序输出出现过的难度
func difficultyPerformance(rows []model.ResultWithQuiz) []model.DifficultyPerformance {
	buckets, _ := groupBy(rows, byDifficulty)

	out := make([]model.DifficultyPerformance, 0, len(buckets))
	for _, d := range model.Difficulties {
		b, ok := buckets[d]
		if !ok {
			continue
		}
		out = append(out, model.DifficultyPerformance{
			Difficulty:    d,
			AverageScore:  b.Average(),
			TotalAttempts: b.Count,
			BestScore:     b.Best,
			WorstScore:    b.Worst,
		})
	}
	return out
}

func timeAnalysis(rows []model.ResultWithQuiz) model.TimeAnalysis {
	var ta model.TimeAnalysis
	for i := range rows {
		t := rows[i].TimeSpent
		if i == 0 || t < ta.FastestCompletion {
			ta.FastestCompletion = t
		}
		if i == 0 || t > ta.SlowestCompletion {
			ta.SlowestCompletion = t
		}
		ta.TotalTimeSpent += t
	}
	ta.AverageTimePerQuiz = roundMean(ta.TotalTimeSpent, len(rows))
	return ta
}
