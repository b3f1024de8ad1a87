package service

import (
	"sort"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/util"

	"github.com/shopspring/decimal"
)

// scoreBucket 一组结果的百分比累计
type scoreBucket struct {
	Count     int
	Sum       int
	Best      int
	Worst     int
	Points    int
	TimeSpent int
}

func (b *scoreBucket) add(r *model.ResultWithQuiz) {
	if b.Count == 0 || r.Percentage > b.Best {
		b.Best = r.Percentage
	}
	if b.Count == 0 || r.Percentage < b.Worst {
		b.Worst = r.Percentage
	}
	b.Count++
	b.Sum += r.Percentage
	b.Points += r.EarnedPoints
	b.TimeSpent += r.TimeSpent
}

// Average 四舍五入到整数
func (b *scoreBucket) Average() int {
	return roundMean(b.Sum, b.Count)
}

// AverageOneDecimal 保留一位小数
func (b *scoreBucket) AverageOneDecimal() float64 {
	if b.Count == 0 {
		return 0
	}
	avg := decimal.NewFromInt(int64(b.Sum)).
		Div(decimal.NewFromInt(int64(b.Count))).
		Round(1)
	f, _ := avg.Float64()
	return f
}

// groupBy 按 key 分组，返回分组结果及 key 的首次出现顺序
func groupBy[K comparable](rows []model.ResultWithQuiz, keyFn func(*model.ResultWithQuiz) (K, bool)) (map[K]*scoreBucket, []K) {
	buckets := make(map[K]*scoreBucket)
	var keys []K
	for i := range rows {
		key, ok := keyFn(&rows[i])
		if !ok {
			continue
		}
		b, exists := buckets[key]
		if !exists {
			b = &scoreBucket{}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.add(&rows[i])
	}
	return buckets, keys
}

// filterRows 保留满足条件的行
func filterRows(rows []model.ResultWithQuiz, keep func(*model.ResultWithQuiz) bool) []model.ResultWithQuiz {
	out := make([]model.ResultWithQuiz, 0, len(rows))
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

// roundMean 非负整数均值，半数向上取整
func roundMean(sum, count int) int {
	if count <= 0 {
		return 0
	}
	return (2*sum + count) / (2 * count)
}

func sortedKeys[K ~string](keys []K) []K {
	out := append([]K(nil), keys...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func byCategory(r *model.ResultWithQuiz) (string, bool) {
	if r.QuizCategory == nil {
		return "", false
	}
	return *r.QuizCategory, true
}

func byDifficulty(r *model.ResultWithQuiz) (model.Difficulty, bool) {
	if r.QuizDifficulty == nil {
		return "", false
	}
	return model.Difficulty(*r.QuizDifficulty), true
}

func quizTitleOf(r *model.ResultWithQuiz) string {
	if r.QuizTitle == nil {
		return util.UnknownQuiz
	}
	return *r.QuizTitle
}

func quizCategoryOf(r *model.ResultWithQuiz) string {
	if r.QuizCategory == nil {
		return util.UnknownValue
	}
	return *r.QuizCategory
}

func quizDifficultyOf(r *model.ResultWithQuiz) string {
	if r.QuizDifficulty == nil {
		return util.UnknownValue
	}
	return *r.QuizDifficulty
}
