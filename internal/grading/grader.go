package grading

import (
	"encoding/json"
	"math"
	"time"

	"quiz_platform_backend/internal/model"
)

// RawAnswer 客户端提交的原始答案，字段可能缺失或类型不对
type RawAnswer struct {
	SelectedOption any `json:"selectedOption"`
	TimeSpent      any `json:"timeSpent"`
}

// UnmarshalJSON 接受任意 JSON 值；不是对象时字段留空，判分时按非法选项处理
func (a *RawAnswer) UnmarshalJSON(data []byte) error {
	type plain RawAnswer
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		*a = RawAnswer{}
		return nil
	}
	*a = RawAnswer(decoded)
	return nil
}

// Outcome 判分结果
type Outcome struct {
	Answers        []model.Answer
	TotalQuestions int
	CorrectAnswers int
	EarnedPoints   int
	TotalPoints    int
	Percentage     int
	Grade          string
	IsPassed       bool
	TimeSpent      int
}

// Grade 按题目顺序逐题判分。
// 缺失的答案不产生记录；非法下标记为 -1 且判错，不会中断后续题目。
// 调用方必须传入从存储中重新读取的完整测验。
func Grade(quiz *model.Quiz, answers []*RawAnswer, timeSpent any) Outcome {
	out := Outcome{
		Answers:        make([]model.Answer, 0, len(answers)),
		TotalQuestions: len(quiz.Questions),
		TimeSpent:      WholeSeconds(timeSpent),
	}

	for i := range quiz.Questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		question := &quiz.Questions[i]
		raw := answers[i]

		selected, ok := OptionIndex(raw.SelectedOption)
		if !ok {
			out.Answers = append(out.Answers, model.Answer{
				QuestionID:     question.ID,
				SelectedOption: model.InvalidOption,
				TimeSpent:      WholeSeconds(raw.TimeSpent),
			})
			continue
		}

		isCorrect := false
		if option, found := question.OptionAt(selected); found {
			isCorrect = option.IsCorrect
		}

		points := 0
		if isCorrect {
			points = question.PointValue()
			out.CorrectAnswers++
			out.EarnedPoints += points
		}

		out.Answers = append(out.Answers, model.Answer{
			QuestionID:     question.ID,
			SelectedOption: selected,
			IsCorrect:      isCorrect,
			TimeSpent:      WholeSeconds(raw.TimeSpent),
			Points:         points,
		})
	}

	out.TotalPoints = quiz.TotalPoints
	if out.TotalPoints <= 0 {
		out.TotalPoints = len(quiz.Questions)
	}
	out.Percentage = Percentage(out.EarnedPoints, out.TotalPoints)
	out.Grade = GradeOf(out.Percentage)
	out.IsPassed = IsPassed(out.Percentage)
	return out
}

// Result 组装待持久化的结果记录
func (o Outcome) Result(userID, quizID string, completedAt time.Time) *model.TestResult {
	return &model.TestResult{
		UserID:         userID,
		QuizID:         quizID,
		Answers:        o.Answers,
		Score:          o.EarnedPoints,
		TotalQuestions: o.TotalQuestions,
		CorrectAnswers: o.CorrectAnswers,
		TotalPoints:    o.TotalPoints,
		EarnedPoints:   o.EarnedPoints,
		Percentage:     o.Percentage,
		Grade:          o.Grade,
		IsPassed:       o.IsPassed,
		TimeSpent:      o.TimeSpent,
		CompletedAt:    completedAt.UTC(),
	}
}

// OptionIndex 只接受非负整数
func OptionIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0
	case int64:
		return int(n), n >= 0 && n <= math.MaxInt32
	case float64:
		if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 || i > math.MaxInt32 {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// WholeSeconds 缺失、负数或非数字时为 0，小数向下取整
func WholeSeconds(v any) int {
	switch n := v.(type) {
	case int:
		if n > 0 {
			return n
		}
	case int64:
		if n > 0 && n <= math.MaxInt32 {
			return int(n)
		}
	case float64:
		if n > 0 && n <= math.MaxInt32 {
			return int(n)
		}
	case json.Number:
		if f, err := n.Float64(); err == nil && f > 0 && f <= math.MaxInt32 {
			return int(f)
		}
	}
	return 0
}
