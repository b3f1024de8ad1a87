package service

import (
	"time"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/util"
)

// CanViewQuiz 先判断是否启用，再判断公开或本人创建；停用的测验对创建者同样不可见
func CanViewQuiz(quiz *model.Quiz, callerID string) error {
	if !quiz.IsActive {
		return util.ErrQuizUnavailable
	}
	if !quiz.IsPublic && !quiz.IsOwnedBy(callerID) {
		return util.ErrQuizAccessDenied
	}
	return nil
}

// CanModifyQuiz 仅创建者可修改
func CanModifyQuiz(quiz *model.Quiz, callerID string) error {
	if !quiz.IsOwnedBy(callerID) {
		return util.ErrQuizUpdateDenied
	}
	return nil
}

// CanDeleteQuiz 仅创建者可删除
func CanDeleteQuiz(quiz *model.Quiz, callerID string) error {
	if !quiz.IsOwnedBy(callerID) {
		return util.ErrQuizDeleteDenied
	}
	return nil
}

// CanViewResult 结果本人或测验创建者可查看，quiz 为 nil 表示测验已删除
func CanViewResult(result *model.TestResult, quiz *model.Quiz, callerID string) error {
	if callerID != "" && result.UserID == callerID {
		return nil
	}
	if quiz != nil && quiz.IsOwnedBy(callerID) {
		return nil
	}
	return util.ErrResultAccessDenied
}

// OptionView 选项视图，IsCorrect 为 nil 时不输出
type OptionView struct {
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

type QuestionView struct {
	ID          string           `json:"id"`
	Question    string           `json:"question"`
	Options     []OptionView     `json:"options"`
	Points      int              `json:"points"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Explanation string           `json:"explanation,omitempty"`
}

// QuizView 对外返回的测验，Redacted 时不含正确答案和解析
type QuizView struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    model.Category     `json:"category"`
	Difficulty  model.Difficulty   `json:"difficulty"`
	CreatorID   string             `json:"creatorId"`
	CreatorName string             `json:"creatorName,omitempty"`
	Questions   []QuestionView     `json:"questions"`
	TimeLimit   int                `json:"timeLimit"`
	IsPublic    bool               `json:"isPublic"`
	IsActive    bool               `json:"isActive"`
	Tags        []string           `json:"tags"`
	Settings    model.QuizSettings `json:"settings"`
	Stats       model.QuizStats    `json:"stats"`
	TotalPoints int                `json:"totalPoints"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Redacted    bool               `json:"redacted"`
}

// RedactQuiz 非创建者看到的版本
func RedactQuiz(quiz *model.Quiz) *QuizView {
	return newQuizView(quiz, true)
}

// FullQuiz 创建者看到的完整版本
func FullQuiz(quiz *model.Quiz) *QuizView {
	return newQuizView(quiz, false)
}

func newQuizView(quiz *model.Quiz, redact bool) *QuizView {
	view := &QuizView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Category:    quiz.Category,
		Difficulty:  quiz.Difficulty,
		CreatorID:   quiz.CreatorID,
		Questions:   make([]QuestionView, 0, len(quiz.Questions)),
		TimeLimit:   quiz.TimeLimit,
		IsPublic:    quiz.IsPublic,
		IsActive:    quiz.IsActive,
		Tags:        append([]string{}, quiz.Tags...),
		Settings:    quiz.Settings,
		Stats:       quiz.Stats,
		TotalPoints: quiz.TotalPoints,
		CreatedAt:   quiz.CreatedAt,
		UpdatedAt:   quiz.UpdatedAt,
		Redacted:    redact,
	}

	for _, q := range quiz.Questions {
		qv := QuestionView{
			ID:         q.ID,
			Question:   q.Text,
			Options:    make([]OptionView, 0, len(q.Options)),
			Points:     q.PointValue(),
			Difficulty: q.Difficulty,
		}
		for _, o := range q.Options {
			ov := OptionView{Text: o.Text}
			if !redact {
				isCorrect := o.IsCorrect
				ov.IsCorrect = &isCorrect
			}
			qv.Options = append(qv.Options, ov)
		}
		if !redact {
			qv.Explanation = q.Explanation
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}
