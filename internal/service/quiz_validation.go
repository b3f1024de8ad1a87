package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"quiz_platform_backend/internal/model"
	"quiz_platform_backend/internal/util"
)

// 字段长度与数量限制
const (
	TitleMinLen       = 5
	TitleMaxLen       = 100
	DescriptionMinLen = 10
	DescriptionMaxLen = 1000
	TimeLimitMin      = 5
	TimeLimitMax      = 180
	TagMaxLen         = 30
	MinQuestions      = 1
	MaxQuestions      = 50
	QuestionMinLen    = 10
	QuestionMaxLen    = 500
	MinOptions        = 2
	MaxOptions        = 6
	OptionMaxLen      = 200
	PointsMin         = 1
	PointsMax         = 10
	ExplanationMaxLen = 1000
)

type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Question    string           `json:"question"`
	Options     []OptionInput    `json:"options"`
	Points      int              `json:"points"`
	Difficulty  model.Difficulty `json:"difficulty" binding:"omitempty,quizdifficulty"`
	Explanation string           `json:"explanation"`
}

// SettingsInput 未传的开关使用默认值
type SettingsInput struct {
	ShuffleQuestions   *bool `json:"shuffleQuestions"`
	ShuffleOptions     *bool `json:"shuffleOptions"`
	ShowCorrectAnswers *bool `json:"showCorrectAnswers"`
	AllowRetake        *bool `json:"allowRetake"`
}

// QuizRequest 创建测验请求
type QuizRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Category    model.Category   `json:"category" binding:"required,quizcategory"`
	Difficulty  model.Difficulty `json:"difficulty" binding:"omitempty,quizdifficulty"`
	Questions   []QuestionInput  `json:"questions" binding:"required,dive"`
	TimeLimit   int              `json:"timeLimit"`
	IsPublic    *bool            `json:"isPublic"`
	Tags        []string         `json:"tags"`
	Settings    *SettingsInput   `json:"settings"`
}

// QuizPatch 更新请求，nil 字段保持不变；Questions 非 nil 时整体替换
type QuizPatch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *model.Category   `json:"category" binding:"omitempty,quizcategory"`
	Difficulty  *model.Difficulty `json:"difficulty" binding:"omitempty,quizdifficulty"`
	Questions   []QuestionInput   `json:"questions" binding:"omitempty,dive"`
	TimeLimit   *int              `json:"timeLimit"`
	IsPublic    *bool             `json:"isPublic"`
	IsActive    *bool             `json:"isActive"`
	Tags        []string          `json:"tags"`
	Settings    *SettingsInput    `json:"settings"`
}

// ValidateQuizRequest 校验并构造待保存的测验，错误信息按字段汇总
func ValidateQuizRequest(req *QuizRequest) (*model.Quiz, error) {
	verr := &util.ValidationError{}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	validateTitle(verr, title)
	validateDescription(verr, description)

	if !req.Category.IsValid() {
		verr.Add("category", "Invalid category")
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	} else if !difficulty.IsValid() {
		verr.Add("difficulty", "Invalid difficulty")
	}

	timeLimit := req.TimeLimit
	if timeLimit == 0 {
		timeLimit = model.DefaultTimeLimit
	}
	validateTimeLimit(verr, timeLimit)

	tags := normalizeTags(verr, req.Tags)
	questions := validateQuestions(verr, req.Questions)

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		Title:       title,
		Description: description,
		Category:    req.Category,
		Difficulty:  difficulty,
		Questions:   questions,
		TimeLimit:   timeLimit,
		IsPublic:    true,
		IsActive:    true,
		Tags:        tags,
		Settings:    applySettings(model.DefaultQuizSettings(), req.Settings),
	}
	if req.IsPublic != nil {
		quiz.IsPublic = *req.IsPublic
	}
	quiz.RecalculateTotalPoints()
	return quiz, nil
}

// ApplyQuizPatch 在副本上应用补丁并校验，成功后返回是否替换了题目
func ApplyQuizPatch(quiz *model.Quiz, patch *QuizPatch) (bool, error) {
	verr := &util.ValidationError{}
	next := *quiz

	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
		validateTitle(verr, next.Title)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
		validateDescription(verr, next.Description)
	}
	if patch.Category != nil {
		next.Category = *patch.Category
		if !next.Category.IsValid() {
			verr.Add("category", "Invalid category")
		}
	}
	if patch.Difficulty != nil {
		next.Difficulty = *patch.Difficulty
		if !next.Difficulty.IsValid() {
			verr.Add("difficulty", "Invalid difficulty")
		}
	}
	if patch.TimeLimit != nil {
		next.TimeLimit = *patch.TimeLimit
		validateTimeLimit(verr, next.TimeLimit)
	}
	if patch.IsPublic != nil {
		next.IsPublic = *patch.IsPublic
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	if patch.Tags != nil {
		next.Tags = normalizeTags(verr, patch.Tags)
	}
	if patch.Settings != nil {
		next.Settings = applySettings(next.Settings, patch.Settings)
	}

	replaceQuestions := patch.Questions != nil
	if replaceQuestions {
		next.Questions = validateQuestions(verr, patch.Questions)
	}

	if err := verr.OrNil(); err != nil {
		return false, err
	}

	if replaceQuestions {
		next.RecalculateTotalPoints()
	}
	*quiz = next
	return replaceQuestions, nil
}

func validateTitle(verr *util.ValidationError, title string) {
	if n := utf8.RuneCountInString(title); n < TitleMinLen || n > TitleMaxLen {
		verr.Add("title", fmt.Sprintf("Title must be between %d and %d characters", TitleMinLen, TitleMaxLen))
	}
}

func validateDescription(verr *util.ValidationError, description string) {
	if n := utf8.RuneCountInString(description); n < DescriptionMinLen || n > DescriptionMaxLen {
		verr.Add("description", fmt.Sprintf("Description must be between %d and %d characters", DescriptionMinLen, DescriptionMaxLen))
	}
}

func validateTimeLimit(verr *util.ValidationError, timeLimit int) {
	if timeLimit < TimeLimitMin || timeLimit > TimeLimitMax {
		verr.Add("timeLimit", fmt.Sprintf("Time limit must be between %d and %d minutes", TimeLimitMin, TimeLimitMax))
	}
}

// normalizeTags 去空白、去空、去重，保持原有顺序
func normalizeTags(verr *util.ValidationError, raw []string) []string {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		if utf8.RuneCountInString(t) > TagMaxLen {
			verr.Add("tags", fmt.Sprintf("Tag cannot exceed %d characters", TagMaxLen))
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

func validateQuestions(verr *util.ValidationError, inputs []QuestionInput) []model.Question {
	if len(inputs) < MinQuestions || len(inputs) > MaxQuestions {
		verr.Add("questions", fmt.Sprintf("Quiz must have between %d and %d questions", MinQuestions, MaxQuestions))
		return nil
	}

	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		n := i + 1
		field := fmt.Sprintf("questions[%d]", i)

		text := strings.TrimSpace(in.Question)
		switch l := utf8.RuneCountInString(text); {
		case l == 0:
			verr.Add(field+".question", fmt.Sprintf("Question %d must have text", n))
		case l < QuestionMinLen || l > QuestionMaxLen:
			verr.Add(field+".question", fmt.Sprintf("Question %d must be between %d and %d characters", n, QuestionMinLen, QuestionMaxLen))
		}

		if len(in.Options) < MinOptions || len(in.Options) > MaxOptions {
			verr.Add(field+".options", fmt.Sprintf("Question %d must have between %d and %d options", n, MinOptions, MaxOptions))
		}

		options := make([]model.Option, 0, len(in.Options))
		hasCorrect, hasEmpty, tooLong := false, false, false
		for _, o := range in.Options {
			optText := strings.TrimSpace(o.Text)
			if optText == "" {
				hasEmpty = true
			} else if utf8.RuneCountInString(optText) > OptionMaxLen {
				tooLong = true
			}
			hasCorrect = hasCorrect || o.IsCorrect
			options = append(options, model.Option{Text: optText, IsCorrect: o.IsCorrect})
		}
		if len(in.Options) > 0 && !hasCorrect {
			verr.Add(field+".options", fmt.Sprintf("Question %d must have at least one correct answer", n))
		}
		if hasEmpty {
			verr.Add(field+".options", fmt.Sprintf("All options in question %d must have text", n))
		}
		if tooLong {
			verr.Add(field+".options", fmt.Sprintf("Options in question %d cannot exceed %d characters", n, OptionMaxLen))
		}

		points := in.Points
		if points == 0 {
			points = model.DefaultQuestionPoints
		}
		if points < PointsMin || points > PointsMax {
			verr.Add(field+".points", fmt.Sprintf("Question %d points must be between %d and %d", n, PointsMin, PointsMax))
		}

		difficulty := in.Difficulty
		if difficulty == "" {
			difficulty = model.DifficultyMedium
		} else if !difficulty.IsValid() {
			verr.Add(field+".difficulty", fmt.Sprintf("Question %d has an invalid difficulty", n))
		}

		explanation := strings.TrimSpace(in.Explanation)
		if utf8.RuneCountInString(explanation) > ExplanationMaxLen {
			verr.Add(field+".explanation", fmt.Sprintf("Explanation of question %d cannot exceed %d characters", n, ExplanationMaxLen))
		}

		questions = append(questions, model.Question{
			Text:        text,
			Options:     options,
			Points:      points,
			Difficulty:  difficulty,
			Explanation: explanation,
		})
	}
	return questions
}

func applySettings(base model.QuizSettings, in *SettingsInput) model.QuizSettings {
	if in == nil {
		return base
	}
	if in.ShuffleQuestions != nil {
		base.ShuffleQuestions = *in.ShuffleQuestions
	}
	if in.ShuffleOptions != nil {
		base.ShuffleOptions = *in.ShuffleOptions
	}
	if in.ShowCorrectAnswers != nil {
		base.ShowCorrectAnswers = *in.ShowCorrectAnswers
	}
	if in.AllowRetake != nil {
		base.AllowRetake = *in.AllowRetake
	}
	return base
}
