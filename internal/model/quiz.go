package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultQuestionPoints = 1
	DefaultTimeLimit      = 30
)

// Option 选项，IsCorrect 对非创建者隐藏
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuizSettings 洗牌开关只做存储，不参与判分
type QuizSettings struct {
	ShuffleQuestions   bool `json:"shuffleQuestions"`
	ShuffleOptions     bool `json:"shuffleOptions"`
	ShowCorrectAnswers bool `json:"showCorrectAnswers"`
	AllowRetake        bool `json:"allowRetake"`
}

func DefaultQuizSettings() QuizSettings {
	return QuizSettings{ShowCorrectAnswers: true, AllowRetake: true}
}

// QuizStats 冗余统计，TotalAttempts 原子自增，AverageScore 由重算任务维护
type QuizStats struct {
	TotalAttempts int `gorm:"not null;default:0" json:"totalAttempts"`
	AverageScore  int `gorm:"not null;default:0" json:"averageScore"`
}

// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title         string                      `gorm:"size:100;not null" json:"title"`
	Description   string                      `gorm:"size:1000;not null" json:"description"`
	Category      Category                    `gorm:"size:50;index;not null" json:"category"`
	Difficulty    Difficulty                  `gorm:"size:10;index;not null" json:"difficulty"`
	CreatorID     string                      `gorm:"type:varchar(36);index;not null" json:"creatorId"`
	Questions     []Question                  `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions"`
	TimeLimit     int                         `gorm:"not null" json:"timeLimit"`
	IsPublic      bool                        `gorm:"index" json:"isPublic"`
	IsActive      bool                        `gorm:"index" json:"isActive"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	Settings      QuizSettings                `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Stats         QuizStats                   `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	TotalPoints   int                         `gorm:"not null;default:0" json:"totalPoints"`
	DeactivatedAt *time.Time                  `json:"deactivatedAt,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// RecalculateTotalPoints 题目变更后必须调用
func (q *Quiz) RecalculateTotalPoints() int {
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].PointValue()
	}
	q.TotalPoints = total
	return total
}

func (q *Quiz) IsOwnedBy(userID string) bool {
	return userID != "" && q.CreatorID == userID
}

// FindQuestion 按题目ID查找，返回题目及其序号
func (q *Quiz) FindQuestion(id string) (*Question, int, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], i, true
		}
	}
	return nil, -1, false
}

// swagger:model Question
type Question struct {
	UUIDBase
	QuizID      string                      `gorm:"type:varchar(36);index;not null" json:"-"`
	Position    int                         `gorm:"not null" json:"-"`
	Text        string                      `gorm:"type:text;not null" json:"question"`
	Options     datatypes.JSONSlice[Option] `json:"options"`
	Points      int                         `gorm:"not null" json:"points"`
	Difficulty  Difficulty                  `gorm:"size:10" json:"difficulty"`
	Explanation string                      `gorm:"type:text" json:"explanation,omitempty"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// PointValue 未设置分值时按 1 分计
func (q *Question) PointValue() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultQuestionPoints
}

// OptionAt 越界返回 false
func (q *Question) OptionAt(i int) (Option, bool) {
	if i < 0 || i >= len(q.Options) {
		return Option{}, false
	}
	return q.Options[i], true
}

// CorrectOption 第一个正确选项的下标，没有时为 -1
func (q *Question) CorrectOption() int {
	for i, o := range q.Options {
		if o.IsCorrect {
			return i
		}
	}
	return -1
}

func (q *Question) HasCorrectOption() bool {
	return q.CorrectOption() >= 0
}
