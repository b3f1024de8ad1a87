package model

import (
	"time"

	"gorm.io/datatypes"
)

// InvalidOption 非法或缺失的选项下标
const InvalidOption = -1

// Answer 单题作答记录
type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeSpent      int    `json:"timeSpent"`
	Points         int    `json:"points"`
}

// TestResult 一次提交的判分结果，创建后不可修改
// swagger:model TestResult
type TestResult struct {
	UUIDBase
	UserID         string                      `gorm:"type:varchar(36);not null;index:idx_results_user_completed,priority:1;index:idx_results_user_quiz,priority:1" json:"userId"`
	QuizID         string                      `gorm:"type:varchar(36);not null;index;index:idx_results_user_quiz,priority:2" json:"quizId"`
	Answers        datatypes.JSONSlice[Answer] `json:"answers"`
	Score          int                         `gorm:"not null" json:"score"`
	TotalQuestions int                         `gorm:"not null" json:"totalQuestions"`
	CorrectAnswers int                         `gorm:"not null" json:"correctAnswers"`
	TotalPoints    int                         `gorm:"not null" json:"totalPoints"`
	EarnedPoints   int                         `gorm:"not null" json:"earnedPoints"`
	Percentage     int                         `gorm:"not null" json:"percentage"`
	Grade          string                      `gorm:"size:2;not null" json:"grade"`
	IsPassed       bool                        `json:"isPassed"`
	TimeSpent      int                         `gorm:"not null" json:"timeSpent"`
	CompletedAt    time.Time                   `gorm:"not null;index:idx_results_user_completed,priority:2" json:"completedAt"`
	IPAddress      string                      `gorm:"size:64" json:"-"`
	UserAgent      string                      `gorm:"size:512" json:"-"`
}

func (TestResult) TableName() string {
	return "test_results"
}

// ResultWithQuiz 结果与测验的联表行，测验被删除时 Quiz* 字段为 nil
type ResultWithQuiz struct {
	TestResult
	QuizTitle      *string `json:"quizTitle"`
	QuizCategory   *string `json:"quizCategory"`
	QuizDifficulty *string `json:"quizDifficulty"`
}

func (r *ResultWithQuiz) HasQuiz() bool {
	return r.QuizTitle != nil
}
