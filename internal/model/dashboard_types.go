package model

import "time"

// DashboardOverview 概览统计
type DashboardOverview struct {
	TotalQuizzesCreated int `json:"totalQuizzesCreated"`
	TotalTestsTaken     int `json:"totalTestsTaken"`
	AverageScore        int `json:"averageScore"`
	TotalQuizAttempts   int `json:"totalQuizAttempts"`
	PublicQuizzes       int `json:"publicQuizzes"`
	PrivateQuizzes      int `json:"privateQuizzes"`
}

// RecentTest 最近测试，测验已删除时使用占位值
type RecentTest struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Category       string    `json:"category"`
	Difficulty     string    `json:"difficulty"`
	Score          int       `json:"score"`
	Percentage     int       `json:"percentage"`
	Grade          string    `json:"grade"`
	IsPassed       bool      `json:"isPassed"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	EarnedPoints   int       `json:"earnedPoints"`
	TotalPoints    int       `json:"totalPoints"`
	TimeSpent      int       `json:"timeSpent"`
	CompletedAt    time.Time `json:"completedAt"`
}

// CreatedQuizSummary 我创建的测验，统计为实时计算
type CreatedQuizSummary struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	IsPublic      bool       `json:"isPublic"`
	IsActive      bool       `json:"isActive"`
	QuestionCount int        `json:"questionCount"`
	TotalAttempts int        `json:"totalAttempts"`
	AverageScore  int        `json:"averageScore"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CategoryPerformance 分类表现
type CategoryPerformance struct {
	Category      string `json:"category"`
	AverageScore  int    `json:"averageScore"`
	TotalAttempts int    `json:"totalAttempts"`
	BestScore     int    `json:"bestScore"`
	TotalPoints   int    `json:"totalPoints"`
}

// RecentActivity 最近动态
type RecentActivity struct {
	Type        string    `json:"type"`
	ResultID    string    `json:"resultId"`
	QuizTitle   string    `json:"quizTitle"`
	Category    string    `json:"category"`
	Percentage  int       `json:"percentage"`
	Grade       string    `json:"grade"`
	CompletedAt time.Time `json:"completedAt"`
}

// MonthlyTrend 月度趋势，Month 格式 YYYY-MM
type MonthlyTrend struct {
	Month        string `json:"month"`
	AverageScore int    `json:"averageScore"`
	TotalTests   int    `json:"totalTests"`
}

// Achievement 徽章
type Achievement struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// Dashboard 仪表盘聚合
type Dashboard struct {
	Overview            DashboardOverview     `json:"overview"`
	RecentTests         []RecentTest          `json:"recentTests"`
	CreatedQuizzes      []CreatedQuizSummary  `json:"createdQuizzes"`
	CategoryPerformance []CategoryPerformance `json:"categoryPerformance"`
	RecentActivity      []RecentActivity      `json:"recentActivity"`
	PerformanceTrends   []MonthlyTrend        `json:"performanceTrends"`
	Achievements        []Achievement         `json:"achievements"`
}

// DetailedAnswer 结果详情中的逐题对照
type DetailedAnswer struct {
	QuestionNumber int      `json:"questionNumber"`
	QuestionID     string   `json:"questionId"`
	Question       string   `json:"question"`
	SelectedOption int      `json:"selectedOption"`
	SelectedText   string   `json:"selectedText"`
	CorrectOption  int      `json:"correctOption"`
	CorrectText    string   `json:"correctText"`
	AllOptions     []string `json:"allOptions"`
	IsCorrect      bool     `json:"isCorrect"`
	Points         int      `json:"points"`
	TimeSpent      int      `json:"timeSpent"`
	Explanation    string   `json:"explanation,omitempty"`
}

// ResultStatistics 结果详情统计
type ResultStatistics struct {
	AccuracyRate           int `json:"accuracyRate"`
	AverageTimePerQuestion int `json:"averageTimePerQuestion"`
	IncorrectAnswers       int `json:"incorrectAnswers"`
}

// ResultQuizInfo 结果详情中的测验信息
type ResultQuizInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	CreatorName string `json:"creatorName"`
}

// ResultDetail 单次结果详情
type ResultDetail struct {
	Result          TestResult       `json:"result"`
	Quiz            ResultQuizInfo   `json:"quiz"`
	DetailedAnswers []DetailedAnswer `json:"detailedAnswers"`
	Statistics      ResultStatistics `json:"statistics"`
}

// HistoryItem 历史记录行
type HistoryItem struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Category       string    `json:"category"`
	Difficulty     string    `json:"difficulty"`
	Percentage     int       `json:"percentage"`
	Grade          string    `json:"grade"`
	IsPassed       bool      `json:"isPassed"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	EarnedPoints   int       `json:"earnedPoints"`
	TotalPoints    int       `json:"totalPoints"`
	TimeSpent      int       `json:"timeSpent"`
	CompletedAt    time.Time `json:"completedAt"`
}

// CategoryFacet 分类维度计数，不受当前筛选条件影响，平均分保留一位小数
type CategoryFacet struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

// HistorySummary 当前页汇总
type HistorySummary struct {
	TotalTests     int64 `json:"totalTests"`
	AverageScore   int   `json:"averageScore"`
	TotalTimeSpent int   `json:"totalTimeSpent"`
}

// HistoryFilters 筛选项
type HistoryFilters struct {
	Categories            []CategoryFacet `json:"categories"`
	AvailableDifficulties []Difficulty    `json:"availableDifficulties"`
}

// HistoryPage 分页历史记录
type HistoryPage struct {
	Results    []HistoryItem  `json:"results"`
	Pagination Pagination     `json:"pagination"`
	Summary    HistorySummary `json:"summary"`
	Filters    HistoryFilters `json:"filters"`
}

// Pagination 分页信息
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
	Limit       int   `json:"limit"`
}

// NewPagination 根据总数计算分页信息
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
		Limit:       limit,
	}
}

// DailyPerformance 按天统计
type DailyPerformance struct {
	Date           string `json:"date"`
	AverageScore   int    `json:"averageScore"`
	TotalTests     int    `json:"totalTests"`
	TotalTimeSpent int    `json:"totalTimeSpent"`
}

// DifficultyPerformance 按难度统计
type DifficultyPerformance struct {
	Difficulty    Difficulty `json:"difficulty"`
	AverageScore  int        `json:"averageScore"`
	TotalAttempts int        `json:"totalAttempts"`
	BestScore     int        `json:"bestScore"`
	WorstScore    int        `json:"worstScore"`
}

// TimeAnalysis 用时分析，窗口内无数据时全为 0
type TimeAnalysis struct {
	AverageTimePerQuiz int `json:"averageTimePerQuiz"`
	TotalTimeSpent     int `json:"totalTimeSpent"`
	FastestCompletion  int `json:"fastestCompletion"`
	SlowestCompletion  int `json:"slowestCompletion"`
}

// AnalyticsSnapshot 时间窗口分析
type AnalyticsSnapshot struct {
	Timeframe           string                  `json:"timeframe"`
	StartDate           time.Time               `json:"startDate"`
	EndDate             time.Time               `json:"endDate"`
	PerformanceOverTime []DailyPerformance      `json:"performanceOverTime"`
	DifficultyAnalysis  []DifficultyPerformance `json:"difficultyAnalysis"`
	TimeAnalysis        TimeAnalysis            `json:"timeAnalysis"`
}
