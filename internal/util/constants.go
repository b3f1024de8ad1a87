package util

const (
	DateFormat  = "2006-01-02"
	MonthFormat = "2006-01"
	TimeFormat  = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// 分页
const (
	DefaultPageSize     = 10
	DefaultQuizPageSize = 12
	MaxPageSize         = 50
)

// 仪表盘窗口
const (
	RecentTestsLimit    = 10
	RecentActivityLimit = 5
	RecentActivityDays  = 30
	TrendMonths         = 12
)

// 测验已删除时的占位值
const (
	UnknownQuiz          = "Unknown Quiz"
	UnknownValue         = "Unknown"
	QuestionNotFound     = "Question not found"
	OptionNotFound       = "Option not found"
	CorrectAnswerMissing = "Correct answer not found"
)
