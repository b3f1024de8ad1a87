package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// QuizSubmissions 判分完成的提交，按是否通过区分
	QuizSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Total number of graded quiz submissions",
		},
		[]string{"outcome"},
	)

	GradeDistribution = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_grades_total",
			Help: "Letter grades awarded to submissions",
		},
		[]string{"grade"},
	)

	SubmissionRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submission_rejections_total",
			Help: "Submissions rejected before grading",
		},
		[]string{"reason"},
	)

	StatsRecalculations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_stats_recalculations_total",
			Help: "Quiz average score recalculations",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuizSubmissions,
			GradeDistribution,
			SubmissionRejections,
			StatsRecalculations,
		)
	})
}

// ObserveSubmission 记录一次判分结果
func ObserveSubmission(grade string, passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	QuizSubmissions.WithLabelValues(outcome).Inc()
	GradeDistribution.WithLabelValues(grade).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
