package monitoring

import (
	"strconv"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// CourseStepTotal 课程创作各步骤的结果计数
	CourseStepTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_step_total",
			Help: "Course authoring step outcomes",
		},
		[]string{"step", "result"},
	)

	CurriculumReplaceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "curriculum_replace_duration_seconds",
			Help:    "Duration of the curriculum replace transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	CourseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_view_cache_total",
			Help: "Course view cache lookups",
		},
		[]string{"result"},
	)

	OrphanDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orphan_documents",
			Help: "Documents whose module reference no longer resolves, as of the last sweep",
		},
		[]string{"collection"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(CourseStepTotal)
	prometheus.MustRegister(CurriculumReplaceDuration)
	prometheus.MustRegister(CourseCacheTotal)
	prometheus.MustRegister(OrphanDocuments)
}

// ObserveStep 记录步骤结果，err 为空即成功
func ObserveStep(step int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CourseStepTotal.WithLabelValues(strconv.Itoa(step), result).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
