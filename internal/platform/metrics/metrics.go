package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "little_learners"

var (
	// CoinsCredited 按活动统计发放的金币总数
	CoinsCredited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_credited_total",
			Help:      "Total number of coins credited to users",
		},
		[]string{"activity"},
	)

	// ResultsRecorded 按活动和结果统计写入的小游戏记录
	ResultsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minigame_results_total",
			Help:      "Mini-game result rows recorded",
		},
		[]string{"activity", "outcome"},
	)

	SpinsByColor = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carnival_spins_total",
			Help:      "Color wheel spins by drawn color",
		},
		[]string{"color"},
	)

	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of requests currently being processed",
		},
	)

	dbConnPoolStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connection_pool",
			Help:      "Database connection pool statistics",
		},
		[]string{"stat"},
	)
)

// Outcome 把布尔结果转换成标签值
func Outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Middleware 记录每个请求的次数、耗时和并发数。
// 路径使用路由模板，未匹配的路由统一记为 "unmatched"，避免标签爆炸。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		requestCounter.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// RecordDBPoolStats 记录数据库连接池统计
func RecordDBPoolStats(stats sql.DBStats) {
	dbConnPoolStats.WithLabelValues("open").Set(float64(stats.OpenConnections))
	dbConnPoolStats.WithLabelValues("in_use").Set(float64(stats.InUse))
	dbConnPoolStats.WithLabelValues("idle").Set(float64(stats.Idle))
	dbConnPoolStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
	dbConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(stats.WaitDuration.Milliseconds()))
}

// Handler 暴露 /metrics，每次抓取前刷新连接池统计
func Handler(db *sql.DB) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		if db != nil {
			RecordDBPoolStats(db.Stats())
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
