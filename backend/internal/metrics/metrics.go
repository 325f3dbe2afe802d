package metrics

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标定义：
// - http_requests_total：按路径/方法/状态码统计请求次数
// - http_request_duration_seconds：按路径与方法统计请求耗时分布
// - compare_submissions_total：按结果统计比较请求（invalid/noop/rendered/error）
// - compare_diff_render_seconds：按内容模型统计差异渲染耗时
// - compare_diff_cache_total：差异缓存命中情况（hit/miss/purge/bypass）
// - compare_events_dropped_total：重试用尽被丢弃的事件
var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP 请求计数（按路径/方法/状态）"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP 请求耗时（秒）", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "compare_submissions_total", Help: "比较请求计数（按结果）"},
		[]string{"outcome"},
	)
	DiffRender = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "compare_diff_render_seconds", Help: "差异渲染耗时（秒）", Buckets: prometheus.DefBuckets},
		[]string{"model"},
	)
	DiffCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "compare_diff_cache_total", Help: "差异缓存命中情况"},
		[]string{"result"},
	)
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "compare_events_dropped_total", Help: "丢弃的事件数"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, Submissions, DiffRender, DiffCache, EventsDropped)
}

// Handler 返回记录基础 HTTP 指标的中间件（QPS/耗时）。
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start).Seconds()
		path := c.FullPath()
		// 未匹配的路由统一归为一类，避免标签爆炸
		if path == "" {
			path = "unmatched"
		}
		HTTPLatency.WithLabelValues(path, c.Request.Method).Observe(dur)
		HTTPRequests.WithLabelValues(path, c.Request.Method, fmt.Sprintf("%d", c.Writer.Status())).Inc()
	}
}

// Exposer 返回标准 Prometheus 暴露处理器。
func Exposer() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
