package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPMetrics struct {
	reqTotal *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics 每个 engine 各自的 registry，测试里可重复创建
func NewHTTPMetrics(reg prometheus.Registerer, engine string) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Count of HTTP requests",
				ConstLabels: prometheus.Labels{"engine": engine},
			},
			[]string{"path", "method", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Latency of HTTP requests",
				ConstLabels: prometheus.Labels{"engine": engine},
				Buckets:     prometheus.DefBuckets,
			}, []string{"path", "method"},
		),
	}
	for _, c := range []prometheus.Collector{m.reqTotal, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.reqTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
