package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"foodshare/internal/core/server"
	mdw "foodshare/internal/transport/http/middleware"
)

type Options struct {
	Log         *zap.Logger
	Mode        string
	CORSOrigins []string
	Metrics     *prometheus.Registry // nil 时不暴露 /metrics
}

// base 两个 engine 共用的中间件链
func base(o Options, engine string) (*gin.Engine, error) {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	r := server.NewRouter(server.Options{Mode: o.Mode, CORSOrigins: o.CORSOrigins, Log: o.Log})

	chain := []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.RateLimitPerIP(20, 40, 10*time.Minute),
		mdw.ConcurrencyLimit(300, time.Second),
		mdw.MaxBodyBytes(1 << 20),
		mdw.Timeout(10 * time.Second),
		mdw.Recovery(o.Log),
	}
	if o.Metrics != nil {
		m, err := mdw.NewHTTPMetrics(o.Metrics, engine)
		if err != nil {
			return nil, err
		}
		chain = append(chain, m.Handler())
	}
	chain = append(chain, mdw.AccessLog(o.Log))
	r.Use(chain...)

	// 路由必须在 Use 之后注册才会带上中间件
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	if o.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Metrics, promhttp.HandlerOpts{})))
	}
	return r, nil
}

func NewAPIEngine(o Options, reg *Registry) (*gin.Engine, error) {
	r, err := base(o, "api")
	if err != nil {
		return nil, err
	}
	reg.MountAllAPI(r.Group("/api/v1"))
	return r, nil
}
