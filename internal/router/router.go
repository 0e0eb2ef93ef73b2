package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(gin.IRouter)
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodySize    int64
	CORSConfig     middleware.CORSConfig
	Metrics        *metrics.Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type Router struct {
	engine  *gin.Engine
	config  RouterConfig
	auth    *middleware.AuthMiddleware
	healthH Handler
	publicH Handler
	doctorH Handler
	adminH  Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH Handler,
	publicH Handler,
	doctorH Handler,
	adminH Handler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()

	r := &Router{
		engine:  engine,
		config:  config,
		auth:    auth,
		healthH: healthH,
		publicH: publicH,
		doctorH: doctorH,
		adminH:  adminH,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)
	if config.MaxBodySize > 0 {
		engine.Use(middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodySize}))
	}
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}))
	}

	return r
}

// Setup registers every route.
func (r *Router) Setup() {
	r.healthH.RegisterRoutes(r.engine)
	if r.config.Gatherer != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.config.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.engine.Group("/api/v1")

	public := api.Group("")
	if r.config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		public.Use(limiter.RateLimit())
	}
	r.publicH.RegisterRoutes(public)

	me := api.Group("/me", r.auth.Authenticate(), r.auth.RequireRole(model.RoleDoctor))
	r.doctorH.RegisterRoutes(me)

	admin := api.Group("/admin", r.auth.Authenticate(), r.auth.RequireRole(model.RoleAdmin))
	r.adminH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	m := r.config.Metrics
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
