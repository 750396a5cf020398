package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/mpetrakis/repair-api/internal/handler"
	"github.com/mpetrakis/repair-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	authH     *authHandlers
	trackH    Handler
	deviceH   Handler
	settingsH Handler
	staffH    Handler
	h         *handler.Handler
	metrics   *routerMetrics
}

// authHandlers splits the auth surface into its public (login) and
// protected (change-password) halves.
type authHandlers struct {
	public    func(*gin.RouterGroup)
	protected func(*gin.RouterGroup)
}

type AuthHandler interface {
	RegisterPublicRoutes(*gin.RouterGroup)
	RegisterRoutes(*gin.RouterGroup)
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimit     rate.Limit
	RateBurst     int
	Timeout       time.Duration
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH AuthHandler,
	trackH Handler,
	deviceH Handler,
	settingsH Handler,
	staffH Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	if config.Timeout == 0 {
		config.Timeout = middleware.DefaultTimeoutConfig().Duration
	}

	r := &Router{
		engine: engine,
		auth:   auth,
		authH: &authHandlers{
			public:    authH.RegisterPublicRoutes,
			protected: authH.RegisterRoutes,
		},
		trackH:    trackH,
		deviceH:   deviceH,
		settingsH: settingsH,
		staffH:    staffH,
		h:         h,
		metrics:   initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.RequestID(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	// Public routes: login and customer tracking.
	r.authH.public(api)
	r.trackH.RegisterRoutes(api)

	// Staff routes.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.authH.protected(protected)
	r.deviceH.RegisterRoutes(protected)

	// Admin routes.
	admin := protected.Group("")
	admin.Use(r.auth.RequireAdmin())
	r.settingsH.RegisterRoutes(admin)
	r.staffH.RegisterRoutes(admin)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
