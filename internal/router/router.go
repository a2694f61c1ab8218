package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	promhandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/pkg/auth"
)

// Handler is implemented by every API handler mounted under /api/v1.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler additionally exposes routes that need no token.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	// RateLimit of zero disables rate limiting
	RateLimit    rate.Limit
	RateBurst    int
	CORSConfig   middleware.CORSConfig
	MaxBodyBytes int64
}

type Router struct {
	engine   *gin.Engine
	jwt      auth.JWTService
	authH    PublicHandler
	handlers []Handler
	health   *health.Handler
	metrics  *promhandler.Handler
}

func NewRouter(
	jwtSvc auth.JWTService,
	authH PublicHandler,
	healthH *health.Handler,
	metricsH *promhandler.Handler,
	config RouterConfig,
	handlers ...Handler,
) *Router {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("route not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handler.NewErrorResponse("method not allowed"))
	})

	r := &Router{
		engine:   engine,
		jwt:      jwtSvc,
		authH:    authH,
		handlers: handlers,
		health:   healthH,
		metrics:  metricsH,
	}

	// Core middlewares, request id first so everything after logs with it
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		metricsH.Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.BodySizeLimit(config.MaxBodyBytes),
	)

	if config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.health.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", r.metrics.Handler())

	api := r.engine.Group("/api/v1")

	// Public routes
	r.authH.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.Authenticate(r.jwt))

	r.authH.RegisterRoutes(protected)
	for _, h := range r.handlers {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
