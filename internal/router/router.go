package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mindset-app/mindset-backend/internal/config"
	"github.com/mindset-app/mindset-backend/internal/handler"
	"github.com/mindset-app/mindset-backend/internal/metrics"
	"github.com/mindset-app/mindset-backend/internal/middleware"
	"github.com/mindset-app/mindset-backend/internal/service"
)

// Deps is everything the HTTP layer needs.  DB and Redis may be nil.
type Deps struct {
	JWTSecret string
	DB        *sql.DB
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig

	Resolver *service.IdentityResolver
	Events   *service.EventService
	RSVPs    *service.RSVPService
	Auth     *service.AuthService
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Validator = handler.NewValidator()

	// /events/ and /events resolve to the same route
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	RegisterRoutes(e, d.DB)
	authn := []echo.MiddlewareFunc{middleware.JWTAuth(d.JWTSecret), middleware.Identity(d.Resolver)}
	RegisterAuth(e, handler.NewAuthHandler(d.Auth), authn)
	cache := middleware.NewResponseCache(d.Cache, d.Redis)
	RegisterEvents(e, handler.NewEventHandler(d.Events, cache), cache, authn)
	RegisterRSVPs(e, handler.NewRSVPHandler(d.RSVPs), middleware.RateLimit(d.RateLimit, d.Redis), authn)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health{DB: db}.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
