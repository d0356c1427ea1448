package handler

import (
	"context"
	"net/http"
	"time"

	"config_client/internal/cache"
	"config_client/internal/config"
	"config_client/internal/middleware"
	"config_client/internal/observability"
	"config_client/internal/user"
	"config_client/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

const healthTimeout = 2 * time.Second

// Dependencies are the collaborators SetupHandler wires together.
// DB and Redis may be nil; UserRepository overrides the SQL repository when set.
type Dependencies struct {
	DB             *sqlx.DB
	Redis          *redis.Client
	Config         *config.Config
	Metrics        *observability.Metrics
	UserRepository user.UserRepositoryInterface
}

// SetupHandler initializes all dependencies and routes
func SetupHandler(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	if deps.Metrics != nil {
		r.Use(middleware.PrometheusMiddleware(deps.Metrics))
	}

	userController := user.NewUserController(newUserRepository(deps), deps.Metrics)

	setupRoutes(r, userController, deps)

	return r
}

// newUserRepository picks the repository and puts the redis cache in front of it when available.
func newUserRepository(deps Dependencies) user.UserRepositoryInterface {
	repo := deps.UserRepository
	if repo == nil {
		repo = user.NewUserRepository(deps.DB, deps.Metrics)
	}
	if deps.Redis == nil {
		return repo
	}

	ttl := cache.DefaultUserCacheTTL
	if deps.Config != nil {
		ttl = deps.Config.Redis.CacheTTL
	}
	return user.NewCachedUserRepository(repo, cache.NewUserCache(deps.Redis, ttl), deps.Metrics)
}

// setupRoutes configures all application routes
func setupRoutes(r *gin.Engine, userCtrl *user.UserController, deps Dependencies) {
	r.GET("/health", healthHandler(deps))

	api := r.Group("")
	if deps.Redis != nil && deps.Config != nil && deps.Config.RateLimit.Enabled {
		api.Use(middleware.RateLimiterMiddleware(deps.Redis, &middleware.RateLimiterConfig{
			Capacity:   deps.Config.RateLimit.Capacity,
			RefillRate: deps.Config.RateLimit.RefillRate,
		}))
	}
	userCtrl.SetupRoutes(api)
}

func healthHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := gin.H{
			"database": componentStatus(deps.DB != nil, func() error { return deps.DB.PingContext(ctx) }),
			"cache":    componentStatus(deps.Redis != nil, func() error { return deps.Redis.Ping(ctx).Err() }),
		}

		// the cache is optional, a missing database is not
		if status["database"] == "down" {
			response.ServiceUnavailable(c, status)
			return
		}

		status["status"] = "ok"
		c.JSON(http.StatusOK, status)
	}
}

func componentStatus(configured bool, ping func() error) string {
	if !configured {
		return "disabled"
	}
	if err := ping(); err != nil {
		return "down"
	}
	return "up"
}
