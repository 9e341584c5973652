package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/access"
	"notes-backend/internal/answer"
	"notes-backend/internal/documents"
	"notes-backend/internal/index"
	"notes-backend/internal/shared/config"
	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/users"
)

const askRateGroup = "ASK"

// RouterDeps carries the handlers and policies the router mounts.
type RouterDeps struct {
	Config          config.Config
	Gate            *access.Gate
	UserHandler     *users.Handler
	DocumentHandler *documents.Handler
	SearchHandler   *index.Handler
	AskHandler      *answer.Handler
	// Limiter is shared across routers built from the same deps; nil builds one.
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	public := r.Group("")
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterPublicRoutes(public)
	}

	protected := r.Group("")
	protected.Use(middleware.Auth(deps.Gate))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(protected)
	}
	if deps.SearchHandler != nil {
		deps.SearchHandler.RegisterRoutes(protected)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(protected)
	}
	if deps.AskHandler != nil {
		deps.AskHandler.RegisterRoutes(protected, askRateLimit(deps))
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

func askRateLimit(deps RouterDeps) gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: askRateGroup,
		Limiter:      deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			askRateGroup: {Rate: deps.Config.AskRatePerSecond, Burst: deps.Config.AskBurst},
		},
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
