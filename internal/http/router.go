package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/quilldesk/quilldesk-backend/internal/http/handlers"
	"github.com/quilldesk/quilldesk-backend/internal/http/middleware"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

type RouterDeps struct {
	Log         *logger.Logger
	Auth        *middleware.AuthMiddleware
	RateLimiter *middleware.RateLimiter
	Health      *handlers.HealthHandler
	Essays      *handlers.EssayHandler
	Coach       *handlers.CoachHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("quilldesk-backend"))
	r.Use(middleware.AttachRequestContext())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.CORS())

	r.GET("/healthcheck", deps.Health.HealthCheck)

	api := r.Group("/api")
	api.Use(deps.Auth.RequireAuth())
	{
		api.POST("/essays", deps.Essays.Create)
		api.GET("/essays", deps.Essays.List)
		api.GET("/essays/:id", deps.Essays.Get)
		api.PATCH("/essays/:id", deps.Essays.Update)
		api.DELETE("/essays/:id", deps.Essays.Delete)

		api.POST("/review", deps.RateLimiter.LimitStreams(), deps.Coach.Review)
		api.POST("/assistant", deps.RateLimiter.LimitStreams(), deps.Coach.Assistant)
	}

	return r
}
