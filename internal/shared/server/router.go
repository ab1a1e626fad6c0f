package server

import (
	"github.com/gin-gonic/gin"

	"docgateway-backend/internal/downloads"
	"docgateway-backend/internal/services/health"
	"docgateway-backend/internal/shared/config"
	"docgateway-backend/internal/shared/server/middleware"
	"docgateway-backend/internal/shared/server/respond"
	"docgateway-backend/internal/uploads"
)

// RouterDeps carries everything NewRouter needs to register routes.
type RouterDeps struct {
	Config           config.Config
	UploadsHandler   *uploads.Handler
	DownloadsHandler *downloads.Handler
	HealthService    *health.Service
}

// Upload rate limit: a small steady rate with room for short bursts, keyed
// per client IP.
var uploadRateRule = middleware.RateLimitRule{Rate: 0.5, Burst: 5}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	limiter := middleware.NewRateLimiter(nil)
	r.POST("/upload", middleware.RateLimit(uploadRateRule, limiter), deps.UploadsHandler.Upload)
	deps.DownloadsHandler.Register(r)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, deps.HealthService.Status())
	})
	deps.UploadsHandler.RegisterAPI(api)

	return r
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
