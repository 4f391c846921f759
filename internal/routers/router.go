package routers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/middleware"
)

func SetupRouter(dep *dependency.Dependency) *gin.Engine {
	r := gin.New()

	r.Use(middleware.PanicHandler())

	logConfig := sloggin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}

	// A rough CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if origin == dep.Cfg.FrontendUrl ||
				origin == "http://localhost:5173" ||
				origin == "http://localhost:4173" {
				return true
			}
			if strings.HasSuffix(origin, ".vercel.app") {
				return true
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := middleware.NewRateLimiter(time.Duration(dep.Cfg.RateLimiterDurationInSec)*time.Second, dep.Cfg.RateLimiterRequestLimit, time.Duration(dep.Cfg.RateLimiterCleanupIntervalInSec)*time.Second)
	r.Use(rateLimiter.RateLimit())

	r.Use(sloggin.NewWithConfig(dep.Logger, logConfig))
	r.Use(middleware.ErrorHandler())

	return r
}

// RegisterRoutes mounts every route group under /api.
func RegisterRoutes(r *gin.Engine, dep *dependency.Dependency, svc *Services) {
	api := r.Group("/api")

	AuthRouter(api.Group("/auth"), dep, svc)
	AccountsRouter(api.Group("/accounts"), dep, svc)
	FriendsRouter(api.Group("/friends"), dep, svc)
	CalendarRouter(api.Group("/calendar"), dep, svc)
	AIRouter(api.Group("/ai"), dep, svc)
	DevRouter(api.Group("/dev"), dep)

	// Health check
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Swagger
	api.GET("/docs/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
