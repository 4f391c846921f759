package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/handler"
	"github.com/calhub/calendar-service-go/internal/middleware"
)

func AuthRouter(r *gin.RouterGroup, dep *dependency.Dependency, svc *Services) {
	h := &handler.AuthHandler{S: svc.Auth}

	// Public endpoints
	r.GET("/google/login", h.GoogleLoginHandler)
	r.GET("/google/callback", h.GoogleCallbackHandler)
	r.POST("/exchange", middleware.ValidateBody[dto.ExchangeCodeRequest](), h.ExchangeCodeHandler)

	// Authenticated endpoints
	auth := r.Group("")
	auth.Use(middleware.Auth(dep))

	auth.GET("/me", h.MeHandler)
}

func AccountsRouter(r *gin.RouterGroup, dep *dependency.Dependency, svc *Services) {
	h := &handler.AccountHandler{S: svc.Accounts}

	r.Use(middleware.Auth(dep))

	r.GET("", h.ListAccountsHandler)
	r.POST("/icloud", middleware.ValidateBody[dto.LinkICloudRequest](), h.LinkICloudHandler)
	r.POST("/outlook", middleware.ValidateBody[dto.LinkOutlookRequest](), h.LinkOutlookHandler)
	r.DELETE("/:provider", h.UnlinkAccountHandler)
}
