package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/handler"
	"github.com/calhub/calendar-service-go/internal/middleware"
)

func FriendsRouter(r *gin.RouterGroup, dep *dependency.Dependency, svc *Services) {
	h := &handler.FriendHandler{S: svc.Friends, Calendar: svc.Calendar}

	r.Use(middleware.Auth(dep))

	r.POST("", middleware.ValidateBody[dto.CreateFriendRequest](), h.RequestFriendHandler)
	r.GET("", h.ListFriendsHandler)
	r.GET("/incoming", h.ListIncomingHandler)
	r.POST("/sync-pending", h.SyncPendingHandler)
	r.POST("/:id/accept", h.AcceptRequestHandler)
	r.POST("/:id/reject", h.RejectRequestHandler)
	r.DELETE("/:id", h.RemoveFriendHandler)
	r.GET("/:id/calendar", h.FriendCalendarHandler)
}
