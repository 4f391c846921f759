package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/handler"
	"github.com/calhub/calendar-service-go/internal/middleware"
)

func CalendarRouter(r *gin.RouterGroup, dep *dependency.Dependency, svc *Services) {
	h := &handler.CalendarHandler{S: svc.Calendar}

	r.Use(middleware.Auth(dep))

	r.GET("/events", h.GetEventsHandler)
	r.GET("/events/stream", h.StreamEventsHandler)
	r.POST("/events", middleware.ValidateBody[dto.CreateEventRequest](), h.CreateEventHandler)
}

func AIRouter(r *gin.RouterGroup, dep *dependency.Dependency, svc *Services) {
	h := &handler.DraftHandler{S: svc.Drafts}

	r.Use(middleware.Auth(dep))

	r.POST("/draft", middleware.ValidateBody[dto.DraftInvitationRequest](), h.DraftInvitationHandler)
}
