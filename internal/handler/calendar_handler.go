package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/service"
)

type CalendarHandler struct {
	S *service.CalendarService
}

// GetEventsHandler godoc
// @Summary Aggregated events
// @Description Events of every linked account merged by start time. A failing account is listed in errors.
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param from query string false "RFC3339 start, defaults to now"
// @Param to query string false "RFC3339 end, defaults to from + 7 days"
// @Success 200 {object} dto.EventsResponse
// @Failure 400 {object} dto.MessageResponse
// @Router /calendar/events [get]
func (h *CalendarHandler) GetEventsHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	from, to, err := parseRange(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.S.GetEvents(c.Request.Context(), userID, from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// StreamEventsHandler godoc
// @Summary Stream events
// @Description Server-sent events: one "events" message per account as it loads, then "done"
// @Tags calendar
// @Produce text/event-stream
// @Security BearerAuth
// @Param from query string false "RFC3339 start, defaults to now"
// @Param to query string false "RFC3339 end, defaults to from + 7 days"
// @Success 200 {object} dto.AccountEventsMessage
// @Router /calendar/events/stream [get]
func (h *CalendarHandler) StreamEventsHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	from, to, err := parseRange(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	err = h.S.StreamEvents(c.Request.Context(), userID, from, to, func(result service.AccountEvents) {
		msg := dto.AccountEventsMessage{
			Provider:     result.Provider,
			AccountEmail: result.AccountEmail,
			Events:       result.Events,
		}
		if msg.Events == nil {
			msg.Events = make([]dto.EventResponse, 0)
		}
		if result.Err != nil {
			msg.Error = result.Err.Error()
		}
		c.SSEvent("events", msg)
		c.Writer.Flush()
	})
	if err != nil {
		if !c.Writer.Written() {
			_ = c.Error(err)
			return
		}
		h.S.Dep.Logger.Error("event stream aborted", "userID", userID, "err", err)
		c.SSEvent("error", dto.MessageResponse{Message: "stream aborted"})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", dto.MessageResponse{Message: "done"})
	c.Writer.Flush()
}

// CreateEventHandler godoc
// @Summary Create event
// @Description Creates the event on the chosen linked provider and invites attendees
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} dto.EventResponse
// @Failure 404 {object} dto.MessageResponse
// @Failure 502 {object} dto.MessageResponse
// @Router /calendar/events [post]
func (h *CalendarHandler) CreateEventHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	body := validatedBody[dto.CreateEventRequest](c)

	resp, err := h.S.CreateEvent(c.Request.Context(), userID, &body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
