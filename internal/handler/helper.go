package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	"github.com/calhub/calendar-service-go/internal/middleware"
	"github.com/calhub/calendar-service-go/internal/service"
)

func currentUser(c *gin.Context) (string, string) {
	return c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextUserEmail)
}

func validatedBody[T any](c *gin.Context) T {
	return c.MustGet(middleware.ContextValidatedBody).(T)
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, appError.NewBadRequest("invalid id")
	}
	return uint(id), nil
}

func parseTime(raw string, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appError.NewBadRequest(name + " must be an RFC3339 timestamp")
	}
	return t, nil
}

// parseRange reads ?from=&to= and applies the default window.
func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := parseTime(c.Query("from"), "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTime(c.Query("to"), "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return service.ResolveRange(from, to, time.Now())
}
