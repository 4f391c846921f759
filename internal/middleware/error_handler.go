package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		errs := c.Errors
		if len(errs) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *appError.AppError
		// Handle AppError specifically
		if errors.As(err, &appErr) {
			c.AbortWithStatusJSON(appErr.Status, gin.H{
				"error": appErr.Message,
			})
			return
		}

		var validationErr validator.ValidationErrors
		// Handle validation errors
		if errors.As(err, &validationErr) {
			messages := make([]string, 0, len(validationErr))
			for _, fe := range validationErr {
				messages = append(messages, fe.Error())
			}
			c.AbortWithStatusJSON(400, gin.H{
				"error": messages,
			})
			return
		}

		status := c.Writer.Status()
		if status < 400 {
			status = 500
		}

		// Handle other error types or default to 500
		c.AbortWithStatusJSON(status, gin.H{
			"error": "Internal Server Error",
		})
	}
}

func PanicHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(500, gin.H{
			"error": "Internal Server Error",
		})
	})
}
