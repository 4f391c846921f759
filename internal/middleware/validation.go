package middleware

import (
	"github.com/gin-gonic/gin"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	"github.com/calhub/calendar-service-go/internal/dto"
)

const ContextValidatedBody = "validatedBody"

func ValidateBody[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body T
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.AbortWithError(400, appError.NewBadRequest(err.Error()))
			return
		}

		if err := dto.Validate.Struct(&body); err != nil {
			_ = c.AbortWithError(400, err)
			return
		}

		c.Set(ContextValidatedBody, body)
		c.Next()
	}
}
