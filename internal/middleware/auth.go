package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	appError "github.com/calhub/calendar-service-go/internal/app_error"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/util/jwt"
)

const PrefixBearer = "Bearer "

const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
)

func Auth(dep *dependency.Dependency) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, PrefixBearer) {
			_ = c.AbortWithError(401, appError.NewUnauthorized("Invalid or expired token"))
			return
		}

		tokenString := authHeader[len(PrefixBearer):]

		userJwtPayload, err := jwt.ValidateUserTokenGeneric(dep, tokenString)
		if err != nil {
			_ = c.AbortWithError(401, appError.NewUnauthorized("Invalid or expired token"))
			return
		}

		c.Set(ContextUserID, userJwtPayload.UserID)
		c.Set(ContextUserEmail, userJwtPayload.Email)
		c.Next()
	}
}
