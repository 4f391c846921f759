package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/service"
)

type AuthHandler struct {
	S *service.AuthService
}

// GoogleLoginHandler godoc
// @Summary Google login URL
// @Description Returns the Google consent URL to redirect the browser to
// @Tags auth
// @Produce json
// @Success 200 {object} dto.GoogleLoginResponse
// @Router /auth/google/login [get]
func (h *AuthHandler) GoogleLoginHandler(c *gin.Context) {
	url, err := h.S.GetGoogleOAuthURL(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.GoogleLoginResponse{URL: url})
}

// GoogleCallbackHandler godoc
// @Summary Google OAuth callback
// @Description Completes sign-in and redirects to the frontend with a one-time code
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "State token"
// @Success 302
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallbackHandler(c *gin.Context) {
	redirect := h.S.HandleGoogleOAuthCallback(c.Request.Context(), c.Query("code"), c.Query("state"))
	c.Redirect(http.StatusFound, redirect)
}

// ExchangeCodeHandler godoc
// @Summary Exchange one-time code
// @Description Trades the code from the OAuth redirect for a session token. Each code works once.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ExchangeCodeRequest true "Exchange payload"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.MessageResponse
// @Router /auth/exchange [post]
func (h *AuthHandler) ExchangeCodeHandler(c *gin.Context) {
	body := validatedBody[dto.ExchangeCodeRequest](c)

	resp, err := h.S.ExchangeCode(c.Request.Context(), body.Code)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MeHandler godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AccountResponse
// @Router /auth/me [get]
func (h *AuthHandler) MeHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	resp, err := h.S.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
