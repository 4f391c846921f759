package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/service"
)

type AccountHandler struct {
	S *service.AccountService
}

// ListAccountsHandler godoc
// @Summary Linked accounts
// @Description The primary google account followed by linked calendar accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AccountsResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccountsHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	resp, err := h.S.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// LinkICloudHandler godoc
// @Summary Link iCloud
// @Description Verifies the app-specific password against CalDAV and stores it encrypted
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.LinkICloudRequest true "iCloud credentials"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} dto.MessageResponse
// @Failure 409 {object} dto.MessageResponse
// @Router /accounts/icloud [post]
func (h *AccountHandler) LinkICloudHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	body := validatedBody[dto.LinkICloudRequest](c)

	resp, err := h.S.LinkICloud(c.Request.Context(), userID, &body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// LinkOutlookHandler godoc
// @Summary Link Outlook
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.LinkOutlookRequest true "Broker grant"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} dto.MessageResponse
// @Failure 409 {object} dto.MessageResponse
// @Router /accounts/outlook [post]
func (h *AccountHandler) LinkOutlookHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	body := validatedBody[dto.LinkOutlookRequest](c)

	resp, err := h.S.LinkOutlook(c.Request.Context(), userID, &body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// UnlinkAccountHandler godoc
// @Summary Unlink account
// @Tags accounts
// @Security BearerAuth
// @Param provider path string true "icloud or outlook"
// @Success 204 {object} nil
// @Failure 400 {object} dto.MessageResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /accounts/{provider} [delete]
func (h *AccountHandler) UnlinkAccountHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	if err := h.S.UnlinkAccount(c.Request.Context(), userID, c.Param("provider")); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
