package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/service"
)

type DraftHandler struct {
	S *service.DraftService
}

// DraftInvitationHandler godoc
// @Summary Draft invitation text
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.DraftInvitationRequest true "Draft payload"
// @Success 200 {object} dto.DraftInvitationResponse
// @Failure 400 {object} dto.MessageResponse
// @Failure 503 {object} dto.MessageResponse
// @Router /ai/draft [post]
func (h *DraftHandler) DraftInvitationHandler(c *gin.Context) {
	body := validatedBody[dto.DraftInvitationRequest](c)

	resp, err := h.S.DraftInvitation(c.Request.Context(), &body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
