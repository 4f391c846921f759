package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/service"
)

type FriendHandler struct {
	S        *service.FriendService
	Calendar *service.CalendarService
}

// RequestFriendHandler godoc
// @Summary Send friend request
// @Description Request calendar sharing with another user by email. Unregistered emails stay pending until they sign up.
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateFriendRequest true "Friend request payload"
// @Success 201 {object} dto.FriendRequestResponse
// @Failure 400 {object} dto.MessageResponse
// @Failure 409 {object} dto.MessageResponse
// @Router /friends [post]
func (h *FriendHandler) RequestFriendHandler(c *gin.Context) {
	userID, email := currentUser(c)
	body := validatedBody[dto.CreateFriendRequest](c)

	resp, err := h.S.RequestFriend(c.Request.Context(), userID, email, body.FriendEmail)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListFriendsHandler godoc
// @Summary List friends
// @Description Every connection of the current user, newest first
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.FriendsResponse
// @Router /friends [get]
func (h *FriendHandler) ListFriendsHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	resp, err := h.S.ListFriends(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListIncomingHandler godoc
// @Summary List incoming requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.FriendsResponse
// @Router /friends/incoming [get]
func (h *FriendHandler) ListIncomingHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	resp, err := h.S.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AcceptRequestHandler godoc
// @Summary Accept friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Connection id"
// @Success 200 {object} dto.ConnectionResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /friends/{id}/accept [post]
func (h *FriendHandler) AcceptRequestHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.S.AcceptRequest(c.Request.Context(), userID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RejectRequestHandler godoc
// @Summary Reject friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Connection id"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /friends/{id}/reject [post]
func (h *FriendHandler) RejectRequestHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.S.RejectRequest(c.Request.Context(), userID, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Friend request rejected"})
}

// RemoveFriendHandler godoc
// @Summary Remove friend
// @Description Removes the connection on both sides
// @Tags friends
// @Security BearerAuth
// @Param id path int true "Connection id"
// @Success 204 {object} nil
// @Failure 404 {object} dto.MessageResponse
// @Router /friends/{id} [delete]
func (h *FriendHandler) RemoveFriendHandler(c *gin.Context) {
	userID, email := currentUser(c)
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.S.RemoveFriend(c.Request.Context(), userID, email, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SyncPendingHandler godoc
// @Summary Resolve pending requests
// @Description Promotes pending requests whose recipient has signed up since
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SyncPendingResponse
// @Router /friends/sync-pending [post]
func (h *FriendHandler) SyncPendingHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	promoted, err := h.S.SyncPendingForOwner(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SyncPendingResponse{Promoted: promoted})
}

// FriendCalendarHandler godoc
// @Summary Friend availability
// @Description Busy blocks of an accepted friend. Event details are not shared.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Connection id"
// @Param from query string false "RFC3339 start, defaults to now"
// @Param to query string false "RFC3339 end, defaults to from + 7 days"
// @Success 200 {object} dto.FriendCalendarResponse
// @Failure 404 {object} dto.MessageResponse
// @Router /friends/{id}/calendar [get]
func (h *FriendHandler) FriendCalendarHandler(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := parseID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	from, to, err := parseRange(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.Calendar.FriendBusy(c.Request.Context(), userID, id, from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
