package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	notes, err := h.Notifications.List(ctx, owner(c), c.Query("unread") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	unread, err := h.Notifications.UnreadCount(ctx, owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes, "unread": unread})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), owner(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
