package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatsOverview sums visits, submissions and statuses across every form
// the owner holds.
func (h *Handler) GetStatsOverview(c *gin.Context) {
	stats, err := h.Stats.Overview(c.Request.Context(), owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) GetFormStats(c *gin.Context) {
	stats, err := h.Stats.ForForm(c.Request.Context(), owner(c), c.Param("shareURL"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
