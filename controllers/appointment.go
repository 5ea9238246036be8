package controllers

import (
	"context"
	"net/http"

	"talktrack-backend/models"
	"talktrack-backend/services"
	"talktrack-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StatusChangeInput struct {
	AdditionalMessage string `json:"additionalMessage" binding:"max=1000"`
}

type AppointmentQuery struct {
	ShareURL string `form:"shareURL"`
	Status   string `form:"status" binding:"omitempty,oneof=pending scheduled cancelled"`
}

func (h *Handler) GetAppointments(c *gin.Context) {
	var q AppointmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.respondError(c, &services.ValidationError{Message: "Invalid filter", Fields: utils.FieldErrors(err)})
		return
	}
	rows, err := h.Appointments.List(c.Request.Context(), owner(c), services.AppointmentFilter{
		ShareURL: q.ShareURL,
		Status:   models.AppointmentStatus(q.Status),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if rows == nil {
		rows = []services.AppointmentRow{}
	}
	c.JSON(http.StatusOK, gin.H{"appointments": rows})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Appointments.Get(c.Request.Context(), owner(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": detail})
}

func (h *Handler) ScheduleAppointment(c *gin.Context) {
	h.changeStatus(c, h.Appointments.Schedule)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	h.changeStatus(c, h.Appointments.Cancel)
}

// changeStatus runs a transition. The body is optional.
func (h *Handler) changeStatus(c *gin.Context, apply func(context.Context, uuid.UUID, uint, string) (*models.UserDetails, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input StatusChangeInput
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}
	details, err := apply(c.Request.Context(), owner(c), id, input.AdditionalMessage)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": details})
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Appointments.Delete(c.Request.Context(), owner(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
