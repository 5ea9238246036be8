package controllers

import (
	"net/http"

	"talktrack-backend/services"
	"talktrack-backend/storage"
	"talktrack-backend/utils"

	"github.com/gin-gonic/gin"
)

type CreateBusinessInput struct {
	Name             string            `json:"name" binding:"required"`
	Description      string            `json:"description" binding:"required,min=10"`
	Email            string            `json:"email" binding:"required,email"`
	PhoneNumber      string            `json:"phoneNumber" binding:"omitempty,phone10"`
	Address          string            `json:"address"`
	OperatingHours   map[string]string `json:"operatingHours"`
	SMSNotifications bool              `json:"smsNotifications"`
}

// UpdateBusinessInput keeps stored values for omitted fields.
type UpdateBusinessInput struct {
	Name             string            `json:"name"`
	Description      string            `json:"description" binding:"omitempty,min=10"`
	Email            string            `json:"email" binding:"omitempty,email"`
	PhoneNumber      string            `json:"phoneNumber" binding:"omitempty,phone10"`
	Address          string            `json:"address"`
	OperatingHours   map[string]string `json:"operatingHours"`
	SMSNotifications bool              `json:"smsNotifications"`
}

func (h *Handler) CreateBusiness(c *gin.Context) {
	var input CreateBusinessInput
	if !bindJSON(c, &input) {
		return
	}
	b, err := h.Business.Create(c.Request.Context(), owner(c), services.BusinessInput(input))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"business": b})
}

func (h *Handler) GetBusiness(c *gin.Context) {
	b, err := h.Business.Get(c.Request.Context(), owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": b})
}

func (h *Handler) UpdateBusiness(c *gin.Context) {
	var input UpdateBusinessInput
	if !bindJSON(c, &input) {
		return
	}
	b, err := h.Business.Update(c.Request.Context(), owner(c), services.BusinessInput(input))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": b})
}

// UploadLogo takes a multipart "logo" file.
func (h *Handler) UploadLogo(c *gin.Context) {
	file, err := c.FormFile("logo")
	if err != nil {
		utils.RespondWithFieldErrors(c, http.StatusBadRequest, "Invalid logo", map[string]string{"logo": "This field is required"})
		return
	}
	if file.Size > storage.MaxLogoBytes {
		h.respondError(c, storage.ErrTooLarge)
		return
	}
	f, err := file.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	b, err := h.Business.UploadLogo(c.Request.Context(), owner(c), file.Header.Get("Content-Type"), file.Size, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": b})
}
