package controllers

import (
	"encoding/json"
	"net/http"

	"talktrack-backend/formschema"
	"talktrack-backend/models"
	"talktrack-backend/services"
	"talktrack-backend/utils"

	"github.com/gin-gonic/gin"
)

type CreateFormInput struct {
	Name        string `json:"name" binding:"required,min=4"`
	Description string `json:"description"`
}

// UpdateContentInput takes the element list either inline or as the JSON
// string the designer stores.
type UpdateContentInput struct {
	Content json.RawMessage `json:"content" binding:"required"`
}

func (in UpdateContentInput) text() (string, bool) {
	if len(in.Content) > 0 && in.Content[0] == '"' {
		var s string
		if err := json.Unmarshal(in.Content, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(in.Content), true
}

func formJSON(f *models.Form) gin.H {
	els, _ := formschema.ParseLenient(f.Content)
	if els == nil {
		els = []formschema.Element{}
	}
	return gin.H{
		"id":                f.ID,
		"name":              f.Name,
		"description":       f.Description,
		"shareURL":          f.ShareURL,
		"published":         f.Published,
		"elements":          els,
		"totalAppointments": f.TotalAppointments,
		"submissions":       f.Submissions,
		"createdAt":         f.CreatedAt,
		"updatedAt":         f.UpdatedAt,
	}
}

func (h *Handler) CreateForm(c *gin.Context) {
	var input CreateFormInput
	if !bindJSON(c, &input) {
		return
	}
	form, err := h.Forms.Create(c.Request.Context(), owner(c), services.CreateFormInput(input))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"form": formJSON(form)})
}

func (h *Handler) GetForms(c *gin.Context) {
	forms, err := h.Forms.List(c.Request.Context(), owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(forms))
	for i := range forms {
		out = append(out, formJSON(&forms[i]))
	}
	c.JSON(http.StatusOK, gin.H{"forms": out})
}

func (h *Handler) GetForm(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	form, err := h.Forms.Get(c.Request.Context(), owner(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": formJSON(form)})
}

func (h *Handler) UpdateFormContent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input UpdateContentInput
	if !bindJSON(c, &input) {
		return
	}
	content, ok := input.text()
	if !ok {
		utils.RespondWithFieldErrors(c, http.StatusBadRequest, "Invalid input", map[string]string{"content": "Must be a JSON array of elements"})
		return
	}
	form, err := h.Forms.UpdateContent(c.Request.Context(), owner(c), id, content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": formJSON(form)})
}

func (h *Handler) PublishForm(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	form, err := h.Forms.Publish(c.Request.Context(), owner(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": formJSON(form)})
}

func (h *Handler) DeleteForm(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Forms.Delete(c.Request.Context(), owner(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetElements lists the designer palette.
func (h *Handler) GetElements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"elements": formschema.Palette()})
}
