package controllers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"talktrack-backend/formschema"
	"talktrack-backend/services"
	"talktrack-backend/utils"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "templates/*.tmpl"))

type DetailsInput struct {
	Name  string `json:"name" binding:"required,min=4"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,phone10"`
}

type SubmitInput struct {
	Token   string            `json:"token" binding:"required"`
	Content map[string]string `json:"content"`
}

// GetPublicForm returns a published form for a visitor and counts the visit.
func (h *Handler) GetPublicForm(c *gin.Context) {
	form, err := h.Forms.FetchPublic(c.Request.Context(), c.Param("shareURL"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": form})
}

func (h *Handler) StartSubmission(c *gin.Context) {
	var input DetailsInput
	if !bindJSON(c, &input) {
		return
	}
	details, err := h.Appointments.StartSubmission(c.Request.Context(), c.Param("shareURL"), services.VisitorDetails(input))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userDetailsId": details.ID, "token": details.Token})
}

func (h *Handler) SubmitForm(c *gin.Context) {
	var input SubmitInput
	if !bindJSON(c, &input) {
		return
	}
	sub, err := h.Appointments.Submit(c.Request.Context(), c.Param("shareURL"), input.Token, input.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Submitted successfully", "submissionId": sub.ID})
}

type submitPage struct {
	Form         *services.PublicForm
	Fields       []formschema.FillField
	Visitor      services.VisitorDetails
	VisitorToken string
	DetailErrors map[string]string
	Error        string
	Done         bool
}

// SubmitPage renders the fill-time form as HTML.
func (h *Handler) SubmitPage(c *gin.Context) {
	form, err := h.Forms.FetchPublic(c.Request.Context(), c.Param("shareURL"))
	if err != nil {
		h.respondPageError(c, err)
		return
	}
	h.renderSubmitPage(c, http.StatusOK, submitPage{Form: form}, nil, nil)
}

// SubmitPageForm handles the HTML form post: details first, then answers.
// A failed answer check re-renders with the visitor record kept.
func (h *Handler) SubmitPageForm(c *gin.Context) {
	ctx := c.Request.Context()
	shareURL := c.Param("shareURL")
	form, err := h.Forms.LoadPublic(ctx, shareURL)
	if err != nil {
		h.respondPageError(c, err)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid form body")
		return
	}

	values := map[string]string{}
	for key, v := range c.Request.PostForm {
		if strings.HasPrefix(key, "visitor_") || len(v) == 0 {
			continue
		}
		values[key] = v[0]
	}
	page := submitPage{Form: form, Visitor: services.VisitorDetails{
		Name:  c.PostForm("visitor_name"),
		Email: c.PostForm("visitor_email"),
		Phone: c.PostForm("visitor_phone"),
	}}

	if token := c.PostForm("visitor_token"); token != "" {
		page.VisitorToken = token
	} else {
		details, err := h.Appointments.StartSubmission(ctx, shareURL, page.Visitor)
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			page.DetailErrors = verr.Fields
			page.Error = verr.Message
			h.renderSubmitPage(c, http.StatusBadRequest, page, values, nil)
			return
		}
		if err != nil {
			h.respondPageError(c, err)
			return
		}
		page.VisitorToken = details.Token
	}

	_, err = h.Appointments.Submit(ctx, shareURL, page.VisitorToken, values)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		page.Error = verr.Message
		h.renderSubmitPage(c, http.StatusBadRequest, page, values, verr.Fields)
	case err != nil:
		h.respondPageError(c, err)
	default:
		page.Done = true
		h.renderSubmitPage(c, http.StatusCreated, page, nil, nil)
	}
}

func (h *Handler) renderSubmitPage(c *gin.Context, status int, page submitPage, values, fieldErrs map[string]string) {
	if !page.Done {
		fields, errs := formschema.RenderFillForm(page.Form.Elements, values, fieldErrs)
		for _, err := range errs {
			h.logger().Error("skipping unrenderable form element", "error", err, "share_url", page.Form.ShareURL)
		}
		page.Fields = fields
	}
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "submit", page); err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) respondPageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrFormNotPublished):
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte("<!DOCTYPE html><p>This form is not available.</p>"))
	case errors.Is(err, services.ErrAlreadySubmitted):
		c.Data(http.StatusConflict, "text/html; charset=utf-8", []byte("<!DOCTYPE html><p>This form was already submitted.</p>"))
	default:
		h.respondError(c, err)
	}
}
