package controllers

import (
	"net/http"

	"talktrack-backend/models"
	"talktrack-backend/services"

	"github.com/gin-gonic/gin"
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userJSON(u *models.User) gin.H {
	return gin.H{"id": u.ID, "email": u.Email, "name": u.Name}
}

func (h *Handler) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie("token", token, h.JWTExpiryHours*3600, "/", "", h.SecureCookies, true)
}

func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	user, token, err := h.Auth.Register(c.Request.Context(), services.RegisterInput(input))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setTokenCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userJSON(user),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	user, token, err := h.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setTokenCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userJSON(user)})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}
