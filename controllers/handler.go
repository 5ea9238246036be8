package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"talktrack-backend/logging"
	"talktrack-backend/services"
	"talktrack-backend/storage"
	"talktrack-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler carries the services every endpoint needs.
type Handler struct {
	Auth          *services.AuthService
	Business      *services.BusinessService
	Forms         *services.FormService
	Appointments  *services.AppointmentService
	Notifications *services.NotificationService
	Stats         *services.StatsService
	Designer      *services.DesignerService

	JWTExpiryHours int
	SecureCookies  bool
	Logger         *logging.Logger
}

func (h *Handler) logger() *logging.Logger {
	if h.Logger == nil {
		return logging.Default()
	}
	return h.Logger
}

// owner returns the authenticated user id, or uuid.Nil.
func owner(c *gin.Context) uuid.UUID {
	p, ok := utils.CurrentPrincipal(c)
	if !ok {
		return uuid.Nil
	}
	return p.UserID
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Not found")
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondWithFieldErrors(c, http.StatusBadRequest, "Invalid input", utils.FieldErrors(err))
		return false
	}
	return true
}

// respondError maps service errors onto status codes. Anything the caller
// did not cause is logged and reported generically.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithFieldErrors(c, http.StatusBadRequest, verr.Message, verr.Fields)
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrFormNotPublished):
		utils.RespondWithError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrFormPublished),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadySubmitted):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge):
		utils.RespondWithFieldErrors(c, http.StatusBadRequest, "Invalid logo", map[string]string{"logo": err.Error()})
	case errors.Is(err, storage.ErrDisabled):
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Logo uploads are not configured")
	default:
		h.logger().Error("request failed", "error", err, "path", c.FullPath(), "request_id", c.GetString("requestId"))
		utils.RespondWithError(c, http.StatusInternalServerError, "Something went wrong")
	}
}
