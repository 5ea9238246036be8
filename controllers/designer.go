package controllers

import (
	"encoding/json"
	"net/http"

	"talktrack-backend/designer"
	"talktrack-backend/formschema"
	"talktrack-backend/services"
	"talktrack-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AddElementInput struct {
	Type  formschema.ElementType `json:"type" binding:"required"`
	Index int                    `json:"index"`
}

type UpdateElementInput struct {
	Attributes json.RawMessage `json:"attributes" binding:"required"`
}

type MoveElementInput struct {
	Index int `json:"index"`
}

type SelectInput struct {
	ID *string `json:"id"`
}

type DragStartInput struct {
	PaletteType formschema.ElementType `json:"paletteType"`
	ElementID   string                 `json:"elementId"`
	Distance    float64                `json:"distance"`
}

type DragMoveInput struct {
	Distance float64 `json:"distance"`
}

// DragOverInput reports what the pointer is over. An empty target means
// nothing droppable.
type DragOverInput struct {
	Target    string  `json:"target" binding:"omitempty,oneof=canvas element"`
	ElementID string  `json:"elementId"`
	PointerY  float64 `json:"pointerY"`
	Top       float64 `json:"top"`
	Height    float64 `json:"height"`
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) OpenDesigner(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	snap, err := h.Designer.Open(c.Request.Context(), owner(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": snap})
}

func (h *Handler) GetDesigner(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.Designer.Get(owner(c), sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": snap})
}

func (h *Handler) CloseDesigner(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.Designer.Close(owner(c), sid); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SaveDesigner(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := h.Designer.Save(c.Request.Context(), owner(c), sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": snap})
}

func (h *Handler) apply(c *gin.Context, actions ...services.DesignerAction) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	var (
		snap *services.Snapshot
		drop *designer.DropResult
		err  error
	)
	for _, a := range actions {
		if snap, drop, err = h.Designer.Apply(owner(c), sid, a); err != nil {
			h.respondError(c, err)
			return
		}
	}
	body := gin.H{"session": snap}
	if drop != nil {
		body["drop"] = drop
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) AddElement(c *gin.Context) {
	var input AddElementInput
	if !bindJSON(c, &input) {
		return
	}
	h.apply(c, services.DesignerAction{Kind: services.ActionAdd, Type: input.Type, Index: input.Index})
}

func (h *Handler) UpdateElement(c *gin.Context) {
	var input UpdateElementInput
	if !bindJSON(c, &input) {
		return
	}
	h.apply(c, services.DesignerAction{Kind: services.ActionUpdate, ElementID: c.Param("eid"), Attributes: input.Attributes})
}

func (h *Handler) RemoveElement(c *gin.Context) {
	h.apply(c, services.DesignerAction{Kind: services.ActionRemove, ElementID: c.Param("eid")})
}

func (h *Handler) MoveElement(c *gin.Context) {
	var input MoveElementInput
	if !bindJSON(c, &input) {
		return
	}
	h.apply(c, services.DesignerAction{Kind: services.ActionMove, ElementID: c.Param("eid"), Index: input.Index})
}

func (h *Handler) SelectElement(c *gin.Context) {
	var input SelectInput
	if !bindJSON(c, &input) {
		return
	}
	id := ""
	if input.ID != nil {
		id = *input.ID
	}
	h.apply(c, services.DesignerAction{Kind: services.ActionSelect, ElementID: id})
}

func (h *Handler) DragStart(c *gin.Context) {
	var input DragStartInput
	if !bindJSON(c, &input) {
		return
	}
	actions := []services.DesignerAction{{
		Kind:   services.ActionDragStart,
		Source: designer.Source{PaletteType: input.PaletteType, ElementID: input.ElementID},
	}}
	if input.Distance > 0 {
		actions = append(actions, services.DesignerAction{Kind: services.ActionDragMove, Distance: input.Distance})
	}
	h.apply(c, actions...)
}

func (h *Handler) DragMove(c *gin.Context) {
	var input DragMoveInput
	if !bindJSON(c, &input) {
		return
	}
	h.apply(c, services.DesignerAction{Kind: services.ActionDragMove, Distance: input.Distance})
}

func (h *Handler) DragOver(c *gin.Context) {
	var input DragOverInput
	if !bindJSON(c, &input) {
		return
	}
	a := services.DesignerAction{Kind: services.ActionDragOver}
	switch input.Target {
	case "canvas":
		a.Zone = designer.ZoneCanvas
	case "element":
		// The coordinator picks top or bottom from the pointer position.
		a.Zone = designer.ZoneTop
		a.ElementID = input.ElementID
		a.PointerY, a.Top, a.Height = input.PointerY, input.Top, input.Height
	}
	h.apply(c, a)
}

func (h *Handler) DragEnd(c *gin.Context) {
	h.apply(c, services.DesignerAction{Kind: services.ActionDragEnd})
}

func (h *Handler) DragCancel(c *gin.Context) {
	h.apply(c, services.DesignerAction{Kind: services.ActionDragAbort})
}
