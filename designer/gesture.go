package designer

import (
	"errors"
	"fmt"

	"talktrack-backend/formschema"
)

// DefaultActivationDistance is how far, in pixels, the pointer must travel
// before a press becomes a drag rather than a click.
const DefaultActivationDistance = 10

var (
	ErrGestureActive   = errors.New("designer: a gesture is already active")
	ErrNoGesture       = errors.New("designer: no active gesture")
	ErrInvalidSource   = errors.New("designer: drag source needs exactly one of paletteType or elementId")
	ErrGestureCanceled = errors.New("designer: dragged element no longer exists")
)

type GestureState string

const (
	StateIdle     GestureState = "idle"
	StatePending  GestureState = "pending"
	StateDragging GestureState = "dragging"
)

// Source is what is being dragged: a palette entry or an existing element.
type Source struct {
	PaletteType formschema.ElementType `json:"paletteType,omitempty"`
	ElementID   string                 `json:"elementId,omitempty"`
}

func (s Source) fromPalette() bool { return s.PaletteType != "" }

type Zone string

const (
	ZoneCanvas Zone = "canvas"
	ZoneTop    Zone = "top"
	ZoneBottom Zone = "bottom"
)

// Target is the drop zone currently under the pointer.
type Target struct {
	Zone      Zone   `json:"zone"`
	ElementID string `json:"elementId,omitempty"`
}

// DropAction says what a finished gesture did to the designer.
type DropAction string

const (
	ActionNone   DropAction = "none"
	ActionInsert DropAction = "insert"
	ActionMove   DropAction = "move"
	ActionSelect DropAction = "select"
)

type DropResult struct {
	Action  DropAction          `json:"action"`
	Element *formschema.Element `json:"element,omitempty"`
	Index   int                 `json:"index"`
}

// Preview describes the active gesture for rendering an insertion marker.
type Preview struct {
	State       GestureState `json:"state"`
	Source      *Source      `json:"source,omitempty"`
	Over        *Target      `json:"over,omitempty"`
	InsertIndex int          `json:"insertIndex"`
}

// Coordinator turns pointer events into designer mutations. It tracks at most
// one gesture at a time.
type Coordinator struct {
	designer           *Designer
	activationDistance float64
	newID              func() string

	state  GestureState
	source Source
	over   *Target
}

func NewCoordinator(d *Designer, activationDistance float64, newID func() string) *Coordinator {
	if activationDistance <= 0 {
		activationDistance = DefaultActivationDistance
	}
	if newID == nil {
		newID = NewElementID
	}
	return &Coordinator{designer: d, activationDistance: activationDistance, newID: newID, state: StateIdle}
}

func (c *Coordinator) State() GestureState { return c.state }

// Start handles pointer-down on a palette button or a canvas element.
func (c *Coordinator) Start(src Source) error {
	if c.state != StateIdle {
		return ErrGestureActive
	}
	if src.fromPalette() == (src.ElementID != "") {
		return ErrInvalidSource
	}
	if src.fromPalette() {
		if _, err := formschema.Lookup(src.PaletteType); err != nil {
			return err
		}
	} else if c.designer.IndexOf(src.ElementID) < 0 {
		return fmt.Errorf("%w: %q", ErrElementNotFound, src.ElementID)
	}
	c.source = src
	c.over = nil
	c.state = StatePending
	return nil
}

// Move reports how far the pointer has travelled since Start.
func (c *Coordinator) Move(distance float64) error {
	if c.state == StateIdle {
		return ErrNoGesture
	}
	if c.state == StatePending && distance >= c.activationDistance {
		c.state = StateDragging
	}
	return nil
}

// OverCanvas marks the canvas background as the current target.
func (c *Coordinator) OverCanvas() error {
	return c.setOver(&Target{Zone: ZoneCanvas})
}

// OverElement resolves which half of an element's box the pointer is in. The
// halves split the box at its midpoint so exactly one of them matches.
func (c *Coordinator) OverElement(elementID string, pointerY, top, height float64) error {
	if c.designer.IndexOf(elementID) < 0 {
		return c.setOver(nil)
	}
	zone := ZoneBottom
	if pointerY < top+height/2 {
		zone = ZoneTop
	}
	return c.setOver(&Target{Zone: zone, ElementID: elementID})
}

// OverNothing clears the current target.
func (c *Coordinator) OverNothing() error {
	return c.setOver(nil)
}

func (c *Coordinator) setOver(t *Target) error {
	if c.state == StateIdle {
		return ErrNoGesture
	}
	if c.state != StateDragging {
		return nil
	}
	c.over = t
	return nil
}

// Preview reports the gesture and the index a drop would insert at, or -1.
func (c *Coordinator) Preview() Preview {
	p := Preview{State: c.state, InsertIndex: -1}
	if c.state == StateIdle {
		return p
	}
	src := c.source
	p.Source = &src
	if c.over != nil {
		over := *c.over
		p.Over = &over
		if idx, ok := c.targetIndex(src, c.over); ok {
			p.InsertIndex = idx
		}
	}
	return p
}

// ElementRemoved cancels the gesture if it was dragging id, and drops a
// target that pointed at it.
func (c *Coordinator) ElementRemoved(id string) {
	if c.state == StateIdle {
		return
	}
	if c.source.ElementID == id {
		c.Cancel()
		return
	}
	if c.over != nil && c.over.ElementID == id {
		c.over = nil
	}
}

// Cancel abandons the gesture without touching the designer.
func (c *Coordinator) Cancel() {
	c.state = StateIdle
	c.source = Source{}
	c.over = nil
}

// Drop finishes the gesture. A press that never passed the activation
// distance is a click, which selects a canvas element.
func (c *Coordinator) Drop() (DropResult, error) {
	if c.state == StateIdle {
		return DropResult{}, ErrNoGesture
	}
	src, over, state := c.source, c.over, c.state
	c.Cancel()

	if !src.fromPalette() && c.designer.IndexOf(src.ElementID) < 0 {
		return DropResult{Action: ActionNone, Index: -1}, ErrGestureCanceled
	}

	if state == StatePending {
		if src.fromPalette() {
			return DropResult{Action: ActionNone, Index: -1}, nil
		}
		if err := c.designer.SetSelectedElement(src.ElementID); err != nil {
			return DropResult{}, err
		}
		el, _ := c.designer.SelectedElement()
		return DropResult{Action: ActionSelect, Element: &el, Index: c.designer.IndexOf(src.ElementID)}, nil
	}

	if over == nil {
		return DropResult{Action: ActionNone, Index: -1}, nil
	}
	if src.fromPalette() {
		idx, ok := resolveIndex(c.designer.Elements(), over)
		if !ok {
			return DropResult{Action: ActionNone, Index: -1}, nil
		}
		el, err := formschema.Construct(src.PaletteType, c.newID())
		if err != nil {
			return DropResult{}, err
		}
		if err := c.designer.AddElement(idx, el); err != nil {
			return DropResult{}, err
		}
		return DropResult{Action: ActionInsert, Element: &el, Index: idx}, nil
	}

	if over.ElementID == src.ElementID {
		return DropResult{Action: ActionNone, Index: c.designer.IndexOf(src.ElementID)}, nil
	}
	from := c.designer.IndexOf(src.ElementID)
	moved := c.designer.Elements()[from]
	idx, ok := c.targetIndex(src, over)
	if !ok {
		return DropResult{Action: ActionNone, Index: from}, nil
	}
	if err := c.designer.ReorderElement(src.ElementID, idx); err != nil {
		return DropResult{}, err
	}
	return DropResult{Action: ActionMove, Element: &moved, Index: idx}, nil
}

// targetIndex is where src would land if dropped on over. A moved element
// is resolved against the list without itself.
func (c *Coordinator) targetIndex(src Source, over *Target) (int, bool) {
	els := c.designer.Elements()
	if src.fromPalette() {
		return resolveIndex(els, over)
	}
	from := c.designer.IndexOf(src.ElementID)
	if from < 0 || over == nil {
		return 0, false
	}
	if over.ElementID == src.ElementID {
		return from, true
	}
	return resolveIndex(append(els[:from:from], els[from+1:]...), over)
}

// resolveIndex maps a target to an insertion index within els.
func resolveIndex(els []formschema.Element, over *Target) (int, bool) {
	if over == nil {
		return 0, false
	}
	if over.Zone == ZoneCanvas {
		return len(els), true
	}
	for i, el := range els {
		if el.ID != over.ElementID {
			continue
		}
		if over.Zone == ZoneBottom {
			return i + 1, true
		}
		return i, true
	}
	return 0, false
}
