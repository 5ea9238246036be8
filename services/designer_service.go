package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"talktrack-backend/designer"
	"talktrack-backend/formschema"
	"talktrack-backend/logging"
	"talktrack-backend/metrics"

	"github.com/google/uuid"
)

// DesignerService runs server-side editing sessions over unpublished forms.
type DesignerService struct {
	forms    *FormService
	sessions *designer.Registry
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

func NewDesignerService(forms *FormService, sessions *designer.Registry, m *metrics.Metrics, logger *logging.Logger) *DesignerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DesignerService{forms: forms, sessions: sessions, metrics: m, logger: logger}
}

// Snapshot is the full session state returned after every action.
type Snapshot struct {
	SessionID uuid.UUID            `json:"sessionId"`
	FormID    uint                 `json:"formId"`
	Elements  []formschema.Element `json:"elements"`
	Selected  *formschema.Element  `json:"selected"`
	Gesture   designer.Preview     `json:"gesture"`
}

// DesignerAction mutates one session. Kind selects which other fields apply.
type DesignerAction struct {
	Kind string `json:"kind"`

	Index      int                    `json:"index"`
	Type       formschema.ElementType `json:"type,omitempty"`
	ElementID  string                 `json:"elementId,omitempty"`
	Attributes json.RawMessage        `json:"attributes,omitempty"`

	Source   designer.Source `json:"source"`
	Zone     designer.Zone   `json:"zone,omitempty"`
	PointerY float64         `json:"pointerY"`
	Top      float64         `json:"top"`
	Height   float64         `json:"height"`
	Distance float64         `json:"distance"`
}

// Action kinds.
const (
	ActionAdd       = "add"
	ActionRemove    = "remove"
	ActionUpdate    = "update"
	ActionMove      = "move"
	ActionSelect    = "select"
	ActionDragStart = "drag_start"
	ActionDragMove  = "drag_move"
	ActionDragOver  = "drag_over"
	ActionDragEnd   = "drag_end"
	ActionDragAbort = "drag_cancel"
)

// Open loads an unpublished form into a new session.
func (s *DesignerService) Open(ctx context.Context, owner uuid.UUID, formID uint) (*Snapshot, error) {
	form, err := s.forms.Get(ctx, owner, formID)
	if err != nil {
		return nil, err
	}
	if form.Published {
		return nil, ErrFormPublished
	}
	els, err := formschema.Parse(form.Content)
	if err != nil {
		return nil, validationError("Stored form content is invalid", map[string]string{"content": err.Error()})
	}
	sess := s.sessions.Open(owner, form.ID, els)
	s.metrics.ObserveDesignerAction("open")
	return s.snapshot(sess)
}

func (s *DesignerService) Get(owner, sessionID uuid.UUID) (*Snapshot, error) {
	sess, err := s.session(owner, sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess)
}

func (s *DesignerService) Close(owner, sessionID uuid.UUID) error {
	if err := s.sessions.Close(sessionID, owner); err != nil {
		return ErrNotFound
	}
	return nil
}

// Apply runs one action against the session and returns the new state
// along with the drop outcome, if the action ended a gesture.
func (s *DesignerService) Apply(owner, sessionID uuid.UUID, a DesignerAction) (*Snapshot, *designer.DropResult, error) {
	sess, err := s.session(owner, sessionID)
	if err != nil {
		return nil, nil, err
	}
	var drop *designer.DropResult
	err = sess.Do(func(d *designer.Designer, c *designer.Coordinator) error {
		switch a.Kind {
		case ActionAdd:
			el, err := formschema.Construct(a.Type, designer.NewElementID())
			if err != nil {
				return err
			}
			return d.AddElement(a.Index, el)
		case ActionRemove:
			d.RemoveElement(a.ElementID)
			c.ElementRemoved(a.ElementID)
			return nil
		case ActionUpdate:
			return d.UpdateElement(a.ElementID, a.Attributes)
		case ActionMove:
			return d.ReorderElement(a.ElementID, a.Index)
		case ActionSelect:
			return d.SetSelectedElement(a.ElementID)
		case ActionDragStart:
			return c.Start(a.Source)
		case ActionDragMove:
			return c.Move(a.Distance)
		case ActionDragOver:
			switch a.Zone {
			case designer.ZoneCanvas:
				return c.OverCanvas()
			case "":
				return c.OverNothing()
			default:
				return c.OverElement(a.ElementID, a.PointerY, a.Top, a.Height)
			}
		case ActionDragEnd:
			res, err := c.Drop()
			if err != nil {
				return err
			}
			drop = &res
			return nil
		case ActionDragAbort:
			c.Cancel()
			return nil
		}
		return validationError("Unknown designer action", map[string]string{"kind": a.Kind})
	})
	if err != nil {
		return nil, nil, designerError(err)
	}
	s.metrics.ObserveDesignerAction(a.Kind)
	snap, err := s.snapshot(sess)
	return snap, drop, err
}

// Save writes the session's elements to the form. The session stays open.
func (s *DesignerService) Save(ctx context.Context, owner, sessionID uuid.UUID) (*Snapshot, error) {
	sess, err := s.session(owner, sessionID)
	if err != nil {
		return nil, err
	}
	var content string
	if err := sess.Do(func(d *designer.Designer, _ *designer.Coordinator) error {
		var err error
		content, err = d.Serialize()
		return err
	}); err != nil {
		return nil, err
	}
	if _, err := s.forms.UpdateContent(ctx, owner, sess.FormID, content); err != nil {
		return nil, err
	}
	s.metrics.ObserveDesignerAction("save")
	s.logger.Info("designer session saved", "form_id", sess.FormID, "session_id", sess.ID)
	return s.snapshot(sess)
}

// Sweep drops sessions idle as of now.
func (s *DesignerService) Sweep(now time.Time) int {
	n := s.sessions.Sweep(now)
	if n > 0 {
		s.logger.Info("expired designer sessions", "count", n)
	}
	return n
}

func (s *DesignerService) session(owner, id uuid.UUID) (*designer.Session, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	sess, err := s.sessions.Get(id, owner)
	if err != nil {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *DesignerService) snapshot(sess *designer.Session) (*Snapshot, error) {
	snap := &Snapshot{SessionID: sess.ID, FormID: sess.FormID}
	err := sess.Do(func(d *designer.Designer, c *designer.Coordinator) error {
		snap.Elements = d.Elements()
		if snap.Elements == nil {
			snap.Elements = []formschema.Element{}
		}
		if el, ok := d.SelectedElement(); ok {
			snap.Selected = &el
		}
		snap.Gesture = c.Preview()
		return nil
	})
	return snap, err
}

// designerError turns designer and schema failures into validation errors
// so callers can answer 400 / 409 without knowing the designer package.
func designerError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return err
	case errors.Is(err, designer.ErrGestureActive):
		return ErrConflict
	case errors.Is(err, designer.ErrIndexOutOfRange),
		errors.Is(err, designer.ErrDuplicateElement),
		errors.Is(err, designer.ErrElementNotFound),
		errors.Is(err, designer.ErrNoGesture),
		errors.Is(err, designer.ErrInvalidSource),
		errors.Is(err, designer.ErrGestureCanceled),
		errors.Is(err, formschema.ErrUnknownElementType),
		errors.Is(err, formschema.ErrMalformedContent),
		formschema.IsAttributeError(err):
		return validationError("Designer action rejected", map[string]string{"action": err.Error()})
	}
	return err
}
