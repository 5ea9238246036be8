// Package designer holds the in-progress schema of one form-builder session
// and the drag gesture state machine that edits it.
package designer

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"talktrack-backend/formschema"

	"github.com/google/uuid"
)

var (
	ErrIndexOutOfRange  = errors.New("designer: index out of range")
	ErrDuplicateElement = errors.New("designer: duplicate element id")
	ErrElementNotFound  = errors.New("designer: element not found")
)

// Designer is the single source of truth for a form being edited. It is not
// safe for concurrent use; a Session serializes access to it.
type Designer struct {
	elements []formschema.Element
	selected string
}

// New starts a designer from already-parsed content.
func New(elements []formschema.Element) *Designer {
	return &Designer{elements: slices.Clone(elements)}
}

// NewElementID returns an id for a freshly constructed element.
func NewElementID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Elements returns a copy of the current element list.
func (d *Designer) Elements() []formschema.Element {
	return slices.Clone(d.elements)
}

func (d *Designer) Len() int {
	return len(d.elements)
}

// IndexOf returns the position of id, or -1.
func (d *Designer) IndexOf(id string) int {
	return slices.IndexFunc(d.elements, func(el formschema.Element) bool { return el.ID == id })
}

// AddElement inserts el at index; index == Len() appends.
func (d *Designer) AddElement(index int, el formschema.Element) error {
	if index < 0 || index > len(d.elements) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, len(d.elements))
	}
	if d.IndexOf(el.ID) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateElement, el.ID)
	}
	if err := formschema.CheckElements([]formschema.Element{el}); err != nil {
		return err
	}
	d.elements = slices.Insert(d.elements, index, el)
	return nil
}

// RemoveElement drops the element with id. Removing an absent id is a no-op.
func (d *Designer) RemoveElement(id string) {
	i := d.IndexOf(id)
	if i < 0 {
		return
	}
	d.elements = slices.Delete(d.elements, i, i+1)
	if d.selected == id {
		d.selected = ""
	}
}

// UpdateElement merges partial attributes into the element with id. An absent
// id is a no-op.
func (d *Designer) UpdateElement(id string, partial json.RawMessage) error {
	i := d.IndexOf(id)
	if i < 0 {
		return nil
	}
	merged, err := formschema.MergeAttributes(d.elements[i], partial)
	if err != nil {
		return err
	}
	d.elements[i] = merged
	return nil
}

// ReorderElement moves the element with id to newIndex, keeping the relative
// order of every other element.
func (d *Designer) ReorderElement(id string, newIndex int) error {
	i := d.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	if newIndex < 0 || newIndex >= len(d.elements) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, newIndex, len(d.elements))
	}
	el := d.elements[i]
	d.elements = slices.Delete(d.elements, i, i+1)
	d.elements = slices.Insert(d.elements, newIndex, el)
	return nil
}

// SetSelectedElement opens the properties panel for id; "" clears it.
func (d *Designer) SetSelectedElement(id string) error {
	if id != "" && d.IndexOf(id) < 0 {
		return fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	d.selected = id
	return nil
}

// SelectedElement returns the element whose properties panel is open.
func (d *Designer) SelectedElement() (formschema.Element, bool) {
	i := d.IndexOf(d.selected)
	if d.selected == "" || i < 0 {
		return formschema.Element{}, false
	}
	return d.elements[i], true
}

// Serialize encodes the element list in the persisted content format.
func (d *Designer) Serialize() (string, error) {
	return formschema.Serialize(d.elements)
}
