package designer

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"talktrack-backend/formschema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func element(t *testing.T, typ formschema.ElementType, id string) formschema.Element {
	t.Helper()
	el, err := formschema.Construct(typ, id)
	require.NoError(t, err)
	return el
}

func ids(d *Designer) []string {
	var out []string
	for _, el := range d.Elements() {
		out = append(out, el.ID)
	}
	return out
}

func TestAddAtZeroReversesInsertionOrder(t *testing.T) {
	d := New(nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, d.AddElement(0, element(t, formschema.TextField, fmt.Sprintf("e%d", i))))
	}
	assert.Equal(t, []string{"e4", "e3", "e2", "e1", "e0"}, ids(d))
}

func TestAddAppendsAtLength(t *testing.T) {
	d := New(nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.AddElement(d.Len(), element(t, formschema.TextField, fmt.Sprintf("e%d", i))))
	}
	assert.Equal(t, []string{"e0", "e1", "e2"}, ids(d))
}

func TestAddRejectsBadIndexAndDuplicate(t *testing.T) {
	d := New(nil)
	assert.ErrorIs(t, d.AddElement(1, element(t, formschema.TextField, "a")), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.AddElement(-1, element(t, formschema.TextField, "a")), ErrIndexOutOfRange)
	require.NoError(t, d.AddElement(0, element(t, formschema.TextField, "a")))
	assert.ErrorIs(t, d.AddElement(0, element(t, formschema.SelectField, "a")), ErrDuplicateElement)
	assert.Equal(t, 1, d.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	d := New([]formschema.Element{
		element(t, formschema.TextField, "a"),
		element(t, formschema.TextField, "b"),
	})
	require.NoError(t, d.SetSelectedElement("a"))

	d.RemoveElement("a")
	d.RemoveElement("a")

	assert.Equal(t, []string{"b"}, ids(d))
	_, ok := d.SelectedElement()
	assert.False(t, ok, "removing the selected element clears the selection")
}

func TestUpdateMergesAttributes(t *testing.T) {
	d := New([]formschema.Element{element(t, formschema.TextField, "a")})

	require.NoError(t, d.UpdateElement("a", json.RawMessage(`{"label":"Full name","required":true}`)))
	require.NoError(t, d.UpdateElement("missing", json.RawMessage(`{"label":"x"}`)))

	attrs := d.Elements()[0].Attrs.(formschema.TextAttributes)
	assert.Equal(t, "Full name", attrs.Label)
	assert.True(t, attrs.Required)
	assert.Equal(t, "Helper text", attrs.HelperText)
}

func TestUpdateRejectsInvalidAttributes(t *testing.T) {
	d := New([]formschema.Element{element(t, formschema.SpacerField, "s")})
	err := d.UpdateElement("s", json.RawMessage(`{"height":1000}`))
	require.Error(t, err)
	assert.Equal(t, 20, d.Elements()[0].Attrs.(formschema.SpacerAttributes).Height)
}

func TestReorderKeepsRelativeOrder(t *testing.T) {
	d := New(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, d.AddElement(d.Len(), element(t, formschema.TextField, id)))
	}

	require.NoError(t, d.ReorderElement("a", 2))
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(d))

	require.NoError(t, d.ReorderElement("d", 0))
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(d))

	assert.ErrorIs(t, d.ReorderElement("a", 4), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.ReorderElement("zz", 0), ErrElementNotFound)
}

func TestSelectUnknownElement(t *testing.T) {
	d := New(nil)
	assert.ErrorIs(t, d.SetSelectedElement("nope"), ErrElementNotFound)
	require.NoError(t, d.SetSelectedElement(""))
}

func TestElementsReturnsCopy(t *testing.T) {
	d := New([]formschema.Element{element(t, formschema.TextField, "a")})
	els := d.Elements()
	els[0].ID = "mutated"
	assert.Equal(t, []string{"a"}, ids(d))
}

func TestSerializeRoundTrip(t *testing.T) {
	d := New(nil)
	require.NoError(t, d.AddElement(0, element(t, formschema.TextField, "a")))
	require.NoError(t, d.AddElement(1, element(t, formschema.SelectField, "b")))

	content, err := d.Serialize()
	require.NoError(t, err)
	parsed, err := formschema.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, d.Elements(), parsed)
}

func TestNewElementID(t *testing.T) {
	a, b := NewElementID(), NewElementID()
	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
}

func TestRegistryOwnershipAndSweep(t *testing.T) {
	r := NewRegistry(time.Minute)
	owner := uuid.New()
	s := r.Open(owner, 7, nil)

	got, err := r.Get(s.ID, owner)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Get(s.ID, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Close(s.ID, uuid.New()), ErrSessionNotFound)

	assert.Equal(t, 0, r.Sweep(time.Now()))
	assert.Equal(t, 1, r.Sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCloseForm(t *testing.T) {
	r := NewRegistry(time.Minute)
	owner := uuid.New()
	r.Open(owner, 1, nil)
	r.Open(owner, 1, nil)
	keep := r.Open(owner, 2, nil)

	r.CloseForm(1)
	assert.Equal(t, 1, r.Len())
	require.NoError(t, r.Close(keep.ID, owner))
	assert.Equal(t, 0, r.Len())
}

func TestSessionDoSerializesEdits(t *testing.T) {
	r := NewRegistry(0)
	s := r.Open(uuid.New(), 1, nil)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			_ = s.Do(func(d *Designer, _ *Coordinator) error {
				return d.AddElement(d.Len(), element(t, formschema.TextField, fmt.Sprintf("e%d", i)))
			})
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	_ = s.Do(func(d *Designer, _ *Coordinator) error {
		assert.Equal(t, 10, d.Len())
		return nil
	})
}
