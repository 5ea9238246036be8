// Package formschema defines the closed set of form element kinds, their
// attributes, and the JSON shape a form's content is persisted in.
package formschema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ElementType tags one element kind.
type ElementType string

const (
	TitleField     ElementType = "TitleField"
	SubTitleField  ElementType = "SubTitleField"
	ParagraphField ElementType = "ParagraphField"
	SeparatorField ElementType = "SeparatorField"
	SpacerField    ElementType = "SpacerField"
	TextField      ElementType = "TextField"
	TextAreaField  ElementType = "TextAreaField"
	NumberField    ElementType = "NumberField"
	EmailField     ElementType = "EmailField"
	PhoneField     ElementType = "PhoneField"
	DateField      ElementType = "DateField"
	SelectField    ElementType = "SelectField"
	CheckboxField  ElementType = "CheckboxField"
)

// Attributes is implemented by exactly one struct per element kind. The
// unexported methods keep the set closed to this package.
type Attributes interface {
	Kind() ElementType
	// validateValue reports whether a raw fill-time value is acceptable.
	validateValue(value string) bool
	// check rejects attribute combinations the designer must not save.
	check() error
}

// Element is one entry of a form's content.
type Element struct {
	ID    string
	Type  ElementType
	Attrs Attributes
}

// Required reports whether the element demands a non-empty value.
func (e Element) Required() bool {
	if f, ok := fieldOf(e.Attrs); ok {
		return f.Required
	}
	return false
}

// FieldAttributes are shared by every input kind.
type FieldAttributes struct {
	Label       string `json:"label"`
	HelperText  string `json:"helperText"`
	Required    bool   `json:"required"`
	PlaceHolder string `json:"placeHolder"`
}

func (f FieldAttributes) missing(value string) bool {
	return f.Required && strings.TrimSpace(value) == ""
}

// Layout kinds.

type TitleAttributes struct {
	Title string `json:"title"`
}

type SubTitleAttributes struct {
	Title string `json:"title"`
}

type ParagraphAttributes struct {
	Text string `json:"text"`
}

type SeparatorAttributes struct{}

type SpacerAttributes struct {
	Height int `json:"height"`
}

// Input kinds.

type TextAttributes struct {
	FieldAttributes
	MinLength int    `json:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

type TextAreaAttributes struct {
	FieldAttributes
	Rows int `json:"rows"`
}

type NumberAttributes struct {
	FieldAttributes
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type EmailAttributes struct {
	FieldAttributes
}

type PhoneAttributes struct {
	FieldAttributes
}

type DateAttributes struct {
	FieldAttributes
}

type SelectAttributes struct {
	FieldAttributes
	Options []string `json:"options"`
}

type CheckboxAttributes struct {
	FieldAttributes
}

func (TitleAttributes) Kind() ElementType     { return TitleField }
func (SubTitleAttributes) Kind() ElementType  { return SubTitleField }
func (ParagraphAttributes) Kind() ElementType { return ParagraphField }
func (SeparatorAttributes) Kind() ElementType { return SeparatorField }
func (SpacerAttributes) Kind() ElementType    { return SpacerField }
func (TextAttributes) Kind() ElementType      { return TextField }
func (TextAreaAttributes) Kind() ElementType  { return TextAreaField }
func (NumberAttributes) Kind() ElementType    { return NumberField }
func (EmailAttributes) Kind() ElementType     { return EmailField }
func (PhoneAttributes) Kind() ElementType     { return PhoneField }
func (DateAttributes) Kind() ElementType      { return DateField }
func (SelectAttributes) Kind() ElementType    { return SelectField }
func (CheckboxAttributes) Kind() ElementType  { return CheckboxField }

const (
	minSpacerHeight = 5
	maxSpacerHeight = 200
	maxTextAreaRows = 20
)

var errInvalidAttributes = errors.New("invalid attributes")

func (TitleAttributes) check() error     { return nil }
func (SubTitleAttributes) check() error  { return nil }
func (ParagraphAttributes) check() error { return nil }
func (SeparatorAttributes) check() error { return nil }

func (a SpacerAttributes) check() error {
	if a.Height < minSpacerHeight || a.Height > maxSpacerHeight {
		return fmt.Errorf("%w: height must be between %d and %d", errInvalidAttributes, minSpacerHeight, maxSpacerHeight)
	}
	return nil
}

func (a TextAttributes) check() error {
	if a.MinLength < 0 || a.MaxLength < 0 {
		return fmt.Errorf("%w: lengths must not be negative", errInvalidAttributes)
	}
	if a.MaxLength > 0 && a.MinLength > a.MaxLength {
		return fmt.Errorf("%w: minLength exceeds maxLength", errInvalidAttributes)
	}
	if a.Pattern != "" {
		if _, err := compilePattern(a.Pattern); err != nil {
			return fmt.Errorf("%w: pattern: %v", errInvalidAttributes, err)
		}
	}
	return nil
}

// compilePattern anchors p to the whole value, matching how browsers apply
// the HTML pattern attribute.
func compilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + p + `)$`)
}

func (a TextAreaAttributes) check() error {
	if a.Rows < 1 || a.Rows > maxTextAreaRows {
		return fmt.Errorf("%w: rows must be between 1 and %d", errInvalidAttributes, maxTextAreaRows)
	}
	return nil
}

func (a NumberAttributes) check() error {
	if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
		return fmt.Errorf("%w: min exceeds max", errInvalidAttributes)
	}
	return nil
}

func (EmailAttributes) check() error    { return nil }
func (PhoneAttributes) check() error    { return nil }
func (DateAttributes) check() error     { return nil }
func (CheckboxAttributes) check() error { return nil }

func (a SelectAttributes) check() error {
	seen := make(map[string]struct{}, len(a.Options))
	for _, opt := range a.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: options must not be blank", errInvalidAttributes)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q", errInvalidAttributes, opt)
		}
		seen[opt] = struct{}{}
	}
	return nil
}

// Label returns the element's field label, or its id for layout kinds and
// unlabelled fields.
func (e Element) Label() string {
	if f, ok := fieldOf(e.Attrs); ok && strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return e.ID
}

// fieldOf exposes the shared input attributes, if the kind has them.
func fieldOf(a Attributes) (FieldAttributes, bool) {
	switch v := a.(type) {
	case TextAttributes:
		return v.FieldAttributes, true
	case TextAreaAttributes:
		return v.FieldAttributes, true
	case NumberAttributes:
		return v.FieldAttributes, true
	case EmailAttributes:
		return v.FieldAttributes, true
	case PhoneAttributes:
		return v.FieldAttributes, true
	case DateAttributes:
		return v.FieldAttributes, true
	case SelectAttributes:
		return v.FieldAttributes, true
	case CheckboxAttributes:
		return v.FieldAttributes, true
	default:
		return FieldAttributes{}, false
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
