package formschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateElementID = errors.New("formschema: duplicate element id")
	ErrMissingElementID   = errors.New("formschema: element id required")
	ErrMalformedContent   = errors.New("formschema: malformed content")
)

type wireElement struct {
	ID              string          `json:"id"`
	Type            ElementType     `json:"type"`
	ExtraAttributes json.RawMessage `json:"extraAttributes,omitempty"`
}

// MarshalJSON writes {id, type, extraAttributes}.
func (e Element) MarshalJSON() ([]byte, error) {
	w := wireElement{ID: e.ID, Type: e.Type}
	if e.Attrs != nil {
		raw, err := json.Marshal(e.Attrs)
		if err != nil {
			return nil, err
		}
		w.ExtraAttributes = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes one element. An unregistered type yields an error
// wrapping ErrUnknownElementType.
func (e *Element) UnmarshalJSON(data []byte) error {
	var w wireElement
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	attrs, err := decodeAttributes(w.Type, w.ExtraAttributes)
	if err != nil {
		return err
	}
	*e = Element{ID: w.ID, Type: w.Type, Attrs: attrs}
	return nil
}

func decodeInto[T Attributes](raw json.RawMessage, dst T) (Attributes, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return dst, nil
	}
	if err := json.Unmarshal(trimmed, &dst); err != nil {
		return nil, fmt.Errorf("%w: extraAttributes of %s: %v", ErrMalformedContent, dst.Kind(), err)
	}
	return dst, nil
}

// decodeAttributes starts from the kind's defaults so fields missing from the
// stored JSON keep their default values.
func decodeAttributes(t ElementType, raw json.RawMessage) (Attributes, error) {
	d, err := Lookup(t)
	if err != nil {
		return nil, err
	}
	switch def := d.Defaults.(type) {
	case TitleAttributes:
		return decodeInto(raw, def)
	case SubTitleAttributes:
		return decodeInto(raw, def)
	case ParagraphAttributes:
		return decodeInto(raw, def)
	case SeparatorAttributes:
		return decodeInto(raw, def)
	case SpacerAttributes:
		return decodeInto(raw, def)
	case TextAttributes:
		return decodeInto(raw, def)
	case TextAreaAttributes:
		return decodeInto(raw, def)
	case NumberAttributes:
		return decodeInto(raw, def)
	case EmailAttributes:
		return decodeInto(raw, def)
	case PhoneAttributes:
		return decodeInto(raw, def)
	case DateAttributes:
		return decodeInto(raw, def)
	case SelectAttributes:
		def.Options = append([]string(nil), def.Options...)
		return decodeInto(raw, def)
	case CheckboxAttributes:
		return decodeInto(raw, def)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownElementType, t)
	}
}

// Parse decodes stored content strictly: any bad element fails the whole call.
func Parse(content string) ([]Element, error) {
	raws, err := splitContent(content)
	if err != nil {
		return nil, err
	}
	els := make([]Element, 0, len(raws))
	for i, raw := range raws {
		var el Element
		if err := json.Unmarshal(raw, &el); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		els = append(els, el)
	}
	if err := CheckElements(els); err != nil {
		return nil, err
	}
	return els, nil
}

// ParseLenient decodes stored content, skipping elements that cannot be
// decoded. The skipped elements' errors are returned for logging.
func ParseLenient(content string) ([]Element, []error) {
	raws, err := splitContent(content)
	if err != nil {
		return nil, []error{err}
	}
	els := make([]Element, 0, len(raws))
	var skipped []error
	for i, raw := range raws {
		var el Element
		if err := json.Unmarshal(raw, &el); err != nil {
			skipped = append(skipped, fmt.Errorf("element %d: %w", i, err))
			continue
		}
		els = append(els, el)
	}
	return els, skipped
}

func splitContent(content string) ([]json.RawMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(content), &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	return raws, nil
}

// Serialize encodes elements as a JSON array; nil encodes as "[]".
func Serialize(els []Element) (string, error) {
	if els == nil {
		els = []Element{}
	}
	b, err := json.Marshal(els)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckElements enforces the invariants a saved schema must hold: ids present
// and unique, kinds registered, attributes sane.
func CheckElements(els []Element) error {
	seen := make(map[string]struct{}, len(els))
	for i, el := range els {
		if strings.TrimSpace(el.ID) == "" {
			return fmt.Errorf("element %d: %w", i, ErrMissingElementID)
		}
		if _, dup := seen[el.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateElementID, el.ID)
		}
		seen[el.ID] = struct{}{}
		if _, err := Lookup(el.Type); err != nil {
			return err
		}
		if el.Attrs == nil || el.Attrs.Kind() != el.Type {
			return fmt.Errorf("%w: element %q attributes do not match type %s", ErrMalformedContent, el.ID, el.Type)
		}
		if err := el.Attrs.check(); err != nil {
			return fmt.Errorf("element %q: %w", el.ID, err)
		}
	}
	return nil
}

// MergeAttributes overlays a partial JSON object onto el's attributes.
func MergeAttributes(el Element, partial json.RawMessage) (Element, error) {
	current, err := json.Marshal(el.Attrs)
	if err != nil {
		return Element{}, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &merged); err != nil {
		return Element{}, err
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(partial, &patch); err != nil {
		return Element{}, fmt.Errorf("%w: attributes must be an object: %v", ErrMalformedContent, err)
	}
	for k, v := range patch {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return Element{}, err
	}
	attrs, err := decodeAttributes(el.Type, raw)
	if err != nil {
		return Element{}, err
	}
	if err := attrs.check(); err != nil {
		return Element{}, err
	}
	el.Attrs = attrs
	return el, nil
}

// IsAttributeError reports whether err came from attribute sanity checks.
func IsAttributeError(err error) bool {
	return errors.Is(err, errInvalidAttributes)
}
