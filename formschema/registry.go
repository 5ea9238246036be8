package formschema

import (
	"errors"
	"fmt"
)

// ErrUnknownElementType means stored content names a kind this build does not
// know. It indicates a schema/version mismatch, not bad user input.
var ErrUnknownElementType = errors.New("formschema: unknown element type")

// DesignerButton is the palette entry shown in the designer sidebar.
type DesignerButton struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Definition describes one registered element kind.
type Definition struct {
	Type     ElementType    `json:"type"`
	Button   DesignerButton `json:"designerButton"`
	Input    bool           `json:"input"`
	Defaults Attributes     `json:"defaultAttributes"`
}

var definitions = []Definition{
	{Type: TitleField, Button: DesignerButton{"Title field", "heading-1"}},
	{Type: SubTitleField, Button: DesignerButton{"Subtitle field", "heading-2"}},
	{Type: ParagraphField, Button: DesignerButton{"Paragraph field", "text"}},
	{Type: SeparatorField, Button: DesignerButton{"Separator field", "minus"}},
	{Type: SpacerField, Button: DesignerButton{"Spacer field", "separator-horizontal"}},
	{Type: TextField, Button: DesignerButton{"Text field", "text-cursor-input"}, Input: true},
	{Type: TextAreaField, Button: DesignerButton{"TextArea field", "align-left"}, Input: true},
	{Type: NumberField, Button: DesignerButton{"Number field", "hash"}, Input: true},
	{Type: EmailField, Button: DesignerButton{"Email field", "mail"}, Input: true},
	{Type: PhoneField, Button: DesignerButton{"Phone field", "phone"}, Input: true},
	{Type: DateField, Button: DesignerButton{"Date field", "calendar"}, Input: true},
	{Type: SelectField, Button: DesignerButton{"Select field", "list"}, Input: true},
	{Type: CheckboxField, Button: DesignerButton{"Checkbox field", "square-check"}, Input: true},
}

var byType = func() map[ElementType]Definition {
	m := make(map[ElementType]Definition, len(definitions))
	for _, d := range definitions {
		d.Defaults = defaultAttributes(d.Type)
		if d.Defaults == nil {
			panic(fmt.Sprintf("formschema: no defaults for %s", d.Type))
		}
		m[d.Type] = d
	}
	return m
}()

// Palette lists every element kind in designer sidebar order.
func Palette() []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, byType[d.Type])
	}
	return out
}

// Lookup returns the definition for t.
func Lookup(t ElementType) (Definition, error) {
	d, ok := byType[t]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownElementType, t)
	}
	return d, nil
}

// IsInput reports whether elements of kind t collect a value.
func IsInput(t ElementType) bool {
	return byType[t].Input
}

// Construct returns a new element of kind t with default attributes.
func Construct(t ElementType, id string) (Element, error) {
	d, err := Lookup(t)
	if err != nil {
		return Element{}, err
	}
	return Element{ID: id, Type: t, Attrs: d.Defaults}, nil
}

func defaultAttributes(t ElementType) Attributes {
	field := func(label string) FieldAttributes {
		return FieldAttributes{Label: label, HelperText: "Helper text", PlaceHolder: "Value here..."}
	}
	switch t {
	case TitleField:
		return TitleAttributes{Title: "Title field"}
	case SubTitleField:
		return SubTitleAttributes{Title: "SubTitle field"}
	case ParagraphField:
		return ParagraphAttributes{Text: "Text here"}
	case SeparatorField:
		return SeparatorAttributes{}
	case SpacerField:
		return SpacerAttributes{Height: 20}
	case TextField:
		return TextAttributes{FieldAttributes: field("Text field")}
	case TextAreaField:
		return TextAreaAttributes{FieldAttributes: field("Text area"), Rows: 3}
	case NumberField:
		f := field("Number field")
		f.PlaceHolder = "0"
		return NumberAttributes{FieldAttributes: f}
	case EmailField:
		f := field("Email field")
		f.PlaceHolder = "name@example.com"
		return EmailAttributes{FieldAttributes: f}
	case PhoneField:
		f := field("Phone number")
		f.PlaceHolder = "5551234567"
		return PhoneAttributes{FieldAttributes: f}
	case DateField:
		f := field("Date field")
		f.HelperText = "Pick a date"
		return DateAttributes{FieldAttributes: f}
	case SelectField:
		return SelectAttributes{FieldAttributes: field("Select field"), Options: []string{}}
	case CheckboxField:
		f := field("Checkbox field")
		f.PlaceHolder = ""
		return CheckboxAttributes{FieldAttributes: f}
	default:
		return nil
	}
}
