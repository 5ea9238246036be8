package formschema

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("formschema").Funcs(template.FuncMap{
	"float": formatFloat,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Stage selects which render hook of an element runs.
type Stage string

const (
	StageDesigner   Stage = "designer"
	StageFill       Stage = "fill"
	StageProperties Stage = "properties"
)

type renderData struct {
	ID      string
	Type    ElementType
	Attrs   Attributes
	Value   string
	Invalid bool
}

func render(stage Stage, el Element, value string, invalid bool) (template.HTML, error) {
	if _, err := Lookup(el.Type); err != nil {
		return "", err
	}
	name := string(el.Type) + "." + string(stage)
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, name, renderData{
		ID:      el.ID,
		Type:    el.Type,
		Attrs:   el.Attrs,
		Value:   value,
		Invalid: invalid,
	})
	if err != nil {
		return "", fmt.Errorf("formschema: render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// RenderDesigner renders the canvas preview of el.
func RenderDesigner(el Element) (template.HTML, error) {
	return render(StageDesigner, el, "", false)
}

// RenderFill renders the fill-time input for el with the visitor's value.
func RenderFill(el Element, value string, invalid bool) (template.HTML, error) {
	return render(StageFill, el, value, invalid)
}

// RenderProperties renders the properties editor of el.
func RenderProperties(el Element) (template.HTML, error) {
	return render(StageProperties, el, "", false)
}

// FillField is one rendered input of a public form page.
type FillField struct {
	ID   string
	HTML template.HTML
}

// RenderFillForm renders every element for a visitor. Elements that fail to
// render are skipped and their errors returned.
func RenderFillForm(els []Element, values, fieldErrs map[string]string) ([]FillField, []error) {
	out := make([]FillField, 0, len(els))
	var errs []error
	for _, el := range els {
		_, invalid := fieldErrs[el.ID]
		html, err := RenderFill(el, values[el.ID], invalid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, FillField{ID: el.ID, HTML: html})
	}
	return out, errs
}
