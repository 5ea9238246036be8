package formschema

import (
	"math"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	// Plain decimal notation only; ParseFloat alone also takes NaN, Inf,
	// hex floats and underscores.
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Validate reports whether value is acceptable for el at fill time.
func Validate(el Element, value string) bool {
	if el.Attrs == nil {
		return false
	}
	return el.Attrs.validateValue(value)
}

func (TitleAttributes) validateValue(string) bool     { return true }
func (SubTitleAttributes) validateValue(string) bool  { return true }
func (ParagraphAttributes) validateValue(string) bool { return true }
func (SeparatorAttributes) validateValue(string) bool { return true }
func (SpacerAttributes) validateValue(string) bool    { return true }

func (a TextAttributes) validateValue(value string) bool {
	if a.missing(value) {
		return false
	}
	if value == "" {
		return true
	}
	n := utf8.RuneCountInString(value)
	if a.MinLength > 0 && n < a.MinLength {
		return false
	}
	if a.MaxLength > 0 && n > a.MaxLength {
		return false
	}
	if a.Pattern != "" {
		re, err := compilePattern(a.Pattern)
		if err != nil || !re.MatchString(value) {
			return false
		}
	}
	return true
}

func (a TextAreaAttributes) validateValue(value string) bool {
	return !a.missing(value)
}

func (a NumberAttributes) validateValue(value string) bool {
	if a.missing(value) {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	if !decimalPattern.MatchString(value) {
		return false
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(n, 0) {
		return false
	}
	if a.Min != nil && n < *a.Min {
		return false
	}
	if a.Max != nil && n > *a.Max {
		return false
	}
	return true
}

func (a EmailAttributes) validateValue(value string) bool {
	if a.missing(value) {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

func (a PhoneAttributes) validateValue(value string) bool {
	if a.missing(value) {
		return false
	}
	value = strings.TrimSpace(value)
	return value == "" || phonePattern.MatchString(value)
}

func (a DateAttributes) validateValue(value string) bool {
	if a.missing(value) {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	if _, err := time.Parse(time.RFC3339, value); err == nil {
		return true
	}
	_, err := time.Parse(time.DateOnly, value)
	return err == nil
}

func (a SelectAttributes) validateValue(value string) bool {
	if a.missing(value) {
		return false
	}
	return value == "" || slices.Contains(a.Options, value)
}

func (a CheckboxAttributes) validateValue(value string) bool {
	switch value {
	case "true":
		return true
	case "false", "":
		return !a.Required
	default:
		return false
	}
}

const (
	msgRequired = "This field is required"
	msgInvalid  = "Invalid value"
)

// ValidateValues checks values against every element of the form. It returns
// the values restricted to input elements of the schema, and a message per
// failing element id. Keys unknown to the schema are dropped.
func ValidateValues(els []Element, values map[string]string) (map[string]string, map[string]string) {
	cleaned := make(map[string]string)
	fieldErrs := make(map[string]string)
	for _, el := range els {
		if !IsInput(el.Type) {
			continue
		}
		value, present := values[el.ID]
		if present {
			cleaned[el.ID] = value
		}
		if Validate(el, value) {
			continue
		}
		if el.Required() && strings.TrimSpace(value) == "" {
			fieldErrs[el.ID] = msgRequired
		} else {
			fieldErrs[el.ID] = msgInvalid
		}
	}
	return cleaned, fieldErrs
}
