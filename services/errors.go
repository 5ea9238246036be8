package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrFormPublished     = errors.New("form is published and can no longer be edited")
	ErrFormNotPublished  = errors.New("form is not accepting submissions")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadySubmitted  = errors.New("this visit has already been submitted")
)

// ValidationError is user input that failed checks before any write.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func validationError(msg string, fields map[string]string) error {
	return &ValidationError{Message: msg, Fields: fields}
}

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// conflict maps a unique-key violation onto ErrConflict. It covers inserts
// that race past a preceding existence check.
func conflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}
