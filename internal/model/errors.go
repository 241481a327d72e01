package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned for lookups of ids that are not in storage.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmbed is returned when a create carries two embeds with the
	// same embed id, or an embed id already stored for the note.
	ErrDuplicateEmbed = errors.New("duplicate embed id")
	// ErrWrongToken is returned when a delete carries a secret token that does
	// not match the note's.
	ErrWrongToken = errors.New("invalid secret token")
	// ErrRateLimited is returned when admission control rejects a request.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// GoneError reports that a note existed but has been erased, and why.
type GoneError struct {
	Reason Outcome // GoneExpired or GoneDeleted
}

func (e *GoneError) Error() string {
	return fmt.Sprintf("note is gone (%s)", e.Reason)
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level failures for one request body.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field failure. Returns the error for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// OrNil returns nil when no fields failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
