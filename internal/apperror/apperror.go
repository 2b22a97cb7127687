// Package apperror holds the typed errors services return to the HTTP layer.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// FieldError points at a single invalid input.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(msg string, fields ...FieldError) error {
	return &ValidationError{Message: msg, Fields: fields}
}

type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func NotFound(resource string, id uint) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// UnauthorizedError never says whether the resource exists for someone else.
type UnauthorizedError struct{}

func (e *UnauthorizedError) Error() string { return "you are not allowed to access this resource" }

func Unauthorized() error { return &UnauthorizedError{} }

// ConflictError is returned when a write kept losing to concurrent writers.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func Conflict(msg string) error { return &ConflictError{Message: msg} }

// StatusCode maps err to the HTTP status the API answers with.
func StatusCode(err error) int {
	var (
		nf *NotFoundError
		ua *UnauthorizedError
		ve *ValidationError
		ce *ConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ua):
		return http.StatusForbidden
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsInternal is true for anything that is not one of the typed errors above.
func IsInternal(err error) bool {
	return err != nil && StatusCode(err) == http.StatusInternalServerError
}
