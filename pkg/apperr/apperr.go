// Package apperr defines the typed errors shared by the service layer.
// Handlers map kinds to HTTP statuses in one place.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindBusinessLogic
)

// Error carries a human-readable message and a stable machine code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Code: "AUTHENTICATION_ERROR", Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: "AUTHORIZATION_ERROR", Message: message}
}

func NotFound(resource, identifier string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "RESOURCE_NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Code: "RESOURCE_CONFLICT", Message: message}
}

func BusinessLogic(message string) *Error {
	return &Error{Kind: KindBusinessLogic, Code: "BUSINESS_LOGIC_ERROR", Message: message}
}

// BusinessLogicWrap keeps the underlying cause reachable via errors.Is/As.
func BusinessLogicWrap(message string, err error) *Error {
	return &Error{Kind: KindBusinessLogic, Code: "BUSINESS_LOGIC_ERROR", Message: message, Err: err}
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
