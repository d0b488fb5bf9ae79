// Package apierr defines the error kinds shared by the auth and sync
// endpoints, translated at the HTTP boundary into the {code, message}
// envelope every response carries.
package apierr

import (
	"errors"
	"net/http"
)

// Kind classifies an error the way the base spec's §7 Error Handling
// Design enumerates them: Authentication, Authorization, Validation,
// NotFound, Internal. Crypto kinds are client-local and live in the
// envelope package; transport failures reach client callers as plain
// wrapped errors from the httpclient package.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindEmailExists
	KindUnauthorized
	KindNotFound
	KindValidation
)

// Error pairs a Kind with a human message and the HTTP status it maps to.
// Passwords and tokens must never be placed in Message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, http.StatusUnauthorized, "invalid email or password")
}

func EmailExists() *Error {
	return New(KindEmailExists, http.StatusConflict, "email already registered")
}

func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "authentication required"
	}
	return New(KindUnauthorized, http.StatusUnauthorized, msg)
}

func NotFound(msg string) *Error {
	if msg == "" {
		msg = "resource not found"
	}
	return New(KindNotFound, http.StatusNotFound, msg)
}

func Validation(msg string) *Error {
	return New(KindValidation, http.StatusBadRequest, msg)
}

func Internal(msg string) *Error {
	if msg == "" {
		msg = "internal error"
	}
	return New(KindInternal, http.StatusInternalServerError, msg)
}

// As extracts an *Error from err, falling back to a generic internal
// error for anything the handlers didn't classify themselves.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err.Error())
}
