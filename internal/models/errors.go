package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the request-level failure kinds.
// Use errors.Is() to check against these.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrUpstream      = errors.New("upstream error")
)

// AppError is a user-facing failure. Message is shown to the admin verbatim.
type AppError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAuthorizationError covers a bad or missing request token.
func NewAuthorizationError(message string) *AppError {
	return &AppError{Message: message, StatusCode: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// NewForbiddenError covers an authenticated caller without the required capability.
func NewForbiddenError(message string) *AppError {
	return &AppError{Message: message, StatusCode: http.StatusForbidden, Err: ErrForbidden}
}

func NewConfigurationError(message string) *AppError {
	return &AppError{Message: message, StatusCode: http.StatusBadRequest, Err: ErrConfiguration}
}

func NewValidationError(message string) *AppError {
	return &AppError{Message: message, StatusCode: http.StatusBadRequest, Err: ErrValidation}
}

// NewUpstreamError carries a message the Olza API reported in its error envelope.
func NewUpstreamError(message, status string) *AppError {
	var err error = ErrUpstream
	if status != "" {
		err = fmt.Errorf("%w: status %s", ErrUpstream, status)
	}
	return &AppError{Message: message, StatusCode: http.StatusBadGateway, Err: err}
}

// AsAppError unwraps err into an *AppError, if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
