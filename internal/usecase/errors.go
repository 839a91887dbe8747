package usecase

import (
	"errors"
	"time"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeBadFormat    = "BAD_FORMAT"
	CodeStorage      = "STORAGE_ERROR"
)

// DomainError is a failure the caller can recover from by changing the request.
type DomainError struct {
	Code    string
	Message string
	Fields  []ValidationError
	// CurrentUpdatedAt is set on CONFLICT to the authoritative timestamp.
	CurrentUpdatedAt *time.Time
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps a store failure. Message is safe to show; Err is not.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the discriminator of err, or "" for unknown errors.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func newValidationError(fields []ValidationError) *DomainError {
	msg := "validation failed: "
	for i, f := range fields {
		if i > 0 {
			msg += ", "
		}
		msg += f.Field + " (" + f.Message + ")"
	}
	return &DomainError{Code: CodeValidation, Message: msg, Fields: fields}
}

func newBadFormat(msg string) *DomainError {
	return &DomainError{Code: CodeBadFormat, Message: msg}
}

func storageError(msg string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeStorage, Message: msg, Err: err}
}

var (
	errNotFound     = &DomainError{Code: CodeNotFound, Message: "buyer not found"}
	errForbidden    = &DomainError{Code: CodeForbidden, Message: "not allowed to modify this buyer"}
	errRateLimited  = &DomainError{Code: CodeRateLimited, Message: "rate limit exceeded, try again later"}
	errUnauthorized = &DomainError{Code: CodeUnauthorized, Message: "unauthorized"}
)
