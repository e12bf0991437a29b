package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Registration
	ErrCodeIncompleteSubmission ErrorCode = "INCOMPLETE_SUBMISSION"
	ErrCodePasswordMismatch     ErrorCode = "PASSWORD_MISMATCH"
	ErrCodePasswordTooShort     ErrorCode = "PASSWORD_TOO_SHORT"
	ErrCodeTermsNotAccepted     ErrorCode = "TERMS_NOT_ACCEPTED"
	ErrCodeDuplicateEmail       ErrorCode = "DUPLICATE_EMAIL"

	// Authentication
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError is a structured error with a user-facing message
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors. Messages are user-facing and surfaced verbatim
// on the re-rendered form.

func IncompleteSubmission() *AppError {
	return New(ErrCodeIncompleteSubmission, "Please fill in all required fields")
}

func PasswordMismatch() *AppError {
	return New(ErrCodePasswordMismatch, "Passwords do not match")
}

func PasswordTooShort() *AppError {
	return New(ErrCodePasswordTooShort, "Password must be at least 8 characters long")
}

func TermsNotAccepted() *AppError {
	return New(ErrCodeTermsNotAccepted, "Please agree to the Terms of Service and Privacy Policy")
}

func DuplicateEmail() *AppError {
	return New(ErrCodeDuplicateEmail, "An account with this email already exists")
}

// InvalidCredentials carries one message for both an unknown email and a
// wrong password so the error text cannot be used to enumerate accounts.
func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid email or password")
}

func NotAuthenticated() *AppError {
	return New(ErrCodeNotAuthenticated, "Please log in to access this page")
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Too many login attempts. Please try again later.")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
