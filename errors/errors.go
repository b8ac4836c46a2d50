package errors

import (
	stderrors "errors"
	"fmt"
)

// AuthError is the structured error type used throughout the module.
type AuthError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AuthError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AuthError) WithCause(cause error) *AuthError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AuthError) WithDetail(key string, value any) *AuthError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AuthError with automatic retryable detection.
func New(code ErrorCode, message string) *AuthError {
	return &AuthError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns the empty code if err is nil or carries no AuthError.
func CodeOf(err error) ErrorCode {
	var ae *AuthError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err carries the given ErrorCode.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	var ae *AuthError
	if stderrors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// --- Common Error Constructors ---

// InvalidArgument creates a new AuthError for a nil or empty required input.
func InvalidArgument(field, reason string) *AuthError {
	return &AuthError{
		Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("Invalid argument: %s", reason),
		Retryable: false,
		Details:   map[string]any{"field": field},
	}
}

// RegistryUnavailable creates a new AuthError for a registry that cannot be
// created or cannot scan the mechanism search path.
func RegistryUnavailable(cause error) *AuthError {
	return &AuthError{
		Code: ErrCodeRegistryUnavailable, Message: "Unable to create or scan the mechanism registry.",
		Retryable: true, Cause: cause,
	}
}

// PluginNotFound creates a new AuthError for a missing mechanism type.
func PluginNotFound(authType string) *AuthError {
	return &AuthError{
		Code: ErrCodePluginNotFound, Message: fmt.Sprintf("No authentication mechanism matches type %q.", authType),
		Retryable: false,
		Details:   map[string]any{"auth_type": authType},
	}
}

// IncompletePlugin creates a new AuthError for a mechanism that resolved
// fewer than the required number of capabilities.
func IncompletePlugin(authType string, resolved, want int) *AuthError {
	return &AuthError{
		Code: ErrCodeIncompletePlugin, Message: fmt.Sprintf("Mechanism %q resolved %d of %d required capabilities.", authType, resolved, want),
		Retryable: false,
		Details:   map[string]any{"auth_type": authType, "resolved": resolved, "want": want},
	}
}

// RegistryBusy creates a new AuthError for a registry that cannot be released.
func RegistryBusy(cause error) *AuthError {
	return &AuthError{
		Code: ErrCodeRegistryBusy, Message: "Mechanism registry still in use and cannot be released.",
		Retryable: true, Cause: cause,
	}
}

// Unverified creates a new AuthError for a credential that failed its
// authenticity check.
func Unverified(reason string) *AuthError {
	if reason == "" {
		reason = "Credential failed verification."
	}
	return &AuthError{
		Code: ErrCodeUnverified, Message: reason,
		Retryable: false,
	}
}

// Unsupported creates a new AuthError for a capability absent on the active
// mechanism.
func Unsupported(capability string) *AuthError {
	return &AuthError{
		Code: ErrCodeUnsupported, Message: fmt.Sprintf("Capability %q is not supported by the active mechanism.", capability),
		Retryable: false,
		Details:   map[string]any{"capability": capability},
	}
}
