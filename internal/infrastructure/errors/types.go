package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies shell errors by how the caller should react to them
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeValidation
	ErrCodePermission
	ErrCodeNotFound
	ErrCodeUnavailable
	ErrCodeDeclined
	ErrCodeConnection
	ErrCodeTimeout
	ErrCodeBusy
	ErrCodeConstraint
	ErrCodeCorruption
	ErrCodeInternal
	ErrCodeRetryable
	ErrCodeNonRetryable
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeUnavailable:
		return "UNAVAILABLE"
	case ErrCodeDeclined:
		return "DECLINED"
	case ErrCodeConnection:
		return "CONNECTION"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodeBusy:
		return "BUSY"
	case ErrCodeConstraint:
		return "CONSTRAINT"
	case ErrCodeCorruption:
		return "CORRUPTION"
	case ErrCodeInternal:
		return "INTERNAL"
	case ErrCodeRetryable:
		return "RETRYABLE"
	case ErrCodeNonRetryable:
		return "NON_RETRYABLE"
	default:
		return "UNKNOWN"
	}
}

// ShellError is an error raised by a shell component, carrying a classification
// and enough context (channel, reason, url) to diagnose a feature that silently
// did not activate.
type ShellError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Retryable bool              // whether the error is retryable
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *ShellError) Error() string {
	if e == nil {
		return "shell error"
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}

	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	contextStr := ""
	if len(parts) > 0 {
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + contextStr
	}
	return "shell error" + contextStr
}

func (e *ShellError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements error matching for errors.Is
func (e *ShellError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ShellError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *ShellError) IsRetryable() bool {
	if e == nil {
		return false
	}
	return e.Retryable
}

// GetCode returns the error code as a string (for logging interface compatibility)
func (e *ShellError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for logging interface compatibility)
func (e *ShellError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *ShellError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds context information to the error by mutating the receiver.
// Not safe once the error has been handed to another goroutine.
func (e *ShellError) WithContext(key, value string) *ShellError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// NewShellError creates a new shell error with the given parameters
func NewShellError(op string, err error, code ErrorCode) *ShellError {
	return &ShellError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: isRetryableError(code, err),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewShellErrorWithContext creates a new shell error with additional context
func NewShellErrorWithContext(op string, err error, code ErrorCode, context map[string]string) *ShellError {
	shellErr := NewShellError(op, err, code)
	if context != nil {
		shellErr.Context = make(map[string]string, len(context))
		for k, v := range context {
			shellErr.Context[k] = v
		}
	}
	return shellErr
}

func isRetryableError(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeBusy, ErrCodeRetryable:
		return true
	case ErrCodeNonRetryable, ErrCodeValidation, ErrCodePermission, ErrCodeNotFound,
		ErrCodeUnavailable, ErrCodeDeclined, ErrCodeConstraint, ErrCodeCorruption, ErrCodeInternal:
		return false
	default:
		if err != nil {
			errStr := strings.ToLower(err.Error())
			return strings.Contains(errStr, "temporary") ||
				strings.Contains(errStr, "retry") ||
				strings.Contains(errStr, "busy") ||
				strings.Contains(errStr, "locked") ||
				strings.Contains(errStr, "connection refused")
		}
		return false
	}
}

func hasCode(err error, code ErrorCode) bool {
	var shellErr *ShellError
	if errors.As(err, &shellErr) {
		return shellErr.Code == code
	}
	return false
}

// IsValidation checks if the error is a malformed-input error
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsPermission checks if the error is a rejected scheme, host or capability
func IsPermission(err error) bool { return hasCode(err, ErrCodePermission) }

// IsNotFound checks if the error is a "not found" error
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsUnavailable checks if a resource the operation depends on is missing
func IsUnavailable(err error) bool { return hasCode(err, ErrCodeUnavailable) }

// IsDeclined checks if the user declined the operation
func IsDeclined(err error) bool { return hasCode(err, ErrCodeDeclined) }

// IsConnection checks if the error is a "connection" error
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsTimeout checks if the error is a "timeout" error
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsBusy checks if the error is a busy/locked error
func IsBusy(err error) bool { return hasCode(err, ErrCodeBusy) }

// IsConstraint checks if the error is a uniqueness or check constraint violation
func IsConstraint(err error) bool { return hasCode(err, ErrCodeConstraint) }

// IsInternal checks if the error is an internal/API misuse error
func IsInternal(err error) bool { return hasCode(err, ErrCodeInternal) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var shellErr *ShellError
	if errors.As(err, &shellErr) {
		return shellErr.Retryable
	}
	return false
}
