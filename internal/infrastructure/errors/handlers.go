package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ClassifyError maps storage and transport errors onto shell error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	var shellErr *ShellError
	if errors.As(err, &shellErr) && shellErr.Code != ErrCodeUnknown {
		return shellErr.Code
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "constraint"):
		return ErrCodeConstraint
	case strings.Contains(errStr, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "access denied"):
		return ErrCodePermission
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "network unreachable"),
		strings.Contains(errStr, "broken pipe"),
		strings.Contains(errStr, "websocket: close"):
		return ErrCodeConnection
	case strings.Contains(errStr, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapError wraps err in a classified ShellError; nil stays nil
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewShellError(op, err, ClassifyError(err))
}

// WrapErrorWithContext wraps err in a classified ShellError carrying context
func WrapErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	return NewShellErrorWithContext(op, err, ClassifyError(err), contextMap)
}

// HandleValidationError reports a malformed input rejected before any side effect
func HandleValidationError(op string, field string, value string, reason string) error {
	return NewShellErrorWithContext(op, errors.New("validation failed"), ErrCodeValidation, map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	})
}

// HandlePermissionError reports an action refused for safety reasons
func HandlePermissionError(op string, resource string, action string) error {
	return NewShellErrorWithContext(op, errors.New("permission denied"), ErrCodePermission, map[string]string{
		"resource": resource,
		"action":   action,
	})
}

// HandleNotFound reports a missing window, display or record
func HandleNotFound(op string, resource string, identifier string) error {
	return NewShellErrorWithContext(op, errors.New("not found"), ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleUnavailable reports a degraded dependency (bridge script, hotkey, OS primitive)
func HandleUnavailable(op string, resource string, details string) error {
	return NewShellErrorWithContext(op, errors.New("resource unavailable"), ErrCodeUnavailable, map[string]string{
		"resource": resource,
		"details":  details,
	})
}

// HandleDeclined reports a user choosing not to proceed
func HandleDeclined(op string, prompt string) error {
	return NewShellErrorWithContext(op, errors.New("declined by user"), ErrCodeDeclined, map[string]string{
		"prompt": prompt,
	})
}

// HandleConnectionError creates a standardized connection error
func HandleConnectionError(op string, details string) error {
	return NewShellErrorWithContext(op, errors.New("connection error"), ErrCodeConnection, map[string]string{
		"details": details,
	})
}

// HandleTimeoutError creates a standardized timeout error
func HandleTimeoutError(op string, timeout string) error {
	return NewShellErrorWithContext(op, context.DeadlineExceeded, ErrCodeTimeout, map[string]string{
		"timeout": timeout,
	})
}
