package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger is the structured logger every shell component takes
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the token written into each entry
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config string onto a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

// DefaultLogger writes one JSON object per entry through the standard log package
type DefaultLogger struct {
	minLevel  Level
	component string
}

// NewDefaultLogger creates a logger that emits every level
func NewDefaultLogger() Logger {
	return &DefaultLogger{minLevel: LevelDebug}
}

// NewLevelLogger creates a logger that drops entries below level
func NewLevelLogger(level string) Logger {
	return &DefaultLogger{minLevel: ParseLevel(level)}
}

// Named returns a logger that tags every entry with the given component.
// Loggers that are not *DefaultLogger are returned unchanged.
func Named(logger Logger, component string) Logger {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	dl, ok := logger.(*DefaultLogger)
	if !ok {
		return logger
	}
	return &DefaultLogger{minLevel: dl.minLevel, component: component}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
}

// fieldsToMap converts alternating key/value pairs to a map.
// Non-string keys and a dangling last value are kept under positional keys.
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			continue
		}
		if key, ok := fields[i].(string); ok {
			result[key] = normalizeValue(fields[i+1])
			continue
		}
		result[fmt.Sprintf("field_%d", i/2)] = fields[i]
		result[fmt.Sprintf("field_%d_value", i/2)] = normalizeValue(fields[i+1])
	}

	return result
}

// normalizeValue turns errors into their message so they survive JSON encoding
func normalizeValue(v interface{}) interface{} {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

func (l *DefaultLogger) logStructured(level Level, msg string, fields []interface{}) {
	if level < l.minLevel {
		return
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Component: l.component,
		Message:   msg,
		Fields:    fieldsToMap(fields),
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		fallback := fmt.Sprintf("%v", fields)
		entry.Fields = map[string]interface{}{
			"original_fields": fallback,
			"marshal_error":   err.Error(),
		}
		if jsonBytes, err = json.Marshal(entry); err != nil {
			log.Printf("[%s] %s %s", level, msg, fallback)
			return
		}
	}

	log.Println(string(jsonBytes))
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.logStructured(LevelDebug, msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logStructured(LevelInfo, msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logStructured(LevelWarn, msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logStructured(LevelError, msg, fields)
}

// CodedError is the subset of errors.ShellError the logger needs (kept as an
// interface to avoid an import cycle with the errors package)
type CodedError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogShellError logs err with its code and context plus the caller's context
func LogShellError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if err == nil {
		return
	}

	var coded CodedError
	if errors.As(err, &coded) {
		fields := []interface{}{
			"operation", operation,
			"error_code", coded.GetCode(),
			"retryable", coded.IsRetryable(),
			"timestamp", coded.GetTimestamp(),
		}
		for k, v := range coded.GetContext() {
			fields = append(fields, k, v)
		}
		for k, v := range context {
			fields = append(fields, k, v)
		}

		logger.Error(fmt.Sprintf("Shell error: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation with its duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}
