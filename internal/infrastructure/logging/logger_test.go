package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"sonacove/internal/testutils"
)

type mockCodedError struct {
	message   string
	code      string
	retryable bool
	context   map[string]string
	timestamp time.Time
}

func (m *mockCodedError) Error() string                 { return m.message }
func (m *mockCodedError) GetCode() string               { return m.code }
func (m *mockCodedError) IsRetryable() bool             { return m.retryable }
func (m *mockCodedError) GetContext() map[string]string { return m.context }
func (m *mockCodedError) GetTimestamp() time.Time       { return m.timestamp }

// captureLog redirects the standard logger for the duration of the test
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	originalPrefix := log.Prefix()

	var buf bytes.Buffer
	log.SetOutput(&buf)

	t.Cleanup(func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
		log.SetPrefix(originalPrefix)
	})
	return &buf
}

func parseEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		jsonStart := strings.Index(line, "{")
		if jsonStart == -1 {
			t.Fatalf("Expected JSON output, got: %q", line)
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line[jsonStart:]), &entry); err != nil {
			t.Fatalf("Failed to parse JSON log entry: %v, output: %q", err, line)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	if _, ok := logger.(*DefaultLogger); !ok {
		t.Errorf("NewDefaultLogger() returned %T, expected *DefaultLogger", logger)
	}
}

func TestDefaultLogger_LogLevels(t *testing.T) {
	buf := captureLog(t)
	logger := &DefaultLogger{}

	tests := []struct {
		name           string
		logFunc        func(string, ...interface{})
		fields         []interface{}
		levelToken     string
		expectedFields map[string]interface{}
	}{
		{"Debug", logger.Debug, []interface{}{"channel", "show-overlay"}, "DEBUG", map[string]interface{}{"channel": "show-overlay"}},
		{"Info", logger.Info, []interface{}{"count", 42}, "INFO", map[string]interface{}{"count": float64(42)}},
		{"Warn", logger.Warn, []interface{}{}, "WARN", map[string]interface{}{}},
		{"Error", logger.Error, []interface{}{"error", errors.New("boom")}, "ERROR", map[string]interface{}{"error": "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(tt.name+" message", tt.fields...)

			entries := parseEntries(t, buf)
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			entry := entries[0]

			if entry["timestamp"] == nil {
				t.Error("Expected log entry to have timestamp field")
			}
			if entry["level"] != tt.levelToken {
				t.Errorf("Expected level %q, got %q", tt.levelToken, entry["level"])
			}
			if entry["message"] != tt.name+" message" {
				t.Errorf("unexpected message %q", entry["message"])
			}

			fields, ok := entry["fields"].(map[string]interface{})
			if !ok {
				t.Fatalf("Expected fields to be a map, got %T", entry["fields"])
			}
			for key, expectedValue := range tt.expectedFields {
				if actual := fields[key]; actual != expectedValue {
					t.Errorf("field %q = %v, want %v", key, actual, expectedValue)
				}
			}
		})
	}
}

func TestLevelLogger_DropsBelowThreshold(t *testing.T) {
	buf := captureLog(t)
	logger := NewLevelLogger("warn")

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	entries := parseEntries(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries at warn level, got %d", len(entries))
	}
	for _, e := range entries {
		if e["message"] != "kept" {
			t.Errorf("unexpected entry %v", e)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"TRACE", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNamed_TagsComponent(t *testing.T) {
	buf := captureLog(t)
	logger := Named(NewDefaultLogger(), "overlay")
	logger.Info("opened")

	entries := parseEntries(t, buf)
	if len(entries) != 1 || entries[0]["component"] != "overlay" {
		t.Fatalf("expected component tag, got %v", entries)
	}

	mock := &testutils.RecordingLogger{}
	if Named(mock, "gateway") != Logger(mock) {
		t.Error("Named should return foreign loggers unchanged")
	}
}

func TestFieldsToMap_Malformed(t *testing.T) {
	got := fieldsToMap([]interface{}{42, "value", "dangling"})
	if got["field_0"] != 42 || got["field_0_value"] != "value" {
		t.Errorf("non-string key not preserved: %v", got)
	}
	if got["field_1"] != "dangling" {
		t.Errorf("dangling value not preserved: %v", got)
	}
}

func TestLogShellError_WithCodedError(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}

	codedErr := &mockCodedError{
		message:   "scheme not allowed",
		code:      "PERMISSION",
		retryable: false,
		context:   map[string]string{"scheme": "file"},
		timestamp: time.Now(),
	}

	LogShellError(mockLog, fmt.Errorf("open external: %w", codedErr), "open_external", map[string]interface{}{
		"channel": "open-external",
	})

	calls := mockLog.Calls("ERROR")
	if len(calls) != 1 {
		t.Fatalf("Expected 1 error call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Msg, "Shell error: open external: scheme not allowed") {
		t.Errorf("unexpected message %q", calls[0].Msg)
	}

	fieldsMap := testutils.FieldsToMap(t, calls[0].Fields)
	expected := map[string]interface{}{
		"operation":  "open_external",
		"error_code": "PERMISSION",
		"retryable":  false,
		"scheme":     "file",
		"channel":    "open-external",
	}
	for key, want := range expected {
		if got, ok := fieldsMap[key]; !ok || got != want {
			t.Errorf("field %q = %v, want %v", key, got, want)
		}
	}
}

func TestLogShellError_WithPlainError(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}
	LogShellError(mockLog, errors.New("plain"), "navigate", nil)

	calls := mockLog.Calls("ERROR")
	if len(calls) != 1 || !strings.Contains(calls[0].Msg, "Unexpected error: plain") {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestLogShellError_NilErrorIsIgnored(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}
	LogShellError(mockLog, nil, "navigate", nil)
	if len(mockLog.Calls("ERROR")) != 0 {
		t.Error("nil error should not be logged")
	}
}

func TestLogOperation(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}
	LogOperation(mockLog, "open_overlay", 150*time.Millisecond, map[string]interface{}{"display": "primary"})

	calls := mockLog.Calls("INFO")
	if len(calls) != 1 {
		t.Fatalf("Expected 1 info call, got %d", len(calls))
	}
	fieldsMap := testutils.FieldsToMap(t, calls[0].Fields)
	if fieldsMap["duration_ms"] != int64(150) || fieldsMap["display"] != "primary" {
		t.Errorf("unexpected fields %v", fieldsMap)
	}
}

func TestWailsLoggerAdapter(t *testing.T) {
	mockLog := &testutils.RecordingLogger{}
	adapter := NewWailsLoggerAdapter(mockLog, "overlay")

	adapter.Print("p")
	adapter.Trace("t")
	adapter.Warning("w")
	adapter.Fatal("f")

	if len(mockLog.Calls("INFO")) != 1 || len(mockLog.Calls("DEBUG")) != 1 || len(mockLog.Calls("WARN")) != 1 {
		t.Errorf("unexpected level distribution: %+v", mockLog.All())
	}
	fatal := mockLog.Calls("ERROR")
	if len(fatal) != 1 {
		t.Fatalf("expected fatal to be logged as error, got %d", len(fatal))
	}
	fields := testutils.FieldsToMap(t, fatal[0].Fields)
	if fields["process"] != "overlay" || fields["level"] != "fatal" {
		t.Errorf("unexpected fatal fields %v", fields)
	}
}
