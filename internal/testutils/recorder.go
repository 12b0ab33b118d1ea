package testutils

import "sync"

// LogCall is one entry captured by RecordingLogger
type LogCall struct {
	Level  string
	Msg    string
	Fields []any
}

// RecordingLogger captures log calls for assertions. It satisfies
// logging.Logger and is safe for concurrent use.
type RecordingLogger struct {
	mu    sync.Mutex
	calls []LogCall
}

func (r *RecordingLogger) record(level, msg string, fields []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, LogCall{Level: level, Msg: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...any) { r.record("DEBUG", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...any)  { r.record("INFO", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...any)  { r.record("WARN", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...any) { r.record("ERROR", msg, fields) }

// Calls returns the captured entries at the given level
func (r *RecordingLogger) Calls(level string) []LogCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LogCall
	for _, c := range r.calls {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

// All returns a copy of every captured entry
func (r *RecordingLogger) All() []LogCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogCall(nil), r.calls...)
}

// Reset drops everything captured so far
func (r *RecordingLogger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
