package logging

// WailsLoggerAdapter routes Wails framework output into the shell logger.
// It satisfies github.com/wailsapp/wails/v2/pkg/logger.Logger.
type WailsLoggerAdapter struct {
	logger  Logger
	process string
}

// NewWailsLoggerAdapter creates an adapter tagging entries with the process role
// ("shell" or "overlay") so both Wails instances can share one log stream.
func NewWailsLoggerAdapter(logger Logger, process string) *WailsLoggerAdapter {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{logger: logger, process: process}
}

func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message, "source", "wails", "process", w.process)
}

func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message, "source", "wails", "process", w.process, "level", "trace")
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message, "source", "wails", "process", w.process)
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message, "source", "wails", "process", w.process)
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message, "source", "wails", "process", w.process)
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message, "source", "wails", "process", w.process)
}

// Fatal is logged as an error; Wails must not take the shell down with it
func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "source", "wails", "process", w.process, "level", "fatal")
}
