package logger

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger holds multiple logging backends and dispatches log calls to all of them.
//
// A nil *Logger is valid and discards everything, so components that receive
// an optional logger can call it without checking.
type Logger struct {
	instances []LoggerInstance
	keyvals   []any
}

var singleton *Logger

// New creates a logger that dispatches to the given backends.
func New(instances ...LoggerInstance) *Logger {
	return &Logger{instances: instances}
}

// With returns a logger that prepends keyvals to every call.
func (l *Logger) With(keyvals ...any) *Logger {
	if l == nil {
		return nil
	}
	merged := make([]any, 0, len(l.keyvals)+len(keyvals))
	merged = append(merged, l.keyvals...)
	merged = append(merged, keyvals...)
	return &Logger{instances: l.instances, keyvals: merged}
}

func (l *Logger) args(keyvals []any) []any {
	if len(l.keyvals) == 0 {
		return keyvals
	}
	out := make([]any, 0, len(l.keyvals)+len(keyvals))
	out = append(out, l.keyvals...)
	return append(out, keyvals...)
}

func (l *Logger) Log(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Log(message, l.args(keyvals)...)
	}
}

func (l *Logger) Debug(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Debug(message, l.args(keyvals)...)
	}
}

func (l *Logger) Info(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Info(message, l.args(keyvals)...)
	}
}

func (l *Logger) Warn(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Warn(message, l.args(keyvals)...)
	}
}

func (l *Logger) Error(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Error(message, l.args(keyvals)...)
	}
}

func (l *Logger) Fatal(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Fatal(message, l.args(keyvals)...)
	}
}

// Init initializes the process-wide logger used by the cmd entrypoints and
// the transport layer. Core packages receive a *Logger explicitly instead.
func Init(instances ...LoggerInstance) *Logger {
	singleton = New(instances...)
	return singleton
}

// Default returns the process-wide logger, or nil before Init.
func Default() *Logger {
	return singleton
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	singleton.Info(message, keyvals...)
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	singleton.Warn(message, keyvals...)
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	singleton.Error(message, keyvals...)
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	singleton.Debug(message, keyvals...)
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	singleton.Fatal(message, keyvals...)
}
