package memory

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one recorded log call.
type Entry struct {
	Level   string
	Message string
	KeyVals []any
}

// MemoryLogger implements LoggerInstance by recording every call. It is used
// by tests that assert on logged conditions.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) record(level, message string, keyvals []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: message, KeyVals: keyvals})
}

func (m *MemoryLogger) Log(message string, keyvals ...any)   { m.record("log", message, keyvals) }
func (m *MemoryLogger) Debug(message string, keyvals ...any) { m.record("debug", message, keyvals) }
func (m *MemoryLogger) Info(message string, keyvals ...any)  { m.record("info", message, keyvals) }
func (m *MemoryLogger) Warn(message string, keyvals ...any)  { m.record("warn", message, keyvals) }
func (m *MemoryLogger) Error(message string, keyvals ...any) { m.record("error", message, keyvals) }

// Fatal records the call at fatal level. It does not exit.
func (m *MemoryLogger) Fatal(message string, keyvals ...any) { m.record("fatal", message, keyvals) }

// Entries returns a copy of everything recorded so far.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Contains reports whether a call at level has a message containing substr.
func (m *MemoryLogger) Contains(level, substr string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s %v", e.Level, e.Message, e.KeyVals)
}
