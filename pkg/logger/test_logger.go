package logger

import "sync"

// TestLogger records entries in memory so tests can assert on them.
type TestLogger struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	fields  []Field
}

type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
}

func NewTestLogger() *TestLogger {
	return &TestLogger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *TestLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields...) }
func (l *TestLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields...) }
func (l *TestLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields...) }
func (l *TestLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields...) }

// With shares the entry buffer with the parent.
func (l *TestLogger) With(fields ...Field) Logger {
	return &TestLogger{mu: l.mu, entries: l.entries, fields: append(append([]Field(nil), l.fields...), fields...)}
}

func (l *TestLogger) Named(name string) Logger { return l.With(String("logger", name)) }

func (l *TestLogger) Sync() error { return nil }

func (l *TestLogger) log(level, msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  append(append([]Field(nil), l.fields...), fields...),
	})
}

// GetEntries returns a copy of every entry logged so far.
func (l *TestLogger) GetEntries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]LogEntry, len(*l.entries))
	copy(entries, *l.entries)
	return entries
}

// Count returns how many entries were logged at level.
func (l *TestLogger) Count(level string) int {
	n := 0
	for _, e := range l.GetEntries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
