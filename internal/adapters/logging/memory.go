package logging

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/sunstone/internal/ports"
)

// Entry is a single record captured by MemoryLogger.
type Entry struct {
	Level   ports.Level
	Message string
	Fields  map[string]any
}

// MemoryLogger keeps every entry at or above its level in memory.
type MemoryLogger struct {
	sink   *memorySink
	level  ports.Level
	fields []ports.Field
}

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger creates a MemoryLogger that records Debug and above.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{sink: &memorySink{}, level: ports.LevelDebug}
}

// Debug records a debug entry.
func (l *MemoryLogger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelDebug, msg, fields)
}

// Info records an info entry.
func (l *MemoryLogger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelInfo, msg, fields)
}

// Warn records a warning entry.
func (l *MemoryLogger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelWarn, msg, fields)
}

// Error records an error entry.
func (l *MemoryLogger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelError, msg, fields)
}

// With returns a logger sharing the same entry sink with extra fields.
func (l *MemoryLogger) With(fields ...ports.Field) ports.Logger {
	merged := make([]ports.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &MemoryLogger{sink: l.sink, level: l.level, fields: merged}
}

// Level returns the minimum recorded level.
func (l *MemoryLogger) Level() ports.Level {
	return l.level
}

// SetLevel sets the minimum recorded level.
func (l *MemoryLogger) SetLevel(level ports.Level) {
	l.level = level
}

// Entries returns a copy of the recorded entries.
func (l *MemoryLogger) Entries() []Entry {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	out := make([]Entry, len(l.sink.entries))
	copy(out, l.sink.entries)
	return out
}

// EntriesAt returns the recorded entries with exactly the given level.
func (l *MemoryLogger) EntriesAt(level ports.Level) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *MemoryLogger) record(level ports.Level, msg string, fields []ports.Field) {
	if level < l.level {
		return
	}

	values := make(map[string]any, len(l.fields)+len(fields))
	for _, f := range l.fields {
		values[f.Key] = f.Value
	}
	for _, f := range fields {
		values[f.Key] = f.Value
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.entries = append(l.sink.entries, Entry{Level: level, Message: msg, Fields: values})
}

var _ ports.Logger = (*MemoryLogger)(nil)
