package system

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// LogEntry is one captured diagnostic
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogBuffer is a fixed-size ring of recent log entries. It is also a
// zapcore.Core, so it can be teed next to the real output and capture
// whatever the server logs at or above its level.
type LogBuffer struct {
	level zapcore.LevelEnabler
	ring  *ring
	// fields added through With
	fields []zapcore.Field
}

type ring struct {
	mu      sync.RWMutex
	entries []*LogEntry
	head    int
	size    int
}

// NewLogBuffer creates a buffer holding at most maxSize entries at or above level
func NewLogBuffer(maxSize int, level zapcore.LevelEnabler) *LogBuffer {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LogBuffer{
		level: level,
		ring:  &ring{entries: make([]*LogEntry, maxSize)},
	}
}

// Add inserts an entry, overwriting the oldest once full
func (b *LogBuffer) Add(entry *LogEntry) {
	r := b.ring
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = entry
	r.head = (r.head + 1) % len(r.entries)
	if r.size < len(r.entries) {
		r.size++
	}
}

// Recent returns up to limit entries, newest first, optionally filtered by level
func (b *LogBuffer) Recent(limit int, levelFilter string) []LogEntry {
	r := b.ring
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > r.size {
		limit = r.size
	}

	result := make([]LogEntry, 0, limit)
	for i := 0; i < r.size && len(result) < limit; i++ {
		idx := (r.head - 1 - i + len(r.entries)) % len(r.entries)
		entry := r.entries[idx]
		if entry != nil && (levelFilter == "" || entry.Level == levelFilter) {
			result = append(result, *entry)
		}
	}
	return result
}

// Len returns the number of buffered entries
func (b *LogBuffer) Len() int {
	b.ring.mu.RLock()
	defer b.ring.mu.RUnlock()
	return b.ring.size
}

// Enabled implements zapcore.Core
func (b *LogBuffer) Enabled(lvl zapcore.Level) bool {
	return b.level.Enabled(lvl)
}

// With implements zapcore.Core
func (b *LogBuffer) With(fields []zapcore.Field) zapcore.Core {
	clone := *b
	clone.fields = append(append([]zapcore.Field{}, b.fields...), fields...)
	return &clone
}

// Check implements zapcore.Core
func (b *LogBuffer) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if b.Enabled(entry.Level) {
		return ce.AddCore(entry, b)
	}
	return ce
}

// Write implements zapcore.Core
func (b *LogBuffer) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range b.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	captured := &LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Logger:    entry.LoggerName,
		Message:   entry.Message,
	}
	if len(enc.Fields) > 0 {
		captured.Fields = enc.Fields
	}
	b.Add(captured)
	return nil
}

// Sync implements zapcore.Core
func (b *LogBuffer) Sync() error { return nil }
