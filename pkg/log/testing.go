package log

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Entry is one record captured by a TestLogger.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]interface{}
}

// recording is shared by a TestLogger and every logger derived with With.
type recording struct {
	mu      sync.Mutex
	entries []Entry
}

// TestLogger keeps every record in memory so tests can assert on what a
// component logged. It is safe for concurrent use, e.g. from HTTP handlers.
type TestLogger struct {
	rec    *recording
	level  Level
	fields map[string]interface{}
}

// NewTestLogger はlevel以上のレコードを記録するTestLoggerを作成する
func NewTestLogger(level Level) *TestLogger {
	return &TestLogger{rec: &recording{}, level: level, fields: map[string]interface{}{}}
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) { t.record(LevelInfo, msg, fields) }

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) { t.record(LevelWarn, msg, fields) }

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]interface{}, len(t.fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	addFields(merged, fields)
	return &TestLogger{rec: t.rec, level: t.level, fields: merged}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	e := Entry{Level: level, Message: msg, Fields: make(map[string]interface{}, len(t.fields)+len(fields)/2)}
	for k, v := range t.fields {
		e.Fields[k] = v
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e.Fields[ErrorKey] = err.Error()
			fields = fields[1:]
		}
	}
	addFields(e.Fields, fields)

	t.rec.mu.Lock()
	t.rec.entries = append(t.rec.entries, e)
	t.rec.mu.Unlock()
}

// addFields は key/value の組を dst に追加する。error 値は文字列にする
func addFields(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		v := fields[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		dst[fmt.Sprint(fields[i])] = v
	}
}

// Entries returns a copy of the captured records in emission order.
func (t *TestLogger) Entries() []Entry {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return append([]Entry(nil), t.rec.entries...)
}

// ContainsMessage reports whether any record's message contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	for _, e := range t.Entries() {
		if strings.Contains(e.Message, message) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any record has key set to value.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	for _, e := range t.Entries() {
		if v, ok := e.Fields[key]; ok && v == value {
			return true
		}
	}
	return false
}
