package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/mem2vid/pkg/ports"
)

// LogEntry is one recorded log call.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string // format applied
}

// Logger records every message for verification. Loggers derived with
// WithComponent share the parent's record.
type Logger struct {
	component string
	rec       *logRecord
}

type logRecord struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogger creates a recording Logger.
func NewLogger() *Logger {
	return &Logger{rec: &logRecord{}}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.add(ports.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.add(ports.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.add(ports.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.add(ports.LevelError, msg, args) }

func (l *Logger) WithComponent(component string) ports.Logger {
	name := component
	if l.component != "" {
		name = l.component + "/" + component
	}
	return &Logger{component: name, rec: l.rec}
}

func (l *Logger) add(level ports.LogLevel, msg string, args []interface{}) {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	l.rec.entries = append(l.rec.entries, LogEntry{
		Level:     level,
		Component: l.component,
		Message:   fmt.Sprintf(msg, args...),
	})
}

// Entries returns a copy of every recorded entry.
func (l *Logger) Entries() []LogEntry {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	return append([]LogEntry(nil), l.rec.entries...)
}

// Count returns how many entries were logged at level.
func (l *Logger) Count(level ports.LogLevel) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any message contains substr.
func (l *Logger) Contains(substr string) bool {
	for _, e := range l.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
