package core

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spaghettifunk/flux/engine/containers"
)

const defaultHistorySize = 64 * 1024

/**
 * @brief Logger threaded through every engine system. It wraps a charm logger
 * and optionally keeps a copy of everything written in a LogHistory, which the
 * editor console reads back.
 */
type Logger struct {
	*log.Logger
	prefix  string
	history *LogHistory
}

type LoggerOptions struct {
	// Level is one of debug, info, warn, error or fatal.
	Level string
	// Output defaults to stderr.
	Output io.Writer
	// KeepHistory mirrors every line into an in-memory buffer.
	KeepHistory bool
	Prefix      string
}

func NewLogger(opts LoggerOptions) (*Logger, error) {
	level := log.DebugLevel
	if opts.Level != "" {
		l, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, opts.Level)
		}
		level = l
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var history *LogHistory
	if opts.KeepHistory {
		history = NewLogHistory(defaultHistorySize)
		out = io.MultiWriter(out, history)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "Flux"
	}

	l := log.NewWithOptions(out, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
		Level:           level,
	})
	return &Logger{Logger: l, prefix: prefix, history: history}, nil
}

// NewDiscardLogger returns a logger that drops everything. Used by tests and tools.
func NewDiscardLogger() *Logger {
	l, _ := NewLogger(LoggerOptions{Output: io.Discard, Level: "error"})
	return l
}

// Named returns a child logger whose prefix carries the subsystem name.
func (l *Logger) Named(subsystem string) *Logger {
	prefix := l.prefix + " " + subsystem
	return &Logger{
		Logger:  l.Logger.WithPrefix(prefix),
		prefix:  prefix,
		history: l.history,
	}
}

// History is nil unless the logger was created with KeepHistory.
func (l *Logger) History() *LogHistory {
	return l.history
}

/**
 * @brief Append-only text sink for log output. Safe for concurrent writers
 * since loader workers log too.
 */
type LogHistory struct {
	mutex   sync.Mutex
	buffer  *containers.FlatBuffer[byte]
	maxSize int
}

func NewLogHistory(maxSize int) *LogHistory {
	return &LogHistory{
		buffer:  containers.NewFlatBuffer[byte](4096),
		maxSize: maxSize,
	}
}

// Write implements io.Writer. When the history would exceed its maximum size
// it restarts from empty.
func (h *LogHistory) Write(p []byte) (int, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.maxSize > 0 && h.buffer.Len()+len(p) > h.maxSize {
		h.buffer.Clear()
	}
	copy(h.buffer.PushArray(len(p)), p)
	return len(p), nil
}

func (h *LogHistory) String() string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return string(h.buffer.Slice())
}

// Lines returns the recorded output split per line, without the trailing empty line.
func (h *LogHistory) Lines() []string {
	s := strings.TrimRight(h.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (h *LogHistory) Clear() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.buffer.Clear()
}
