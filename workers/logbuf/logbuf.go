// Package logbuf keeps a bounded in-memory copy of a worker's log output so
// the gateway's logs command can fetch it over HTTP.
package logbuf

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultMaxBytes bounds the buffer; older lines are dropped first
const DefaultMaxBytes = 64 * 1024

// Buffer is a logrus hook that accumulates formatted log lines. Fetching is
// best-effort and truncated, never an error for the caller.
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	size     int
	maxBytes int
}

// New creates a buffer with the given capacity (DefaultMaxBytes if <= 0)
func New(maxBytes int) *Buffer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Buffer{maxBytes: maxBytes}
}

// Levels implements logrus.Hook
func (b *Buffer) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (b *Buffer) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	b.size += len(line)
	for b.size > b.maxBytes && len(b.lines) > 0 {
		b.size -= len(b.lines[0])
		b.lines = b.lines[1:]
	}
	return nil
}

// String returns the buffered log text
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "")
}
