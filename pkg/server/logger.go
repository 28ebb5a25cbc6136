package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// maxLogEntries bounds the per-job log buffer; the oldest records are
// dropped once it fills.
const maxLogEntries = 512

// LogEntry is one captured log record for a job.
type LogEntry struct {
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

// MemoryLogHandler is a slog.Handler that keeps records in memory so the
// API can expose a job's progress while it runs.
type MemoryLogHandler struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewMemoryLogHandler() *MemoryLogHandler {
	return &MemoryLogHandler{}
}

func (h *MemoryLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true // Log everything
}

func (h *MemoryLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Extract attributes to JSON
	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		// Fallback for marshal error
		metaJSON = []byte("{}")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) >= maxLogEntries {
		h.entries = h.entries[1:]
	}
	h.entries = append(h.entries, LogEntry{
		Timestamp: r.Time,
		Level:     r.Level.String(),
		Message:   r.Message,
		Metadata:  metaJSON,
	})
	return nil
}

// Entries returns a copy of the captured records in arrival order.
func (h *MemoryLogHandler) Entries() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]LogEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *MemoryLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Records carry their own attrs; accumulated attrs are not needed for
	// job logs.
	return h
}

func (h *MemoryLogHandler) WithGroup(name string) slog.Handler {
	return h
}
