// Package observability writes the three persisted artifacts §4.10 names:
// the JSONL event stream, the rolling stats file, and the optional CSV
// audit trail, plus the rotating text log every component logs through.
package observability

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileEvent is one line of observability.jsonl.
type FileEvent struct {
	Timestamp time.Time      `json:"ts"`
	Type      string         `json:"type"` // "file-success" | "file-failure"
	File      string         `json:"file"`
	TotalRows int            `json:"totalRows,omitempty"`
	DurationMs int64         `json:"durationMs,omitempty"`
	PerTable  map[string]int `json:"perTable,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// EventLog appends FileEvents to a JSONL file. Writes are serialized with
// an in-process mutex; failures are swallowed by the caller (§7 rule 6),
// not here, so EventLog.Append always returns the write's own error for a
// caller that does want to inspect it.
type EventLog struct {
	mu   sync.Mutex
	path string
}

func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

func (l *EventLog) Append(ev FileEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("observability: open event log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	return enc.Encode(ev)
}
