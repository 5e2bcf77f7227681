package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StageLogEntry is one appended record per stage invocation.
type StageLogEntry struct {
	Timestamp  string `json:"ts"`
	SessionID  string `json:"session_id"`
	Stage      string `json:"stage"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// StageLog appends one NDJSON line per stage invocation. It exists for
// pipeline audits: which stage ran, for which session, how long, and
// whether it failed.
type StageLog struct {
	mu      sync.Mutex
	file    *os.File
	enabled bool
}

// NewStageLog opens (creating if needed) the stage log file. A disabled
// log is a valid instance whose Record is a no-op.
func NewStageLog(enabled bool, path string) (*StageLog, error) {
	if !enabled {
		return &StageLog{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create stage log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open stage log: %w", err)
	}
	return &StageLog{file: f, enabled: true}, nil
}

// Record appends one entry. Logging failures are swallowed: the audit
// log must never fail the pipeline.
func (l *StageLog) Record(sessionID, stage string, duration time.Duration, stageErr error) {
	if l == nil || !l.enabled {
		return
	}

	entry := StageLogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		SessionID:  sessionID,
		Stage:      stage,
		DurationMs: duration.Milliseconds(),
	}
	if stageErr != nil {
		entry.Error = stageErr.Error()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.Write(append(line, '\n'))
}

// Close closes the underlying file.
func (l *StageLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
