package pipeline

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStageLogRecordsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stages.ndjson")
	log, err := NewStageLog(true, path)
	if err != nil {
		t.Fatalf("NewStageLog: %v", err)
	}

	log.Record("sess-1", StageReviewer, 120*time.Millisecond, nil)
	log.Record("sess-1", StageCoach, 80*time.Millisecond, errors.New("backend unavailable"))
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open stage log: %v", err)
	}
	defer f.Close()

	var entries []StageLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e StageLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Stage != StageReviewer || entries[0].Error != "" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Error != "backend unavailable" {
		t.Errorf("Expected failure recorded, got %+v", entries[1])
	}
	if entries[0].DurationMs != 120 {
		t.Errorf("Expected duration 120ms, got %d", entries[0].DurationMs)
	}
}

func TestStageLogDisabledIsNoop(t *testing.T) {
	log, err := NewStageLog(false, "")
	if err != nil {
		t.Fatalf("NewStageLog: %v", err)
	}
	log.Record("sess-1", StageEditor, time.Second, nil)
	if err := log.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	var nilLog *StageLog
	nilLog.Record("sess-1", StageEditor, time.Second, nil)
	if err := nilLog.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
