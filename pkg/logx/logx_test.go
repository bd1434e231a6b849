package logx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupTestLogger redirects log output to a buffer.
func setupTestLogger() *bytes.Buffer {
	var buf bytes.Buffer
	logWriterLock.Lock()
	logWriter = &buf
	logWriterLock.Unlock()
	return &buf
}

func resetTestLogger() {
	logWriterLock.Lock()
	logWriter = nil
	logWriterLock.Unlock()
}

func TestLogFormat(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()

	logger := NewLogger("sales")
	logger.Info("Test message with %s", "formatting")

	output := buf.String()
	if !strings.Contains(output, "[sales]") {
		t.Errorf("Expected component in output, got: %s", output)
	}
	if !strings.Contains(output, "INFO: Test message with formatting") {
		t.Errorf("Expected level and formatted message, got: %s", output)
	}
	if !strings.HasPrefix(output, "[") || !strings.Contains(output, "Z]") {
		t.Errorf("Expected ISO timestamp prefix, got: %s", output)
	}
}

func TestDebugSuppressedWhenDisabled(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()
	SetDebugConfig(false, false, "")

	NewLogger("sales").Debug("hidden")
	Debug(context.Background(), "sales", "also hidden")

	if buf.Len() != 0 {
		t.Errorf("Expected no output with debug disabled, got: %s", buf.String())
	}
}

func TestDebugDomainFiltering(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()
	SetDebugConfig(true, false, "")
	SetDebugDomains([]string{"llm"})
	defer func() {
		SetDebugConfig(false, false, "")
		SetDebugDomains(nil)
	}()

	ctx := WithSession(context.Background(), "sess-1")
	Debug(ctx, "sales", "filtered out")
	Debug(ctx, "llm", "request %d", 7)

	output := buf.String()
	if strings.Contains(output, "filtered out") {
		t.Errorf("Expected sales domain to be filtered, got: %s", output)
	}
	if !strings.Contains(output, "[sess-1] DEBUG: [llm] request 7") {
		t.Errorf("Expected tagged llm debug line, got: %s", output)
	}
}

func TestDebugFileLogging(t *testing.T) {
	setupTestLogger()
	defer resetTestLogger()
	dir := t.TempDir()
	SetDebugConfig(true, true, dir)
	SetDebugDomains(nil)
	defer SetDebugConfig(false, false, "")

	DebugFlow(context.Background(), "session", "sweep", "done", "2 expired")
	DebugFlow(context.Background(), "session", "sweep", "done")

	data, err := os.ReadFile(filepath.Join(dir, "session.log"))
	if err != nil {
		t.Fatalf("Expected debug file: %v", err)
	}
	if got := strings.Count(string(data), "Flow sweep: done"); got != 2 {
		t.Errorf("Expected two appended lines, got %d: %s", got, data)
	}
	if !strings.Contains(string(data), "- 2 expired") {
		t.Errorf("Expected extra info in file, got: %s", data)
	}
}

func TestRingBufferEviction(t *testing.T) {
	b := &RingBuffer{maxSize: 3}
	for i := 0; i < 5; i++ {
		b.Add(LogEntry{Level: "INFO", Message: string(rune('a' + i))})
	}
	entries := b.Entries("", time.Time{})
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "c" || entries[2].Message != "e" {
		t.Errorf("Expected oldest entries evicted, got %+v", entries)
	}
}

func TestRingBufferFilters(t *testing.T) {
	b := &RingBuffer{maxSize: 10}
	old := time.Now().Add(-time.Hour).UTC().Format(TimestampFormat)
	recent := time.Now().UTC().Format(TimestampFormat)
	b.Add(LogEntry{Timestamp: old, Level: "ERROR", Message: "old"})
	b.Add(LogEntry{Timestamp: recent, Level: "ERROR", Message: "new"})
	b.Add(LogEntry{Timestamp: recent, Level: "INFO", Message: "info"})

	errs := b.Entries("error", time.Now().Add(-time.Minute))
	if len(errs) != 1 || errs[0].Message != "new" {
		t.Errorf("Expected only recent error, got %+v", errs)
	}
}

func TestWrapAndErrorf(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()

	if Wrap(nil, "noop") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := errors.New("disk full")
	err := Wrap(base, "save lead")
	if !errors.Is(err, base) {
		t.Error("Wrap should preserve the cause")
	}
	if err.Error() != "save lead: disk full" {
		t.Errorf("Unexpected message: %s", err)
	}

	err = Errorf("bad input %q", "x")
	if err.Error() != `bad input "x"` {
		t.Errorf("Unexpected message: %s", err)
	}
	if strings.Count(buf.String(), "ERROR") != 2 {
		t.Errorf("Expected both errors logged, got: %s", buf.String())
	}
}
