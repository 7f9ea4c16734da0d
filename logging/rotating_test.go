package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), "2025-W01"},
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
		{time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), "2026-W42"},
	}
	for _, tt := range tests {
		if got := weekKey(tt.date); got != tt.want {
			t.Errorf("weekKey(%v) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestRotatingFileWritesCurrentWeek(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 4, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	if _, err := rf.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, "app-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file %s: %v", path, err)
	}
	if string(content) != "hello\n" {
		t.Errorf("unexpected content %q", content)
	}
}

func TestRotatingFileRotatesOnWeekChange(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 4, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	rf.mu.Lock()
	rf.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	rf.mu.Unlock()

	if _, err := rf.Write([]byte("next week\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := len(rf.Files()); got != 2 {
		t.Errorf("expected 2 log files after week change, got %d", got)
	}
}

func TestRotatingFileRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 4, 10)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	for i := 0; i < 3; i++ {
		if _, err := rf.Write([]byte("12345678\n")); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	files := rf.Files()
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(files), files)
	}
	if !strings.HasSuffix(files[1], "_01.log") || !strings.HasSuffix(files[2], "_02.log") {
		t.Errorf("unexpected size-rotated names: %v", files)
	}
}

func TestRotatingFileCleanup(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	old := filepath.Join(dir, "app-2020-W01.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		stale := time.Now().Add(-30 * 24 * time.Hour)
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := rf.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old log file should be removed")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-log files must be kept")
	}
}
