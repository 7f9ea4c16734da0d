package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotatingFile is an io.Writer that starts a new file every ISO week and whenever
// the current file would grow past maxSize. Files older than the retention
// period are removed by Cleanup.
type RotatingFile struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	seq  int
	size int64
}

// NewRotatingFile creates the directory if needed and opens the file for the current week.
func NewRotatingFile(dir string, retentionWeeks int, maxSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}

	rf := &RotatingFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
	}

	rf.mu.Lock()
	defer rf.mu.Unlock()
	if err := rf.open(weekKey(rf.now())); err != nil {
		return nil, err
	}
	return rf, nil
}

// weekKey returns the week key in YYYY-Www format (ISO week)
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rf *RotatingFile) fileName(week string, seq int) string {
	if seq == 0 {
		return filepath.Join(rf.dir, "app-"+week+".log")
	}
	return filepath.Join(rf.dir, fmt.Sprintf("app-%s_%02d.log", week, seq))
}

// open picks the first file of the week with room left (caller holds mu)
func (rf *RotatingFile) open(week string) error {
	if rf.file != nil {
		_ = rf.file.Close()
		rf.file = nil
	}

	seq := 0
	if rf.week == week {
		seq = rf.seq + 1
	}

	for {
		path := rf.fileName(week, seq)
		info, err := os.Stat(path)
		if err != nil || rf.maxSize <= 0 || info.Size() < rf.maxSize {
			f, openErr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if openErr != nil {
				return fmt.Errorf("open log file %s: %w", path, openErr)
			}
			rf.file, rf.week, rf.seq, rf.size = f, week, seq, 0
			if err == nil {
				rf.size = info.Size()
			}
			return nil
		}
		seq++
	}
}

// Write appends p to the current file, rotating first when needed.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	week := weekKey(rf.now())
	full := rf.maxSize > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize
	if rf.file == nil || week != rf.week || full {
		if err := rf.open(week); err != nil {
			return 0, err
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Cleanup removes app-*.log files last modified before the retention cut-off.
func (rf *RotatingFile) Cleanup() (int, error) {
	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0, fmt.Errorf("read log directory: %w", err)
	}

	cutoff := rf.now().Add(-rf.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rf.dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}

// Files lists the log files currently on disk, sorted by name.
func (rf *RotatingFile) Files() []string {
	matches, _ := filepath.Glob(filepath.Join(rf.dir, "app-*.log"))
	sort.Strings(matches)
	return matches
}

// Close closes the current file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
