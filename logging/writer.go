package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotatingWriter appends to a per-ISO-week log file under dir and removes
// files older than the retention window. Safe for concurrent use.
type RotatingWriter struct {
	dir       string
	retention time.Duration

	mu          sync.Mutex
	file        *os.File
	week        string
	lastCleanup time.Time
}

// NewRotatingWriter creates a writer rotating weekly with the given retention
// in weeks.
func NewRotatingWriter(dir string, retentionWeeks int) (*RotatingWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	w := &RotatingWriter{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
	}
	if err := w.rotate(weekKey(time.Now())); err != nil {
		return nil, err
	}
	return w, nil
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (w *RotatingWriter) rotate(week string) error {
	if w.file != nil {
		w.file.Close()
	}
	path := filepath.Join(w.dir, fmt.Sprintf("app-%s.log", week))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	w.file = file
	w.week = week
	return nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if week := weekKey(now); week != w.week {
		if err := w.rotate(week); err != nil {
			return 0, err
		}
		w.cleanup(now)
	} else if w.lastCleanup.IsZero() || now.Sub(w.lastCleanup) > 24*time.Hour {
		w.cleanup(now)
	}
	return w.file.Write(p)
}

// cleanup removes expired log files. Caller holds the lock.
func (w *RotatingWriter) cleanup(now time.Time) {
	w.lastCleanup = now
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	cutoff := now.Add(-w.retention)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err == nil && info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(w.dir, name))
		}
	}
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
