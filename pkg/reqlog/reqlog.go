// Package reqlog appends one JSON line per plan request to a local file.
// Writes are best effort: failures are logged and never reach the caller.
package reqlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"pmplanner/pkg/asset"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "pm_lite_logs.txt"

// TimestampLayout is UTC with microseconds and no zone suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000"

const (
	lockSuffix    = ".lock"
	lockTimeout   = 2 * time.Second
	lockRetryWait = 10 * time.Millisecond
)

// Entry is one line of the log.
type Entry struct {
	Timestamp string           `json:"timestamp"`
	Input     asset.Descriptor `json:"input"`
}

// Writer serializes appends within the process with a mutex and across
// processes with an advisory lock on <path>.lock.
type Writer struct {
	path   string
	now    func() time.Time
	logger *zap.Logger

	mu   sync.Mutex
	lock *flock.Flock
}

// New returns a Writer for path. An empty path selects DefaultPath.
func New(path string, logger *zap.Logger) *Writer {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		path:   path,
		now:    time.Now,
		logger: logger,
		lock:   flock.New(path + lockSuffix),
	}
}

// Path returns the log file path.
func (w *Writer) Path() string { return w.path }

// Append records a. It returns once the line is written or the attempt has
// failed.
func (w *Writer) Append(ctx context.Context, a asset.Descriptor) {
	if err := w.append(ctx, a); err != nil {
		w.logger.Warn("Request log write failed", zap.String("path", w.path), zap.Error(err))
	}
}

func (w *Writer) append(ctx context.Context, a asset.Descriptor) error {
	line, err := json.Marshal(Entry{
		Timestamp: w.now().UTC().Format(TimestampLayout),
		Input:     a,
	})
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := w.lock.TryLockContext(lockCtx, lockRetryWait)
	if err != nil {
		return fmt.Errorf("failed to acquire log lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("timeout waiting for log lock")
	}
	defer w.lock.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log: %w", err)
	}
	return f.Close()
}
