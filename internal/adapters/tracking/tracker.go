// Package tracking records task metrics as JSON lines.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.trai.ch/mark/internal/adapters/telemetry"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

// QueueSize bounds the entries waiting to be written.
const QueueSize = 1024

// Entry is one metric line.
type Entry struct {
	Task  string    `json:"task"`
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

// Tracker appends metrics to a JSONL file from a background goroutine.
// Track never blocks: when the queue is full the entry is dropped.
type Tracker struct {
	file    *os.File
	logger  ports.Logger
	now     func() time.Time
	queue   chan Entry
	done    chan struct{}
	batcher *telemetry.BatchProcessor

	mu       sync.RWMutex
	closed   bool
	writeErr error

	closeOnce sync.Once
	closeErr  error
}

var _ ports.Tracker = (*Tracker)(nil)

// NewTracker opens path for appending, creating it and its directory.
func NewTracker(path string, logger ports.Logger) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, domain.Annotate(domain.Wrap(domain.ErrTrackerOpenFailed, err), "path", path)
	}
	//nolint:gosec // path comes from the project config
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		return nil, domain.Annotate(domain.Wrap(domain.ErrTrackerOpenFailed, err), "path", path)
	}

	t := &Tracker{
		file:   file,
		logger: logger,
		now:    time.Now,
		queue:  make(chan Entry, QueueSize),
		done:   make(chan struct{}),
	}
	t.batcher = telemetry.NewBatchProcessor(0, 0, t.write)
	go t.run()
	return t, nil
}

// Track queues one entry per metric, in name order.
func (t *Tracker) Track(task string, metrics map[string]float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	now := t.now()
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		select {
		case t.queue <- Entry{Task: task, Name: name, Value: metrics[name], Time: now}:
		default:
			if t.logger != nil {
				t.logger.Warn(fmt.Sprintf("metrics queue full, dropping %s/%s", task, name))
			}
		}
	}
}

func (t *Tracker) run() {
	defer close(t.done)
	for entry := range t.queue {
		line, err := json.Marshal(entry)
		if err != nil {
			t.fail(err)
			continue
		}
		_, _ = t.batcher.Write(append(line, '\n'))
	}
	_ = t.batcher.Close()
}

func (t *Tracker) write(data []byte) {
	if _, err := t.file.Write(data); err != nil {
		t.fail(err)
	}
}

func (t *Tracker) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr == nil {
		t.writeErr = err
	}
}

// Close stops accepting metrics, flushes the queue and closes the file. If
// ctx ends first, pending entries are abandoned and ctx's error returned;
// a later Close may still finish the flush. Once the file is closed every
// call returns the same result.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.closeOnce.Do(func() {
		t.mu.RLock()
		writeErr := t.writeErr
		t.mu.RUnlock()

		if err := errors.Join(writeErr, t.file.Sync(), t.file.Close()); err != nil {
			t.closeErr = domain.Annotate(domain.Wrap(domain.ErrTrackerWriteFailed, err), "path", t.file.Name())
		}
	})
	return t.closeErr
}

// Factory opens trackers.
type Factory struct {
	logger ports.Logger
}

var _ ports.TrackerFactory = (*Factory)(nil)

// NewFactory returns a Factory whose trackers warn through logger.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{logger: logger}
}

// Open implements ports.TrackerFactory.
func (f *Factory) Open(path string) (ports.Tracker, error) {
	return NewTracker(path, f.logger)
}
