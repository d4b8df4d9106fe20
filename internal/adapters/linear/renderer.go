// Package linear provides a line-buffered renderer for CI and other
// non-interactive environments.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/mark/internal/core/ports"
	"go.trai.ch/mark/internal/ui/output"
	"go.trai.ch/mark/internal/ui/style"
)

// Renderer writes chronological, task-prefixed logs. Task output goes to
// stdout; lifecycle lines go to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	out    *termenv.Output

	mu     sync.Mutex
	tasks  map[string]*taskState
	counts counts
}

type taskState struct {
	name      string
	startTime time.Time
	buf       bytes.Buffer
}

type counts struct {
	ran, skipped, failed int
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer creates a Renderer. Nil writers default to os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		out:    output.NewWithProfile(stderr, output.ColorProfileANSI),
		tasks:  make(map[string]*taskState),
	}
}

// Start is a no-op; the renderer writes synchronously.
func (r *Renderer) Start(context.Context) error {
	return nil
}

// Stop flushes partial lines and prints the summary.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, task := range r.tasks {
		r.flushLocked(task)
	}
	if r.counts != (counts{}) {
		_, _ = fmt.Fprintf(r.stderr, "%d ran, %d skipped, %d failed\n",
			r.counts.ran, r.counts.skipped, r.counts.failed)
	}
	return nil
}

// Wait is a no-op; the renderer writes synchronously.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the planned tasks.
func (r *Renderer) OnPlanEmit(tasks []string, _ map[string][]string, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts = counts{}
	_, _ = fmt.Fprintf(r.stderr, "Planning %d task(s) for %s\n", len(tasks), strings.Join(targets, ", "))
}

// OnTaskStart prints a start line.
func (r *Renderer) OnTaskStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = &taskState{name: name, startTime: startTime}
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.prefix(name))
}

// OnTaskLog prints complete lines with the task prefix and holds back a
// trailing partial line.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	task.buf.Write(data)
	for {
		idx := bytes.IndexByte(task.buf.Bytes(), '\n')
		if idx < 0 {
			return
		}
		line := task.buf.Next(idx + 1)
		r.printLineLocked(task.name, line)
	}
}

// OnTaskComplete flushes the task's output and prints its outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, skipped bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	delete(r.tasks, spanID)
	r.flushLocked(task)

	prefix := r.prefix(task.name)
	duration := endTime.Sub(task.startTime).Round(time.Millisecond)

	switch {
	case err != nil:
		r.counts.failed++
		icon := r.out.String(style.Cross).Foreground(r.out.Color(string(style.Red)))
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, icon, duration, err)
	case skipped:
		r.counts.skipped++
		icon := r.out.String(style.Skip).Foreground(r.out.Color(string(style.Slate)))
		_, _ = fmt.Fprintf(r.stderr, "%s %s Skipped, target exists\n", prefix, icon)
	default:
		r.counts.ran++
		icon := r.out.String(style.Check).Foreground(r.out.Color(string(style.Green)))
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, icon, duration)
	}
}

func (r *Renderer) prefix(name string) string {
	return r.out.String("[" + name + "]").Faint().String()
}

// flushLocked prints any held-back partial line. Must be called with r.mu held.
func (r *Renderer) flushLocked(task *taskState) {
	if task.buf.Len() > 0 {
		r.printLineLocked(task.name, task.buf.Bytes())
		task.buf.Reset()
	}
}

// printLineLocked must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
