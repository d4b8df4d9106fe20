package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/mark/internal/adapters/telemetry"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

// Renderer runs the Bubble Tea program as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer for model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the program in a background goroutine.
func (r *Renderer) Start(context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to quit after drawing the final frame.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has exited. It returns
// domain.ErrInterrupted when the user quit.
func (r *Renderer) Wait() error {
	if err := <-r.errCh; err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if r.model.Interrupted {
		return domain.ErrInterrupted
	}
	return nil
}

// OnPlanEmit forwards the plan.
func (r *Renderer) OnPlanEmit(tasks []string, deps map[string][]string, targets []string) {
	r.program.Send(telemetry.MsgInitTasks{Tasks: tasks, Dependencies: deps, Targets: targets})
}

// OnTaskStart forwards a start event.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.program.Send(telemetry.MsgTaskStart{SpanID: spanID, ParentID: parentID, Name: name, StartTime: startTime})
}

// OnTaskLog forwards task output.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.program.Send(telemetry.MsgTaskLog{SpanID: spanID, Data: data})
}

// OnTaskComplete forwards a completion event.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, skipped bool, err error) {
	r.program.Send(telemetry.MsgTaskComplete{SpanID: spanID, EndTime: endTime, Skipped: skipped, Err: err})
}
