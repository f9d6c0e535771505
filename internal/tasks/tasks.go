// Package tasks runs named background jobs that callers can wait on.
package tasks

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Task is a handle to a job started by a Runner
type Task struct {
	Name string
	done chan struct{}
	err  error
}

// Wait blocks until the task finishes and returns its error
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Done is closed when the task finishes
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Runner starts tasks and tracks them until they finish
type Runner struct {
	wg     conc.WaitGroup
	logger *log.Logger
}

// NewRunner creates a runner that logs failed tasks
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{logger: logger}
}

// Go starts fn in the background. A panic in fn becomes the task's error.
func (r *Runner) Go(name string, fn func() error) *Task {
	t := &Task{Name: name, done: make(chan struct{})}
	r.wg.Go(func() {
		defer close(t.done)

		var pc panics.Catcher
		pc.Try(func() { t.err = fn() })
		if rec := pc.Recovered(); rec != nil {
			t.err = fmt.Errorf("task %s panicked: %w", name, rec.AsError())
		}
		if t.err != nil {
			r.logger.Error("task failed", "task", name, "err", t.err)
		}
	})
	return t
}

// Wait blocks until every task started so far has finished
func (r *Runner) Wait() {
	r.wg.Wait()
}
