// Package state provides a mutex-guarded value that stays usable after a
// holder panics.
package state

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/panics"
)

// Guarded owns a value of type T and hands out exclusive access to it
type Guarded[T any] struct {
	mu      sync.Mutex
	value   T
	faulted bool
	logger  *log.Logger
}

// New wraps value
func New[T any](value T, logger *log.Logger) *Guarded[T] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Guarded[T]{value: value, logger: logger}
}

// With runs fn with exclusive access to the value. A panic in fn is
// returned as an error and the lock is released; the next caller gets the
// value as fn left it.
func (g *Guarded[T]) With(fn func(*T)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.faulted {
		g.logger.Warn("previous state holder panicked, continuing with current state")
		g.faulted = false
	}

	var pc panics.Catcher
	pc.Try(func() { fn(&g.value) })
	if r := pc.Recovered(); r != nil {
		g.faulted = true
		g.logger.Error("panic while holding state", "panic", r.Value)
		return fmt.Errorf("state holder panicked: %w", r.AsError())
	}
	return nil
}

// Faulted reports whether the last holder panicked and nobody has taken
// the lock since
func (g *Guarded[T]) Faulted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faulted
}
