// Package debounce provides a trailing-edge debounce primitive.
package debounce

import (
	"sync"
	"time"
)

// Action wraps a function so that bursts of Schedule calls collapse into a
// single invocation carrying the arguments of the most recent call.
//
// The wrapped function runs on its own goroutine once the window has elapsed
// without another Schedule call. Invocations are not serialized: if the
// previous invocation is still running when the timer fires again, both run.
type Action[T any] struct {
	window time.Duration
	fn     func(T)

	mu    sync.Mutex
	timer *time.Timer
	args  T
	// gen identifies the currently armed timer. A timer whose callback was
	// already running when it got superseded sees a stale gen and bails out.
	gen uint64
}

// New creates an Action that invokes fn after window has passed with no
// further Schedule calls.
func New[T any](window time.Duration, fn func(T)) *Action[T] {
	return &Action[T]{
		window: window,
		fn:     fn,
	}
}

// Schedule records args and (re)starts the quiet window. It never blocks on
// the wrapped function.
func (a *Action[T]) Schedule(args T) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}

	a.args = args
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.window, func() {
		a.fire(gen)
	})
}

func (a *Action[T]) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.timer == nil {
		a.mu.Unlock()
		return
	}
	args := a.args
	var zero T
	a.args = zero
	a.timer = nil
	a.mu.Unlock()

	a.fn(args)
}

// Cancel drops a pending invocation, if any. Invocations that already
// started are not affected.
func (a *Action[T]) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	var zero T
	a.args = zero
	a.gen++
}

// Pending reports whether an invocation is scheduled and has not fired yet.
func (a *Action[T]) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Window returns the configured quiet window.
func (a *Action[T]) Window() time.Duration {
	return a.window
}
