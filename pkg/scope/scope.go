// Package scope binds asynchronous reads to a view's lifetime. When the view is
// torn down its in-flight reads are cancelled and their results discarded.
package scope

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is started on a closed scope.
var ErrClosed = errors.New("scope closed")

type Scope struct {
	locker sync.Locker
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// guarded by locker
	closed bool
}

// New creates a scope whose callbacks run while holding locker, the lock that
// guards the owning view's state.
func New(parent context.Context, locker sync.Locker) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{locker: locker, ctx: ctx, cancel: cancel}
}

func (s *Scope) Context() context.Context {
	return s.ctx
}

// Closed reports whether Close has been called. Callers must hold the view lock.
func (s *Scope) Closed() bool {
	return s.closed
}

// Go runs fn in a goroutine tracked by the scope. fn should return promptly
// once ctx is cancelled.
func (s *Scope) Go(fn func(ctx context.Context)) error {
	s.locker.Lock()
	if s.closed {
		s.locker.Unlock()
		return ErrClosed
	}
	s.wg.Add(1)
	s.locker.Unlock()

	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return nil
}

// Guard runs fn under the view lock unless the scope is closed. It reports
// whether fn ran.
func (s *Scope) Guard(fn func()) bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return false
	}
	fn()
	return true
}

// Close cancels every in-flight task and waits for them to return. No callback
// passed to Fetch or Guard runs after Close has started. Close must not be
// called while holding the view lock.
func (s *Scope) Close() {
	s.locker.Lock()
	s.closed = true
	s.locker.Unlock()

	s.cancel()
	s.wg.Wait()
}

// Task is the handle for one scoped fetch.
type Task struct {
	done chan struct{}
	mu   sync.Mutex
	err  error
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the load error, ErrClosed if the result was discarded, or nil.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task finished or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// Fetch loads a value in the scope and hands it to apply under the view lock.
// On error, fail (if non-nil) runs under the lock instead. Neither runs once the
// scope is closed; cancellation caused by Close is not reported to fail.
func Fetch[T any](s *Scope, load func(ctx context.Context) (T, error), apply func(T), fail func(error)) *Task {
	t := &Task{done: make(chan struct{})}

	err := s.Go(func(ctx context.Context) {
		v, err := load(ctx)

		ran := s.Guard(func() {
			if err != nil {
				if fail != nil {
					fail(err)
				}
				return
			}
			apply(v)
		})

		if !ran {
			t.finish(ErrClosed)
			return
		}
		t.finish(err)
	})
	if err != nil {
		t.finish(err)
	}
	return t
}
