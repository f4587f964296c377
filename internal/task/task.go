// Package task runs a function in the background and hands its single
// result to whoever awaits it.
package task

import "context"

// Task is a running computation with exactly one result.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn in a new goroutine.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.value, t.err = fn(ctx)
	}()
	return t
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Await blocks until the task finishes or ctx is done. Giving up on the
// wait does not stop the task.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
