package contract

import "context"

// Task is an operation running in the background. It completes exactly once
// with either a value or an error.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func startTask[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.value, t.err = fn(ctx)
	}()
	return t
}

// Done is closed when the task has completed.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes or ctx ends. Ending ctx does not stop
// the task; cancel the context the task was started with for that.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
