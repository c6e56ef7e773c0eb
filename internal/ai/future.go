package ai

import "context"

// Future is the pending result of work running on its own goroutine. The work
// gets a context derived from the one passed to Go, so Cancel (or cancelling
// the parent) stops it.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// Go starts fn on a new goroutine and returns its Future
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(f.done)
		defer cancel()
		f.val, f.err = fn(ctx)
	}()

	return f
}

// Wait blocks until the work finishes or ctx is done. When ctx ends first the
// work is cancelled and ctx's error is returned.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		f.cancel()
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel aborts the work
func (f *Future[T]) Cancel() {
	f.cancel()
}

// Done is closed when the work has finished
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
