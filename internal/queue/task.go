package queue

import "context"

// Task is the completion handle of work started in its own goroutine. The
// scheduler polls Finished and never blocks on a running task.
type Task struct {
	done chan struct{}
	err  error
}

// Go runs fn in a new goroutine and returns its handle.
func Go(ctx context.Context, fn func(context.Context) error) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = fn(ctx)
	}()
	return t
}

// Finished reports whether the task has returned, without blocking.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Err returns the task's result. It is nil until the task has finished.
func (t *Task) Err() error {
	if !t.Finished() {
		return nil
	}
	return t.err
}

// Wait blocks until the task finishes and returns its result.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Done returns a channel closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
