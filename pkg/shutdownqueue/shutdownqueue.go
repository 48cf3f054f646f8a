// Package shutdownqueue runs named cleanup tasks in reverse order of
// registration.
//
// A process normally uses the package-level queue:
//
//	shutdownqueue.Add("http server", srv.Shutdown)
//	...
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	err := shutdownqueue.Shutdown(ctx)
//
// Tasks run once. Panics are recovered and reported. Shutdown stops at the
// first task that finds ctx done and returns every error so far joined.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task should honor ctx and return an error if it cannot finish in time.
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	run  Task
}

// Queue is a LIFO list of shutdown tasks. The zero value is ready to use.
type Queue struct {
	mu     sync.Mutex
	tasks  []namedTask
	closed bool
}

func New() *Queue {
	return &Queue{}
}

// Add registers a task. It is a no-op for a nil task or once Shutdown has
// started.
func (q *Queue) Add(name string, t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.tasks = append(q.tasks, namedTask{name: name, run: t})
}

// Len returns the number of tasks still pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

// Shutdown drains the queue in LIFO order. Calls after the first are no-ops.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return nil
	}

	q.closed = true
	tasks := q.tasks
	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		err := ctx.Err()
		if err != nil {
			errs = append(errs, fmt.Errorf("shutdown canceled before %q: %w", tasks[i].name, err))
			return errors.Join(errs...)
		}

		err = runTask(ctx, tasks[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t namedTask) (err error) {
	start := time.Now()

	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task %q: %v", t.name, r)
		}

		slog.DebugContext(ctx, "shutdown task finished",
			"task", t.name, "duration", time.Since(start), "error", err)
	}()

	err = t.run(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}

	return nil
}

var std = New()

// Add registers a task on the process-wide queue.
func Add(name string, t Task) {
	std.Add(name, t)
}

// Shutdown drains the process-wide queue.
func Shutdown(ctx context.Context) error {
	return std.Shutdown(ctx)
}
