package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// TaskState is the lifecycle state of a Task
type TaskState int32

const (
	TaskRunning TaskState = iota
	TaskCompleted
	TaskCancelled
	TaskFailed
)

// String returns the string representation of the state
func (s TaskState) String() string {
	switch s {
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskCancelled:
		return "cancelled"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepFunc performs one unit of work. It reports done once nothing is left.
type StepFunc func() (done bool, err error)

// Task is cooperative work advanced by a Scheduler one step per tick
type Task struct {
	name      string
	ctx       context.Context
	step      StepFunc
	state     atomic.Int32
	cancelled atomic.Bool
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// NewTask wraps step as a task bound to ctx. Cancelling ctx stops the task
// at the next tick boundary without error.
func NewTask(ctx context.Context, name string, step StepFunc) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Task{
		name: name,
		ctx:  ctx,
		step: step,
		done: make(chan struct{}),
	}
}

// Name returns the task name
func (t *Task) Name() string {
	return t.name
}

// advance runs one step and reports whether the task has finished
func (t *Task) advance() bool {
	if t.State() != TaskRunning {
		return true
	}
	if t.cancelled.Load() || t.ctx.Err() != nil {
		t.finish(TaskCancelled, nil)
		return true
	}

	done, err := t.step()
	switch {
	case err != nil:
		t.finish(TaskFailed, err)
		return true
	case done:
		t.finish(TaskCompleted, nil)
		return true
	default:
		return false
	}
}

func (t *Task) finish(state TaskState, err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()

	t.state.Store(int32(state))
	close(t.done)
}

// Cancel asks the task to stop; it takes effect on the next tick
func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

// Done is closed once the task completes, fails or is cancelled
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// State returns the current state
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// Err returns the step error of a failed task
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task finishes or ctx is done
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
