package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler is the host update loop. Jobs and task steps all run on the
// goroutine that calls Tick (directly or through Run), which makes it the
// single owner of every pool and recycler it drives.
type Scheduler struct {
	interval time.Duration
	jobQueue chan func()
	tasks    []*Task
	logger   *zap.Logger
	once     sync.Once
	closed   bool
	mu       sync.RWMutex
}

// NewScheduler creates a scheduler that ticks every interval when Run is used
func NewScheduler(interval time.Duration, queueSize int, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond // Default frame time
	}
	if queueSize <= 0 {
		queueSize = 1000 // Default queue size
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		interval: interval,
		jobQueue: make(chan func(), queueSize),
		logger:   logger,
	}
}

// Interval returns the tick interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Submit queues a job for the next tick.
// Returns false if the scheduler is closed or the queue is full
func (s *Scheduler) Submit(job func()) bool {
	if job == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	// Non-blocking send; running the job elsewhere would break single ownership
	select {
	case s.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitWait queues a job and waits until the loop has run it.
// Must not be called from the loop goroutine itself.
func (s *Scheduler) SubmitWait(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		job()
	}

	if !s.Submit(wrapped) {
		if s.IsClosed() {
			return ErrSchedulerClosed
		}
		return ErrQueueFull
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue queues a job like Submit, retrying every interval while the queue
// is full. It gives up only when the scheduler closes or ctx is done.
func (s *Scheduler) Enqueue(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}

	var retry *time.Ticker
	for {
		if s.Submit(job) {
			return nil
		}
		if s.IsClosed() {
			return ErrSchedulerClosed
		}
		if retry == nil {
			retry = time.NewTicker(s.interval)
			defer retry.Stop()
		}
		select {
		case <-retry.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Start adds a task to the loop. Call it from the loop goroutine.
func (s *Scheduler) Start(task *Task) {
	s.tasks = append(s.tasks, task)
}

// Pending returns the number of unfinished tasks
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Tick runs the jobs queued so far, then advances every task by one step
func (s *Scheduler) Tick() {
	s.drainJobs()
	s.stepTasks()
}

func (s *Scheduler) drainJobs() {
	for n := len(s.jobQueue); n > 0; n-- {
		job, ok := <-s.jobQueue
		if !ok {
			return
		}
		s.runJob(job)
	}
}

func (s *Scheduler) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduler job panicked", zap.Any("panic", r))
		}
	}()
	job()
}

func (s *Scheduler) stepTasks() {
	if len(s.tasks) == 0 {
		return
	}

	live := s.tasks[:0]
	for _, task := range s.tasks {
		if task.advance() {
			s.logger.Debug("Task finished",
				zap.String("task", task.Name()),
				zap.Stringer("state", task.State()),
			)
			continue
		}
		live = append(live, task)
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}

// Run drives the loop until ctx is done or the scheduler is closed.
// Jobs run as soon as they arrive; tasks advance once per interval.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case job, ok := <-s.jobQueue:
			if !ok {
				return nil
			}
			s.runJob(job)
		case <-ticker.C:
			s.stepTasks()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting jobs and runs whatever is still queued.
// It must not race with Run; stop Run first.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.jobQueue)
		for job := range s.jobQueue {
			s.runJob(job)
		}
	})
}

// IsClosed returns true if the scheduler is closed
func (s *Scheduler) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
