package pool

import "errors"

var (
	// ErrNilPrototype is returned when an operation is given the zero prototype key
	ErrNilPrototype = errors.New("prototype key is nil")

	// ErrNegativeCapacity is returned when a capacity below zero is configured
	ErrNegativeCapacity = errors.New("capacity must not be negative")

	// ErrConstruction wraps failures reported by the construction source
	ErrConstruction = errors.New("instance construction failed")

	// ErrNoLifecycle is returned when a pool is created without a lifecycle
	ErrNoLifecycle = errors.New("pool lifecycle is nil")

	// ErrForeignInstance is reported when an instance unknown to the pool is returned
	ErrForeignInstance = errors.New("instance was not issued by this pool")

	// ErrKeyMismatch is reported when an instance is returned under another prototype
	ErrKeyMismatch = errors.New("instance was issued for a different prototype")

	// ErrDoubleReturn is reported when an idle instance is returned again
	ErrDoubleReturn = errors.New("instance is already pooled")

	// ErrSchedulerClosed is returned when work is submitted to a closed scheduler
	ErrSchedulerClosed = errors.New("scheduler is closed")

	// ErrQueueFull is returned when the scheduler job queue has no room
	ErrQueueFull = errors.New("scheduler queue is full")
)
