package session

import (
	"errors"
	"fmt"

	"pooledlist/internal/listview"
	"pooledlist/internal/scene"
	"pooledlist/internal/shared/pool"

	"go.uber.org/zap"
)

// Defaults fill in bind request fields the client leaves at zero
type Defaults struct {
	ElementExtent  float64
	ViewportExtent float64
	Snap           listview.SnapMode
}

// Host is the state every session shares: one scheduler goroutine owning
// one node pool, and the prototype rows are cloned from.
type Host struct {
	Scheduler *pool.Scheduler
	Registry  *pool.Registry
	Pool      *pool.KeyedPool[*scene.Node]
	Lifecycle *scene.Lifecycle
	Prototype *scene.Node
	Defaults  Defaults
	logger    *zap.Logger
}

// NewHost fetches the node pool from registry, creating it with lifecycle on first use
func NewHost(sched *pool.Scheduler, registry *pool.Registry, lifecycle *scene.Lifecycle, prototype *scene.Node, defaults Defaults, logger *zap.Logger) (*Host, error) {
	if sched == nil || registry == nil {
		return nil, errors.New("scheduler and registry are required")
	}
	if prototype == nil {
		return nil, pool.ErrNilPrototype
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p, err := pool.Of[*scene.Node](registry, lifecycle)
	if err != nil {
		return nil, fmt.Errorf("node pool: %w", err)
	}

	return &Host{
		Scheduler: sched,
		Registry:  registry,
		Pool:      p,
		Lifecycle: lifecycle,
		Prototype: prototype,
		Defaults:  defaults,
		logger:    logger,
	}, nil
}

// Trim runs one pass of the trim policy on the scheduler goroutine
func (h *Host) Trim(defaultCapacity int, done func(destroyed int, stats []pool.TypeStats)) bool {
	return h.Scheduler.Submit(func() {
		n, err := h.Registry.TrimAll(defaultCapacity)
		if err != nil {
			h.logger.Warn("Trim failed", zap.Error(err))
			return
		}
		if n > 0 {
			h.logger.Info("Trimmed idle instances", zap.Int("destroyed", n))
		}
		if done != nil {
			done(n, h.Registry.Snapshot())
		}
	})
}
