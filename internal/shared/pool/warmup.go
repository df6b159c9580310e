package pool

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// WarmupIncremental behaves like Warmup but constructs at most one instance
// per scheduler tick. It must be called from the scheduler's goroutine.
//
// Cancelling ctx, or the returned task, stops construction at the next tick
// and leaves the pool valid but under-filled. A construction failure ends the
// task in TaskFailed with the error available from Task.Err.
func (p *KeyedPool[T]) WarmupIncremental(ctx context.Context, s *Scheduler, key T, count int, parent any) (*Task, error) {
	if isZero(key) {
		return nil, ErrNilPrototype
	}
	if s == nil {
		return nil, fmt.Errorf("warmup %s: nil scheduler", p.keyName(key))
	}

	p.entryFor(key)
	name := fmt.Sprintf("warmup %s/%s", p.typeName, p.keyName(key))

	step := func() (bool, error) {
		// Looked up each tick; RemovePool may have replaced the entry.
		e := p.entryFor(key)
		if len(e.free) >= count {
			return true, nil
		}
		if err := p.warmOne(e, parent); err != nil {
			p.opts.logger.Warn("Incremental warmup failed",
				zap.String("type", p.typeName),
				zap.String("key", p.keyName(key)),
				zap.Error(err),
			)
			return true, err
		}
		return len(e.free) >= count, nil
	}

	task := NewTask(ctx, name, step)
	s.Start(task)
	return task, nil
}
