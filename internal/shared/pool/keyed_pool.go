package pool

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// entry is the free list and capacity for one prototype key
type entry[T comparable] struct {
	key         T
	free        []T
	capacity    int
	capacitySet bool
}

// KeyedPool recycles instances of T, partitioned by the prototype they were
// spawned from. Prototype keys compare with ==, so pointer types give
// identity semantics.
//
// A KeyedPool is not safe for concurrent use. It belongs to the host's
// update goroutine; other goroutines reach it through a Scheduler.
type KeyedPool[T comparable] struct {
	typeName  string
	lifecycle Lifecycle[T]
	entries   map[T]*entry[T]
	keys      []T
	// outstanding survives RemovePool so orphans can still be accounted for
	outstanding map[T]int
	arena       arena[T]
	opts        options
}

// New creates a pool for T backed by lifecycle
func New[T comparable](lifecycle Lifecycle[T], opts ...Option) (*KeyedPool[T], error) {
	if lifecycle == nil {
		return nil, ErrNoLifecycle
	}

	return &KeyedPool[T]{
		typeName:    reflect.TypeFor[T]().String(),
		lifecycle:   lifecycle,
		entries:     make(map[T]*entry[T]),
		outstanding: make(map[T]int),
		arena:       newArena[T](),
		opts:        buildOptions(opts),
	}, nil
}

// TypeName returns the instance type this pool serves
func (p *KeyedPool[T]) TypeName() string {
	return p.typeName
}

func (p *KeyedPool[T]) keyName(key T) string {
	return p.opts.keyName(key)
}

func isZero[T comparable](v T) bool {
	var zero T
	return v == zero
}

func (p *KeyedPool[T]) entryFor(key T) *entry[T] {
	if e, ok := p.entries[key]; ok {
		return e
	}
	e := &entry[T]{key: key}
	p.entries[key] = e
	p.keys = append(p.keys, key)
	return e
}

func (p *KeyedPool[T]) construct(key T) (T, error) {
	var zero T

	instance, err := p.lifecycle.Instantiate(key)
	if err != nil {
		return zero, fmt.Errorf("%w for %s: %w", ErrConstruction, p.keyName(key), err)
	}
	if isZero(instance) {
		return zero, fmt.Errorf("%w for %s: construction source returned nil", ErrConstruction, p.keyName(key))
	}
	if _, exists := p.arena.lookup(instance); exists {
		return zero, fmt.Errorf("%w for %s: construction source returned a live instance", ErrConstruction, p.keyName(key))
	}

	p.opts.observer.Constructed(p.typeName, p.keyName(key))
	return instance, nil
}

// warmOne constructs one idle instance into e
func (p *KeyedPool[T]) warmOne(e *entry[T], parent any) error {
	instance, err := p.construct(e.key)
	if err != nil {
		return err
	}

	holding := parent
	if holding == nil {
		holding = p.opts.holding
	}

	p.arena.insert(instance, e.key, slotFree)
	p.lifecycle.Deactivate(instance, holding)
	e.free = append(e.free, instance)
	return nil
}

// Warmup makes sure key's free list holds at least count idle instances.
// New instances are parented under parent, or the holding area when nil.
// A construction failure stops the warmup; instances built before it stay pooled.
func (p *KeyedPool[T]) Warmup(key T, count int, parent any) error {
	if isZero(key) {
		return ErrNilPrototype
	}

	e := p.entryFor(key)
	for len(e.free) < count {
		if err := p.warmOne(e, parent); err != nil {
			return err
		}
	}
	return nil
}

// Get hands out an instance for key, reusing an idle one when available
func (p *KeyedPool[T]) Get(key T, parent any) (T, error) {
	return p.GetAt(key, parent, nil)
}

// GetAt is Get with an explicit placement
func (p *KeyedPool[T]) GetAt(key T, parent any, placement *Placement) (T, error) {
	var zero T
	if isZero(key) {
		return zero, ErrNilPrototype
	}

	e := p.entryFor(key)

	var instance T
	if n := len(e.free); n > 0 {
		instance = e.free[n-1]
		e.free[n-1] = zero
		e.free = e.free[:n-1]

		s, _ := p.arena.lookup(instance)
		s.state = slotCheckedOut
		p.opts.observer.Reused(p.typeName, p.keyName(key))
	} else {
		var err error
		instance, err = p.construct(key)
		if err != nil {
			return zero, err
		}
		p.arena.insert(instance, key, slotCheckedOut)
	}

	p.outstanding[key]++
	p.lifecycle.Activate(instance, parent, placement)
	return instance, nil
}

// TryPool returns instance to key's free list and reports misuse as an error.
// On error the pool is left untouched.
func (p *KeyedPool[T]) TryPool(key, instance T) error {
	if isZero(key) {
		return ErrNilPrototype
	}

	s, ok := p.arena.lookup(instance)
	if !ok {
		return ErrForeignInstance
	}
	if s.state == slotFree {
		return ErrDoubleReturn
	}
	if s.key != key {
		return ErrKeyMismatch
	}

	s.state = slotFree
	if p.outstanding[key]--; p.outstanding[key] <= 0 {
		delete(p.outstanding, key)
	}

	e := p.entryFor(key)
	p.lifecycle.Deactivate(instance, p.opts.holding)
	e.free = append(e.free, instance)
	p.opts.observer.Returned(p.typeName, p.keyName(key))
	return nil
}

// Pool returns instance to key's free list. Misuse is logged and ignored so
// a bad caller cannot corrupt the shared free lists.
func (p *KeyedPool[T]) Pool(key, instance T) {
	if err := p.TryPool(key, instance); err != nil {
		name := p.keyName(key)
		p.opts.observer.Misuse(p.typeName, name, err)
		p.opts.logger.Warn("Ignored invalid pool return",
			zap.String("type", p.typeName),
			zap.String("key", name),
			zap.Error(err),
		)
	}
}

// RemovePool destroys key's idle instances and drops its entry. Checked-out
// instances are left alone; returning one later starts a fresh entry.
func (p *KeyedPool[T]) RemovePool(key T) {
	e, ok := p.entries[key]
	if !ok {
		return
	}

	destroyed := p.destroyFree(e, 0)
	delete(p.entries, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}

	p.opts.logger.Debug("Removed prototype pool",
		zap.String("type", p.typeName),
		zap.String("key", p.keyName(key)),
		zap.Int("destroyed", destroyed),
		zap.Int("orphaned", p.outstanding[key]),
	)
}

// destroyFree destroys idle instances of e beyond keep, newest first
func (p *KeyedPool[T]) destroyFree(e *entry[T], keep int) int {
	if keep < 0 {
		keep = 0
	}
	if len(e.free) <= keep {
		return 0
	}

	var zero T
	excess := e.free[keep:]
	for i, instance := range excess {
		p.arena.release(instance)
		p.lifecycle.Destroy(instance)
		excess[i] = zero
	}
	e.free = e.free[:keep]

	p.opts.observer.Destroyed(p.typeName, p.keyName(e.key), len(excess))
	return len(excess)
}

// SetCapacity sets the trim ceiling for key
func (p *KeyedPool[T]) SetCapacity(key T, capacity int) error {
	if isZero(key) {
		return ErrNilPrototype
	}
	if capacity < 0 {
		return ErrNegativeCapacity
	}

	e := p.entryFor(key)
	e.capacity = capacity
	e.capacitySet = true
	return nil
}

// SetDefaultCapacity sets the ceiling TrimExcess applies to keys without
// an explicit capacity
func (p *KeyedPool[T]) SetDefaultCapacity(capacity int) error {
	if capacity < 0 {
		return ErrNegativeCapacity
	}
	p.opts.defaultCapacity = capacity
	return nil
}

// DefaultCapacity returns the pool-wide ceiling
func (p *KeyedPool[T]) DefaultCapacity() int {
	return p.opts.defaultCapacity
}

// Trim destroys idle instances beyond each key's capacity, falling back to
// defaultCapacity for keys without one. It returns the number destroyed.
func (p *KeyedPool[T]) Trim(defaultCapacity int) (int, error) {
	if defaultCapacity < 0 {
		return 0, ErrNegativeCapacity
	}

	destroyed := 0
	for _, key := range p.keys {
		e := p.entries[key]
		ceiling := defaultCapacity
		if e.capacitySet {
			ceiling = e.capacity
		}
		destroyed += p.destroyFree(e, ceiling)
	}

	if destroyed > 0 {
		p.opts.logger.Debug("Trimmed pool",
			zap.String("type", p.typeName),
			zap.Int("destroyed", destroyed),
		)
	}
	return destroyed, nil
}

// TrimExcess trims with the pool-wide default capacity
func (p *KeyedPool[T]) TrimExcess() int {
	n, _ := p.Trim(p.opts.defaultCapacity)
	return n
}

// Keys returns the prototype keys with an entry, in creation order
func (p *KeyedPool[T]) Keys() []T {
	keys := make([]T, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// FreeCount returns the number of idle instances for key
func (p *KeyedPool[T]) FreeCount(key T) int {
	if e, ok := p.entries[key]; ok {
		return len(e.free)
	}
	return 0
}

// CheckedOutCount returns the number of instances of key currently handed out
func (p *KeyedPool[T]) CheckedOutCount(key T) int {
	return p.outstanding[key]
}

// Contains reports whether instance is idle in key's free list
func (p *KeyedPool[T]) Contains(key, instance T) bool {
	s, ok := p.arena.lookup(instance)
	return ok && s.state == slotFree && s.key == key
}

// Live returns the number of instances the pool is tracking, idle or not
func (p *KeyedPool[T]) Live() int {
	return p.arena.live()
}

// HandleOf returns the stable handle for a live instance
func (p *KeyedPool[T]) HandleOf(instance T) (Handle, bool) {
	return p.arena.handleOf(instance)
}

// Resolve returns the instance behind h, or false once it has been destroyed
func (p *KeyedPool[T]) Resolve(h Handle) (T, bool) {
	s, ok := p.arena.resolve(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.instance, true
}

// Stats returns a typed snapshot of every entry
func (p *KeyedPool[T]) Stats() TypeStats {
	stats := TypeStats{
		Type:            p.typeName,
		DefaultCapacity: p.opts.defaultCapacity,
		Entries:         make([]EntryStats, 0, len(p.keys)),
	}
	for _, key := range p.keys {
		e := p.entries[key]
		capacity := p.opts.defaultCapacity
		if e.capacitySet {
			capacity = e.capacity
		}
		stats.Entries = append(stats.Entries, EntryStats{
			Key:         p.keyName(key),
			Free:        len(e.free),
			CheckedOut:  p.outstanding[key],
			Capacity:    capacity,
			CapacitySet: e.capacitySet,
		})
	}
	return stats
}
