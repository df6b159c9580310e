package pool

import (
	"reflect"
	"sync"
)

// typedPool is the type-erased view the registry keeps of each KeyedPool
type typedPool interface {
	TypeName() string
	Stats() TypeStats
	Trim(defaultCapacity int) (int, error)
	TrimExcess() int
}

// Registry holds one KeyedPool per instance type. Slots are created on first
// access and live as long as the registry.
type Registry struct {
	mu    sync.Mutex
	pools map[reflect.Type]typedPool
	order []reflect.Type
	opts  []Option
}

// NewRegistry creates a registry whose pools are built with opts
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		pools: make(map[reflect.Type]typedPool),
		opts:  opts,
	}
}

// Default is the process-wide registry
var Default = NewRegistry()

// Of returns the registry's pool for T, creating it with lifecycle on first
// access. Later calls ignore lifecycle.
func Of[T comparable](r *Registry, lifecycle Lifecycle[T]) (*KeyedPool[T], error) {
	t := reflect.TypeFor[T]()

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[t]; ok {
		return p.(*KeyedPool[T]), nil
	}

	p, err := New(lifecycle, r.opts...)
	if err != nil {
		return nil, err
	}
	r.pools[t] = p
	r.order = append(r.order, t)
	return p, nil
}

// Lookup returns the registry's pool for T if it has been created
func Lookup[T comparable](r *Registry) (*KeyedPool[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return p.(*KeyedPool[T]), true
}

// For returns the Default registry's pool for T
func For[T comparable](lifecycle Lifecycle[T]) (*KeyedPool[T], error) {
	return Of(Default, lifecycle)
}

func (r *Registry) snapshotPools() []typedPool {
	r.mu.Lock()
	defer r.mu.Unlock()

	pools := make([]typedPool, 0, len(r.order))
	for _, t := range r.order {
		pools = append(pools, r.pools[t])
	}
	return pools
}

// Types returns the instance type names with a pool, in creation order
func (r *Registry) Types() []string {
	pools := r.snapshotPools()
	names := make([]string, len(pools))
	for i, p := range pools {
		names[i] = p.TypeName()
	}
	return names
}

// Snapshot returns the stats of every pool
func (r *Registry) Snapshot() []TypeStats {
	pools := r.snapshotPools()
	stats := make([]TypeStats, len(pools))
	for i, p := range pools {
		stats[i] = p.Stats()
	}
	return stats
}

// TrimAll trims every pool with defaultCapacity
func (r *Registry) TrimAll(defaultCapacity int) (int, error) {
	if defaultCapacity < 0 {
		return 0, ErrNegativeCapacity
	}

	total := 0
	for _, p := range r.snapshotPools() {
		n, err := p.Trim(defaultCapacity)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// TrimExcess trims every pool with its own default capacity
func (r *Registry) TrimExcess() int {
	total := 0
	for _, p := range r.snapshotPools() {
		total += p.TrimExcess()
	}
	return total
}
