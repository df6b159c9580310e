// Package listview keeps only the visible slice of a long list materialized,
// recycling pooled instances as the scroll position moves.
package listview

import (
	"fmt"
	"math"
	"sort"

	"pooledlist/internal/shared/pool"

	"go.uber.org/zap"
)

// Options configures a Recycler
type Options[T comparable] struct {
	ElementExtent float64
	Snapping      SnapMode
	Layout        Layout[T]
	// Scroll defaults to a ScrollBar at the top of the list
	Scroll   ScrollSource
	Bind     BindFunc[T]
	Navigate NavigateFunc[T]
	Logger   *zap.Logger
}

// Recycler binds the window of a logical list to pooled instances of T.
// Like the pool it draws from, it belongs to a single goroutine.
type Recycler[T comparable] struct {
	pool      *pool.KeyedPool[T]
	prototype T
	opts      Options[T]
	logger    *zap.Logger

	state    State
	list     List
	bound    map[int]T
	window   Window
	toRemove []int
	ordered  []T
}

// New creates an unbound recycler drawing instances of prototype from p
func New[T comparable](p *pool.KeyedPool[T], prototype T, opts Options[T]) (*Recycler[T], error) {
	if p == nil {
		return nil, ErrNoPool
	}
	var zero T
	if prototype == zero {
		return nil, pool.ErrNilPrototype
	}
	if opts.Layout == nil {
		return nil, ErrNoLayout
	}
	if opts.Scroll == nil {
		opts.Scroll = NewScrollBar(1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recycler[T]{
		pool:      p,
		prototype: prototype,
		opts:      opts,
		logger:    logger,
		bound:     make(map[int]T),
		window:    Window{ElementExtent: opts.ElementExtent, Scroll: opts.Scroll.Value()},
	}, nil
}

// Track makes bar drive the recycler, the way a scroll view listens to its scrollbar
func (r *Recycler[T]) Track(bar *ScrollBar) {
	r.opts.Scroll = bar
	bar.OnValueChanged(func(value float64) {
		if err := r.SetScrollPosition(value); err != nil {
			r.logger.Warn("Scroll recompute failed", zap.Float64("value", value), zap.Error(err))
		}
	})
}

// State returns whether a list is bound
func (r *Recycler[T]) State() State {
	return r.state
}

// Window returns the result of the last recompute
func (r *Recycler[T]) Window() Window {
	return r.window
}

// Scroll returns the scroll source in use
func (r *Recycler[T]) Scroll() ScrollSource {
	return r.opts.Scroll
}

// Instance returns the instance bound to index
func (r *Recycler[T]) Instance(index int) (T, bool) {
	inst, ok := r.bound[index]
	return inst, ok
}

// Bound returns a copy of the index to instance map
func (r *Recycler[T]) Bound() map[int]T {
	bound := make(map[int]T, len(r.bound))
	for i, inst := range r.bound {
		bound[i] = inst
	}
	return bound
}

// BoundIndices returns the bound indices in ascending order
func (r *Recycler[T]) BoundIndices() []int {
	indices := make([]int, 0, len(r.bound))
	for i := range r.bound {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// Bind attaches list, returns every bound instance to the pool and
// recomputes the window from the current scroll position. A nil list
// leaves the recycler unbound.
func (r *Recycler[T]) Bind(list List) error {
	if err := validExtent(r.opts.ElementExtent); err != nil {
		return err
	}

	r.releaseAll()
	r.list = list
	if list == nil {
		r.unbind()
		return nil
	}

	r.state = StateBound
	return r.recompute(r.opts.Scroll.Value())
}

// Refresh rebinds the visible window against the current list and scroll
// position. Every bound instance goes back to the pool first, so the bind
// callback sees item changes.
func (r *Recycler[T]) Refresh() error {
	if r.state != StateBound {
		return nil
	}
	r.releaseAll()
	return r.recompute(r.opts.Scroll.Value())
}

// SetScrollPosition recomputes the window for a normalized scroll value.
// 1 shows the top of the list, 0 the bottom.
func (r *Recycler[T]) SetScrollPosition(value float64) error {
	if r.state != StateBound {
		return nil
	}
	return r.recompute(value)
}

// SetElementExtent changes the item height and recomputes a bound window
func (r *Recycler[T]) SetElementExtent(extent float64) error {
	if err := validExtent(extent); err != nil {
		return err
	}
	r.opts.ElementExtent = extent
	if r.state != StateBound {
		return nil
	}
	return r.recompute(r.opts.Scroll.Value())
}

// SetSnapping changes the snap mode and recomputes a bound window
func (r *Recycler[T]) SetSnapping(mode SnapMode) error {
	r.opts.Snapping = mode
	if r.state != StateBound {
		return nil
	}
	return r.recompute(r.opts.Scroll.Value())
}

// Clear returns everything to the pool and detaches the list
func (r *Recycler[T]) Clear() {
	r.releaseAll()
	r.list = nil
	r.unbind()
}

func (r *Recycler[T]) unbind() {
	r.state = StateUnbound
	r.window = Window{ElementExtent: r.opts.ElementExtent, Scroll: r.opts.Scroll.Value()}
	r.opts.Layout.SetPadding(0, 0)
}

func validExtent(extent float64) error {
	if !(extent > 0) || math.IsInf(extent, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidExtent, extent)
	}
	return nil
}

func (r *Recycler[T]) releaseAll() {
	if len(r.bound) == 0 {
		return
	}
	for _, index := range r.BoundIndices() {
		r.pool.Pool(r.prototype, r.bound[index])
		delete(r.bound, index)
	}
}

// recompute runs the windowing pass for value
func (r *Recycler[T]) recompute(value float64) error {
	extent := r.opts.ElementExtent
	count := r.list.Len()
	value = clamp01(value)

	if count <= 0 {
		r.releaseAll()
		r.window = Window{ElementExtent: extent, Scroll: value}
		r.opts.Layout.SetPadding(0, 0)
		return nil
	}

	onScreen := math.Max(0, r.opts.Layout.ViewportExtent()) / extent
	// More than count on screen shows everything; this also absorbs Inf and overflow
	if math.IsNaN(onScreen) {
		onScreen = 0
	}
	onScreen = math.Min(onScreen, float64(count))
	maxStart := math.Max(0, float64(count)-onScreen)
	rawIndex := lerp(0, maxStart, 1-value)

	if r.opts.Snapping == SnapItems {
		rawIndex = math.Round(rawIndex)
		value = 1 - inverseLerp(0, maxStart, rawIndex)
	}
	// Keep the source in step so a later Refresh reuses this position
	r.opts.Scroll.SetValueWithoutNotify(value)

	start := int(math.Max(0, math.Floor(rawIndex)-1))
	end := int(math.Min(float64(count), math.Ceil(rawIndex+onScreen)+1))

	// Return everything leaving the window before asking for anything new
	r.toRemove = r.toRemove[:0]
	for index := range r.bound {
		if index < start || index >= end {
			r.toRemove = append(r.toRemove, index)
		}
	}
	sort.Ints(r.toRemove)
	for _, index := range r.toRemove {
		r.pool.Pool(r.prototype, r.bound[index])
		delete(r.bound, index)
	}

	var zero T
	var bindErr error
	r.ordered = r.ordered[:0]
	parent := r.opts.Layout.Container()
	for index := start; index < end; index++ {
		instance, ok := r.bound[index]
		if !ok {
			var err error
			instance, err = r.pool.GetAt(r.prototype, parent, pool.At(pool.Vec3{}, pool.SpaceSelf))
			if err != nil {
				bindErr = fmt.Errorf("bind index %d: %w", index, err)
				r.truncate(index)
				end = index
				break
			}
			r.bound[index] = instance
			if r.opts.Bind != nil {
				r.opts.Bind(index, instance)
			}
		}
		r.opts.Layout.SetOrder(instance, index-start)
		r.ordered = append(r.ordered, instance)
	}

	if r.opts.Navigate != nil {
		for i, instance := range r.ordered {
			prev, next := zero, zero
			if i > 0 {
				prev = r.ordered[i-1]
			}
			if i+1 < len(r.ordered) {
				next = r.ordered[i+1]
			}
			r.opts.Navigate(instance, prev, next)
		}
	}

	leading := float64(start) * extent
	trailing := float64(count-start-len(r.bound)) * extent
	r.opts.Layout.SetPadding(leading, trailing)

	r.window = Window{
		Start:         start,
		End:           end,
		RawIndex:      rawIndex,
		Scroll:        value,
		Leading:       leading,
		Trailing:      trailing,
		Count:         count,
		ElementExtent: extent,
	}

	r.logger.Debug("Window recomputed",
		zap.Int("start", start),
		zap.Int("end", end),
		zap.Float64("raw_index", rawIndex),
		zap.Int("count", count),
	)

	return bindErr
}

// truncate returns every bound instance at or past index, keeping the window contiguous
func (r *Recycler[T]) truncate(index int) {
	r.toRemove = r.toRemove[:0]
	for i := range r.bound {
		if i >= index {
			r.toRemove = append(r.toRemove, i)
		}
	}
	sort.Ints(r.toRemove)
	for _, i := range r.toRemove {
		r.pool.Pool(r.prototype, r.bound[i])
		delete(r.bound, i)
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*clamp01(t)
}

func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return clamp01((v - a) / (b - a))
}
