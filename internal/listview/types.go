package listview

import "errors"

var (
	// ErrInvalidExtent is returned when the element extent is not positive
	ErrInvalidExtent = errors.New("element extent must be positive")

	// ErrNoPool is returned when a recycler is built without a pool
	ErrNoPool = errors.New("instance pool is nil")

	// ErrNoLayout is returned when a recycler is built without a layout
	ErrNoLayout = errors.New("layout is nil")
)

// SnapMode selects whether scrolling snaps to whole items
type SnapMode int

const (
	SnapNone SnapMode = iota
	SnapItems
)

// String returns the string representation of the snap mode
func (m SnapMode) String() string {
	switch m {
	case SnapNone:
		return "none"
	case SnapItems:
		return "items"
	default:
		return "unknown"
	}
}

// ParseSnapMode maps "none"/"items" (or a bool-ish flag) to a SnapMode
func ParseSnapMode(s string) (SnapMode, error) {
	switch s {
	case "", "none", "false", "off":
		return SnapNone, nil
	case "items", "snapped", "true", "on":
		return SnapItems, nil
	default:
		return SnapNone, errors.New("unknown snap mode: " + s)
	}
}

// State is the binding state of a recycler
type State int

const (
	StateUnbound State = iota
	StateBound
)

// String returns the string representation of the state
func (s State) String() string {
	if s == StateBound {
		return "bound"
	}
	return "unbound"
}

// List is the logical sequence a recycler windows over. Only its length
// matters; item data is reached through the bind callback.
type List interface {
	Len() int
}

// Count is a List of n items
type Count int

func (c Count) Len() int { return int(c) }

// Slice adapts a slice to List
type Slice[E any] []E

func (s Slice[E]) Len() int { return len(s) }

// ScrollSource is the scroll control. Value is normalized to [0,1] with
// 1 at the top of the list (index 0) and 0 at the bottom.
type ScrollSource interface {
	Value() float64
	SetValueWithoutNotify(value float64)
}

// Layout is the host container the window is materialized into
type Layout[T any] interface {
	// ViewportExtent is the visible height
	ViewportExtent() float64
	// Container is the parent passed to the pool for bound instances
	Container() any
	// SetOrder places instance at ordinal among the bound rows
	SetOrder(instance T, ordinal int)
	// SetPadding sizes the placeholders before and after the bound rows
	SetPadding(leading, trailing float64)
}

// BindFunc fills instance with the item at index. It runs each time index
// enters the window, so it must be safe to repeat.
type BindFunc[T any] func(index int, instance T)

// NavigateFunc links instance to its bound neighbours. prev and next are the
// zero value at the ends of the window.
type NavigateFunc[T any] func(instance, prev, next T)

// Window is the result of the last recompute
type Window struct {
	Start         int     `msgpack:"start"`
	End           int     `msgpack:"end"`
	RawIndex      float64 `msgpack:"raw_index"`
	Scroll        float64 `msgpack:"scroll"`
	Leading       float64 `msgpack:"leading"`
	Trailing      float64 `msgpack:"trailing"`
	Count         int     `msgpack:"count"`
	ElementExtent float64 `msgpack:"element_extent"`
}

// Len returns the number of bound indices
func (w Window) Len() int {
	return w.End - w.Start
}

// Contains reports whether index is bound
func (w Window) Contains(index int) bool {
	return index >= w.Start && index < w.End
}

// TotalExtent is the height of the whole logical list
func (w Window) TotalExtent() float64 {
	return w.ElementExtent * float64(w.Count)
}
