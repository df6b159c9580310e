package listview

import "math"

// ScrollBar is an in-memory ScrollSource that notifies listeners on change
type ScrollBar struct {
	value     float64
	listeners []func(float64)
}

// NewScrollBar creates a scroll bar at value, clamped to [0,1]
func NewScrollBar(value float64) *ScrollBar {
	return &ScrollBar{value: clamp01(value)}
}

func (s *ScrollBar) Value() float64 {
	return s.value
}

// SetValue moves the bar and notifies listeners if the value changed
func (s *ScrollBar) SetValue(value float64) {
	value = clamp01(value)
	if value == s.value {
		return
	}
	s.value = value
	for _, fn := range s.listeners {
		fn(value)
	}
}

func (s *ScrollBar) SetValueWithoutNotify(value float64) {
	s.value = clamp01(value)
}

// OnValueChanged registers fn to run after every notifying change
func (s *ScrollBar) OnValueChanged(fn func(float64)) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// RemoveAllListeners drops every registered listener
func (s *ScrollBar) RemoveAllListeners() {
	s.listeners = nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 1
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
