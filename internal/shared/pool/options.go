package pool

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultCapacity is the per-key ceiling used by TrimExcess until
// SetDefaultCapacity changes it
const DefaultCapacity = 20

type options struct {
	logger          *zap.Logger
	observer        Observer
	holding         any
	defaultCapacity int
	keyName         func(key any) string
}

// Option configures a KeyedPool or every pool created by a Registry
type Option func(*options)

// WithLogger sets the logger used for misuse diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the event sink for pool metrics
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithHoldingArea sets the parent idle instances are moved under
func WithHoldingArea(holding any) Option {
	return func(o *options) {
		o.holding = holding
	}
}

// WithDefaultCapacity sets the initial pool-wide capacity
func WithDefaultCapacity(capacity int) Option {
	return func(o *options) {
		if capacity >= 0 {
			o.defaultCapacity = capacity
		}
	}
}

// WithKeyNamer overrides how prototype keys are rendered in logs and stats
func WithKeyNamer(name func(key any) string) Option {
	return func(o *options) {
		if name != nil {
			o.keyName = name
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:          zap.NewNop(),
		observer:        nopObserver{},
		defaultCapacity: DefaultCapacity,
		keyName:         defaultKeyName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type named interface {
	Name() string
}

func defaultKeyName(key any) string {
	switch k := key.(type) {
	case named:
		return k.Name()
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprintf("%v", key)
	}
}
