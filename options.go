package evstore

import (
	"log/slog"

	"github.com/AnatoleLucet/evstore/internal"
	"github.com/prometheus/client_golang/prometheus"
)

// IDGenerator produces the signal names of events and stores.
type IDGenerator = internal.IDGenerator

// UUIDv7Generator is the default IDGenerator.
type UUIDv7Generator = internal.UUIDv7Generator

// RuntimeOption configures a runtime created with NewRuntime.
type RuntimeOption func(*internal.Config)

// WithLogger sets the logger used for debug records. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(c *internal.Config) {
		c.Logger = logger
	}
}

// WithIDGenerator replaces the UUIDv7 signal name generator.
// The generator must never return the same name twice.
func WithIDGenerator(ids IDGenerator) RuntimeOption {
	return func(c *internal.Config) {
		c.IDs = ids
	}
}

// WithRegisterer enables prometheus metrics on the given registerer.
func WithRegisterer(reg prometheus.Registerer) RuntimeOption {
	return func(c *internal.Config) {
		c.Registerer = reg
	}
}

// WithNamespace sets the metrics namespace (default: "evstore").
func WithNamespace(namespace string) RuntimeOption {
	return func(c *internal.Config) {
		c.Namespace = namespace
	}
}

// Option configures an event or a store.
type Option func(*options)

type options struct {
	runtime *internal.Runtime
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.runtime == nil {
		o.runtime = internal.GetRuntime()
	}

	return o
}

// WithRuntime creates the event or store on r instead of the default runtime.
func WithRuntime(r *Runtime) Option {
	return func(o *options) {
		if r != nil {
			o.runtime = r.runtime
		}
	}
}
