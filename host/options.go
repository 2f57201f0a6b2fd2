package host

import (
	"github.com/prometheus/client_golang/prometheus"
)

// options configures a Host.
type options struct {
	metrics *prometheus.Registry
}

// Option configures how we set up the host.
// Cribbed from https://github.com/grpc/grpc-go/blob/aff571cc86e6e7e740130dbbb32a9741558db805/dialoptions.go#L41
type Option interface {
	apply(*options)
}

// funcOption wraps a function that modifies options into an
// implementation of the Option interface.
type funcOption struct {
	f func(*options)
}

func (fdo *funcOption) apply(do *options) {
	fdo.f(do)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithMetricsRegistry returns an Option which registers the host's poll metrics with reg
// instead of a private registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return newFuncOption(func(o *options) {
		o.metrics = reg
	})
}
