package tessellate

import "log/slog"

// DefaultTessFactor is the number of segments per patch edge used when
// WithTessFactor is not given.
const DefaultTessFactor = 4

// Option configures a Tessellate call.
type Option func(*options)

type options struct {
	tessFactor int
	workers    int
	logger     *slog.Logger
	name       string
}

func defaultOptions() options {
	return options{
		tessFactor: DefaultTessFactor,
		workers:    0, // GOMAXPROCS
		logger:     nil,
		name:       "limit",
	}
}

// WithTessFactor sets the number of segments along each patch edge. Each
// patch produces (n+1)² vertices and 2n² triangles.
func WithTessFactor(n int) Option {
	return func(o *options) {
		o.tessFactor = n
	}
}

// WithWorkers sets the number of goroutines evaluating patches. Zero or
// negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger overrides the package logger for one call.
//
// Example:
//
//	mesh, err := tessellate.Tessellate(tbl, src,
//	    tessellate.WithLogger(slog.Default()))
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithName sets the PartName of the produced mesh.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
