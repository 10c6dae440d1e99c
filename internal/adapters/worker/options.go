// Package worker runs independent grading jobs on a bounded pool of
// goroutines.
package worker

import (
	"github.com/okian/gradecurve/pkg/logger"
	"github.com/okian/gradecurve/pkg/metrics"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers bounds how many jobs run at once.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithName sets the pool name for identification and logging.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Pool) {
		if m != nil {
			p.meter = m
		}
	}
}
