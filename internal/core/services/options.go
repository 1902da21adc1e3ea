package services

import (
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// Option configures a service.
type Option func(*options)

type options struct {
	now     func() time.Time
	metrics driven.Metrics
	locks   *DestinationLocks
}

func newOptions(opts []Option) options {
	o := options{
		now:     time.Now,
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locks == nil {
		o.locks = NewDestinationLocks()
	}
	return o
}

// WithClock overrides the service clock (used for TTLs, ages and timestamps).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics records operational counters through m.
func WithMetrics(m driven.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLocks shares per-destination locks between services.
// Services constructed without it get a private set.
func WithLocks(l *DestinationLocks) Option {
	return func(o *options) {
		o.locks = l
	}
}

type noopMetrics struct{}

func (noopMetrics) ConsolidationCompleted(domain.ConsolidationStrategy, int, time.Duration) {}
func (noopMetrics) ConsolidationFailed(domain.ConsolidationStrategy) {}
func (noopMetrics) CacheLookup(string, bool) {}
func (noopMetrics) ExportCompleted(domain.ExportFormat, string) {}
func (noopMetrics) ReviewRouted(string) {}
