// Package telemetry collects hierarchical timings of a plugin run.
//
// A Collector travels in the context, so loading, every plugin and every manipulator
// stage can be timed without threading an extra argument. When no collector was
// installed, FromContext hands out a collector that records nothing.
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.FromContext(ctx).Start("plugin entry_manipulation")
//	defer timer.End()
//
//	collector.Report(os.Stderr, telemetry.NewStyles(true))
package telemetry

import (
	"context"
	"io"
)

type contextKey struct{}

var collectorKey = contextKey{}

// Collector records timers and reports them.
type Collector interface {
	// Start begins timing an operation nested under the innermost running timer.
	Start(name string) Timer

	// Report writes the collected timings to w. A nil styles prints plain text.
	Report(w io.Writer, styles *Styles)
}

// Timer tracks a single operation.
type Timer interface {
	End()

	// Child creates a timer nested under this one.
	Child(name string) Timer
}

// WithCollector returns a context carrying collector.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext returns the collector carried by ctx, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}
