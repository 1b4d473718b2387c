package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Date(2016, 5, 31, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestFromContextReturnsNoOpWhenMissing(t *testing.T) {
	collector := FromContext(context.Background())
	_, ok := collector.(noOpCollector)
	assert.True(t, ok)

	timer := collector.Start("anything")
	timer.Child("child").End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}

func TestWithCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	retrieved, ok := FromContext(ctx).(*TimingCollector)
	assert.True(t, ok)
	assert.True(t, retrieved == collector)
}

func TestTimingCollectorNestsRunningTimers(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(10 * time.Millisecond)

	apply := collector.Start("apply")
	load := collector.Start("load")
	load.End()
	plugin := collector.Start("plugin entry_manipulation")
	stage := plugin.Child("posting-spreader")
	stage.End()
	plugin.End()
	apply.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	expected := `apply: 70ms
├─ load: 10ms
└─ plugin entry_manipulation: 30ms
   └─ posting-spreader: 10ms
`
	assert.Equal(t, expected, buf.String())
}

func TestTimingCollectorSeparateRoots(t *testing.T) {
	collector := NewTimingCollector()
	collector.now = fakeClock(time.Millisecond)

	collector.Start("first").End()
	collector.Start("second").End()

	var buf bytes.Buffer
	collector.Report(&buf, NewStyles(false))
	assert.Equal(t, "first: 1ms\nsecond: 1ms\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0ms"},
		{45 * time.Millisecond, "45ms"},
		{999 * time.Millisecond, "999ms"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.duration))
		})
	}
}

func TestTimingCollectorEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}
