package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextWithoutLogger(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotZero(t, logger)
	logger.Warn("dropped")
}

func TestWithLogger(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	FromContext(ctx).Warn("source posting has no matching targets", zap.String("account", "Expenses:Discount"))

	entries := observed.All()
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "source posting has no matching targets", entries[0].Message)
	assert.Equal(t, "Expenses:Discount", entries[0].ContextMap()["account"])
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{"quiet", false, "WARN\twarn line\n"},
		{"verbose", true, "DEBUG\tdebug line\nWARN\twarn line\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.verbose)

			logger.Debug("debug line")
			logger.Warn("warn line")
			assert.NoError(t, logger.Sync())

			assert.Equal(t, tt.want, buf.String())
		})
	}
}
