package perf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestRecorderStopsAtLimit(t *testing.T) {
	r := newRecorder(2)
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(r))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tracer := provider.Tracer("test")
	for _, name := range []string{"a", "b", "c"} {
		_, span := tracer.Start(context.Background(), name)
		span.End()
	}

	spans := r.Snapshot()
	require.Len(t, spans, 2)
	assert.Equal(t, "a", spans[0].Name())
	assert.Equal(t, "b", spans[1].Name())
	assert.Equal(t, 1, r.Dropped())
}

func TestDroppedSpansReportsZeroWhenDisabled(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	assert.Equal(t, 0, DroppedSpans())
}
