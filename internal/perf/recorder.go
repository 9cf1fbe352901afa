package perf

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/sdk/trace"
)

// maxRecordedSpans caps memory use when a long mod session is traced; later spans are counted, not kept.
const maxRecordedSpans = 4096

// recorder is the in-memory exporter behind --perf.
type recorder struct {
	mu      sync.Mutex
	limit   int
	spans   []trace.ReadOnlySpan
	dropped int
}

func newRecorder(limit int) *recorder {
	return &recorder{limit: limit}
}

func (r *recorder) ExportSpans(_ context.Context, spans []trace.ReadOnlySpan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.limit - len(r.spans)
	if room < 0 {
		room = 0
	}
	if len(spans) > room {
		r.dropped += len(spans) - room
		spans = spans[:room]
	}
	r.spans = append(r.spans, spans...)
	return nil
}

func (r *recorder) Shutdown(context.Context) error {
	return nil
}

func (r *recorder) Snapshot() []trace.ReadOnlySpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trace.ReadOnlySpan(nil), r.spans...)
}

func (r *recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
