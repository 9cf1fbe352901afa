// Package perf records OpenTelemetry spans around commands and I/O so a run can be inspected with --perf.
package perf

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/meza/entwine"

type Config struct {
	Enabled bool
}

type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
}

func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(config *spanConfig) {
		config.attributes = append(config.attributes, attrs...)
	}
}

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
	exporter *recorder
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer(tracerName)
)

var ErrNotInitialised = errors.New("perf tracing is not enabled")

// Init swaps in a recording tracer. Calling it again replaces the previous provider.
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if provider != nil {
		if err := provider.Shutdown(context.Background()); err != nil {
			return err
		}
		provider = nil
		exporter = nil
	}

	if !config.Enabled {
		tracer = noop.NewTracerProvider().Tracer(tracerName)
		return nil
	}

	exporter = newRecorder(maxRecordedSpans)
	provider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer = provider.Tracer(tracerName)
	return nil
}

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return provider != nil
}

func StartSpan(ctx context.Context, name string, options ...SpanOption) (context.Context, trace.Span) {
	config := spanConfig{}
	for _, option := range options {
		option(&config)
	}

	mu.Lock()
	current := tracer
	mu.Unlock()

	if len(config.attributes) == 0 {
		return current.Start(ctx, name)
	}
	return current.Start(ctx, name, trace.WithAttributes(config.attributes...))
}

func SnapshotSpans() ([]sdktrace.ReadOnlySpan, error) {
	mu.Lock()
	defer mu.Unlock()

	if exporter == nil {
		return nil, ErrNotInitialised
	}
	return exporter.Snapshot(), nil
}

// DroppedSpans counts spans that ended after the recording limit was reached.
func DroppedSpans() int {
	mu.Lock()
	defer mu.Unlock()

	if exporter == nil {
		return 0
	}
	return exporter.Dropped()
}

// Reset drops recorded spans and returns to the no-op tracer.
func Reset() {
	_ = Init(Config{Enabled: false})
}
