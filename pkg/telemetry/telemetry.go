// pkg/telemetry/telemetry.go
package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Options controls whether spans are exported and where to.
type Options struct {
	Enabled bool
	// Path of the JSONL span file; defaults to the XDG state dir.
	Path string
}

var (
	mu       sync.Mutex
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	enabled  bool

	bytesOnce    sync.Once
	bytesCounter metric.Int64Counter
)

// Init configures OpenTelemetry; call this early in main().
func Init(service string, opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if !opts.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(service)
		enabled = false
		return nil
	}

	path := opts.Path
	if path == "" {
		path = shared.StatePath("telemetry.jsonl")
	}
	if err := os.MkdirAll(filepath.Dir(path), shared.FilePermOwnerRWX); err != nil {
		return cerr.Wrap(err, "failed to create telemetry directory")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, shared.FilePermOwnerReadWrite)
	if err != nil {
		return cerr.Wrap(err, "failed to open telemetry file")
	}

	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(file),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		_ = file.Close()
		return cerr.Wrap(err, "failed to create file exporter")
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(
			sdkresource.NewWithAttributes(
				semconv.SchemaURL,
				attribute.String("service.name", service),
				attribute.String("service.version", shared.Version),
				attribute.String("host.name", hostname()),
			),
		),
	)

	otel.SetTracerProvider(provider)
	tracer = provider.Tracer(service)
	enabled = true
	return nil
}

// Shutdown flushes pending spans. Safe to call when telemetry is disabled.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// IsEnabled reports whether spans are being exported.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Start a telemetry span with optional attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	mu.Lock()
	t := tracer
	mu.Unlock()
	if t == nil {
		t = otel.Tracer(shared.AppID)
	}
	return t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordOverwrite counts bytes written by a completed overwrite.
func RecordOverwrite(ctx context.Context, identifier string, bytesWritten int64, passes int) {
	bytesOnce.Do(func() {
		c, err := otel.Meter(shared.AppID).Int64Counter(
			"sanitizer.bytes_overwritten",
			metric.WithDescription("Bytes written by completed overwrite passes"),
			metric.WithUnit("By"),
		)
		if err == nil {
			bytesCounter = c
		}
	})
	if bytesCounter == nil {
		return
	}
	bytesCounter.Add(ctx, bytesWritten, metric.WithAttributes(
		attribute.String("volume", identifier),
		attribute.Int("passes", passes),
	))
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
