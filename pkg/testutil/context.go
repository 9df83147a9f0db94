package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
)

// NewTestContext creates a RuntimeContext suitable for testing
func NewTestContext(t *testing.T) *eos_io.RuntimeContext {
	t.Helper()
	return NewTestContextWith(t, context.Background())
}

// NewTestContextWith is NewTestContext over a caller-supplied context.
func NewTestContextWith(t *testing.T, ctx context.Context) *eos_io.RuntimeContext {
	t.Helper()
	_, span := noop.NewTracerProvider().Tracer("test").Start(ctx, t.Name())
	return &eos_io.RuntimeContext{
		Ctx:        ctx,
		Log:        zaptest.NewLogger(t),
		Span:       span,
		Timestamp:  time.Now(),
		Component:  "test",
		Command:    t.Name(),
		Attributes: make(map[string]string),
	}
}
