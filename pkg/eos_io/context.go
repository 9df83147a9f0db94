// pkg/eos_io/context.go

package eos_io

import (
	"context"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Timestamp  time.Time
	Span       trace.Span
	Command    string
	Component  string
	Attributes map[string]string
}

// NewContext sets up tracing and a scoped logger for one command invocation.
func NewContext(parent context.Context, cmdName string) *RuntimeContext {
	if parent == nil {
		parent = context.Background()
	}
	ctx, span := telemetry.Start(parent, cmdName)
	traceID := span.SpanContext().TraceID().String()

	comp, action := resolveCallContext(2)
	logger := zap.L().With(
		zap.String("component", comp),
		zap.String("action", action),
		zap.String("trace_id", traceID),
	).Named(comp)

	return &RuntimeContext{
		Ctx:        ctx,
		Span:       span,
		Log:        logger,
		Timestamp:  time.Now(),
		Component:  comp,
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// HandlePanic recovers panics, logs them, and converts to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = eos_err.NewPanicError(r)
		rc.Log.Error("panic recovered", zap.Any("panic", r))
	}
}

// End logs outcome, annotates the command span with key attributes, and ends it.
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.Span.End()

	var err error
	if errPtr != nil {
		err = *errPtr
	}
	duration := time.Since(rc.Timestamp)
	success := err == nil

	switch {
	case success:
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
	case eos_err.IsExpectedUserError(err):
		rc.Log.Warn("Command refused", zap.Duration("duration", duration), zap.Error(err))
	default:
		rc.Log.Error("Command failed", zap.Duration("duration", duration), zap.Error(err))
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("os", runtime.GOOS),
		attribute.String("version", shared.Version),
		attribute.String("error_type", classifyError(err)),
	}
	for k, v := range rc.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	rc.Span.SetAttributes(attrs...)
	if !success {
		rc.Span.RecordError(err)
		rc.Span.SetStatus(codes.Error, eos_err.KindName(err))
	}
}

// LogRuntimeExecutionContext records who is running the command; destructive
// operations usually need elevated privileges, so uid/euid are worth having.
func LogRuntimeExecutionContext(rc *RuntimeContext) {
	fields := []zap.Field{
		zap.Int("real_uid", os.Getuid()),
		zap.Int("effective_uid", os.Geteuid()),
	}
	if u, err := user.Current(); err == nil {
		fields = append(fields, zap.String("username", u.Username), zap.String("home", u.HomeDir))
	} else {
		rc.Log.Debug("Failed to get current user", zap.Error(err))
	}
	if exe, err := os.Executable(); err == nil {
		fields = append(fields, zap.String("executable", exe))
	}
	rc.Log.Debug("Execution context", fields...)
}

func resolveCallContext(skip int) (component, action string) {
	pc, file, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", "unknown"
	}
	parts := strings.Split(file, "/")
	component = "unknown"
	if len(parts) >= 2 {
		component = parts[len(parts)-2]
	}
	action = "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		fields := strings.Split(fn.Name(), ".")
		action = fields[len(fields)-1]
	}
	return component, action
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if eos_err.IsExpectedUserError(err) {
		return "user"
	}
	return "system"
}
