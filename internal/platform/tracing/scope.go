package tracing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var noopSpan = trace.SpanFromContext(context.Background())

// Scope starts spans on behalf of one package. It never opens a root span:
// without a sampled parent in ctx (health checks, CLI runs without tracing)
// Start returns ctx unchanged and a no-op span.
type Scope struct {
	instrumentation string
	accept          func(name string) bool
}

// NewScope returns a Scope named after the instrumenting package. accept may be
// nil to allow every non-empty span name.
func NewScope(instrumentation string, accept func(name string) bool) Scope {
	return Scope{instrumentation: instrumentation, accept: accept}
}

func (s Scope) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, noopSpan
	}
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noopSpan
	}
	if s.accept != nil && !s.accept(name) {
		return ctx, noopSpan
	}
	return otel.Tracer(s.instrumentation).Start(ctx, name, opts...)
}

// HasPrefix accepts span names starting with any of prefixes.
func HasPrefix(prefixes ...string) func(string) bool {
	return func(name string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		return false
	}
}
