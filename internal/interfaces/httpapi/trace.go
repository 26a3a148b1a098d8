package httpapi

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/clause-watch/internal/platform/tracing"
)

// Middleware and response helpers run on every request; only handlers get spans.
var apiSpans = tracing.NewScope("clause-watch/internal/interfaces/httpapi", tracing.HasPrefix("httpapi.Handler."))

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return apiSpans.Start(ctx, name)
}
