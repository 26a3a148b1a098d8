package usecase

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/clause-watch/internal/platform/tracing"
)

var usecaseSpans = tracing.NewScope("clause-watch/internal/usecase", nil)

func startUsecaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return usecaseSpans.Start(ctx, name)
}
