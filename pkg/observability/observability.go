/*
Package observability instruments the orchestration loop with OpenTelemetry
tracing and metrics. Everything is safe without an installed SDK: the
global no-op providers absorb all calls.
*/
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scope = "github.com/cartograph/cartograph/pkg/orchestrator"

// Instruments bundles the counters the loop reports into.
type Instruments struct {
	tracer     trace.Tracer
	iterations metric.Int64Counter
	toolCalls  metric.Int64Counter
	retries    metric.Int64Counter
}

// New builds instruments against the global otel providers.
func New() *Instruments {
	meter := otel.Meter(scope)

	iterations, _ := meter.Int64Counter("orchestrator.iterations",
		metric.WithDescription("Model invocations performed"))
	toolCalls, _ := meter.Int64Counter("orchestrator.tool_calls",
		metric.WithDescription("Tool calls requested by the model"))
	retries, _ := meter.Int64Counter("orchestrator.retries",
		metric.WithDescription("Upstream retries after transient failures"))

	return &Instruments{
		tracer:     otel.Tracer(scope),
		iterations: iterations,
		toolCalls:  toolCalls,
		retries:    retries,
	}
}

// StartRun opens the per-request span. The returned context carries it.
func (ins *Instruments) StartRun(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	if ins == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return ins.tracer.Start(ctx, "orchestrator.run",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
}

func (ins *Instruments) CountIteration(ctx context.Context) {
	if ins == nil {
		return
	}
	ins.iterations.Add(ctx, 1)
}

func (ins *Instruments) CountToolCall(ctx context.Context, name string, side string) {
	if ins == nil {
		return
	}
	ins.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.side", side),
	))
}

func (ins *Instruments) CountRetry(ctx context.Context) {
	if ins == nil {
		return
	}
	ins.retries.Add(ctx, 1)
}
