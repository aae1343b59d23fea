package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Tool call outcomes recorded with each metric point.
const (
	ToolCallOutcomeSuccess = "success"
	ToolCallOutcomeError   = "error"
)

// CustomMetrics records winbridge-specific measurements. The dispatcher
// records one point per tool call regardless of outcome.
type CustomMetrics interface {
	RecordToolCall(ctx context.Context, tool, action, outcome string, elapsed time.Duration)
}

type noopCustomMetrics struct{}

// NewNoopCustomMetrics returns a CustomMetrics that discards everything.
// It is the default when telemetry is disabled.
func NewNoopCustomMetrics() CustomMetrics {
	return noopCustomMetrics{}
}

func (noopCustomMetrics) RecordToolCall(context.Context, string, string, string, time.Duration) {}

type otelCustomMetrics struct {
	toolCalls        metric.Int64Counter
	toolCallDuration metric.Float64Histogram
}

// NewOtelCustomMetrics creates the real CustomMetrics implementation backed
// by OpenTelemetry instruments.
func NewOtelCustomMetrics(meter metric.Meter) (CustomMetrics, error) {
	toolCalls, err := meter.Int64Counter(
		"winbridge.tool.calls",
		metric.WithDescription("Total number of tool calls dispatched"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool call counter: %w", err)
	}

	toolCallDuration, err := meter.Float64Histogram(
		"winbridge.tool.call.duration",
		metric.WithDescription("Duration of tool calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool call duration histogram: %w", err)
	}

	return &otelCustomMetrics{
		toolCalls:        toolCalls,
		toolCallDuration: toolCallDuration,
	}, nil
}

func (m *otelCustomMetrics) RecordToolCall(
	ctx context.Context, tool, action, outcome string, elapsed time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	)
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolCallDuration.Record(ctx, elapsed.Seconds(), attrs)
}
