package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func TestTraceQuery_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "ListVariants", "SELECT id FROM product_variants")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "db.ListVariants", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)

	attrs := make(map[string]string)
	for _, a := range span.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "ListVariants", attrs["db.operation"])
	assert.Equal(t, "SELECT id FROM product_variants", attrs["db.statement"])
}

func TestTraceQuery_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "ReplaceVariants", "DELETE FROM product_variants")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)
}

func TestTraceQuery_ChildOfParentSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	_, end := TraceQuery(ctx, "DeleteVariants", "DELETE FROM product_variants")
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	t.Run("slow query is logged with error", func(t *testing.T) {
		var buf bytes.Buffer
		SetSlowQueryLogging(time.Nanosecond, slog.New(slog.NewJSONHandler(&buf, nil)))

		_, end := TraceQuery(context.Background(), "SlowInsert", "INSERT INTO t VALUES ($1)")
		end(errors.New("unique constraint violation"))

		out := buf.String()
		assert.Contains(t, out, "slow query detected")
		assert.Contains(t, out, "SlowInsert")
		assert.Contains(t, out, "unique constraint violation")
	})

	t.Run("fast query is not logged", func(t *testing.T) {
		var buf bytes.Buffer
		SetSlowQueryLogging(time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))

		_, end := TraceQuery(context.Background(), "FastSelect", "SELECT 1")
		end(nil)

		assert.Empty(t, buf.String())
	})

	t.Run("disabled with nil logger", func(t *testing.T) {
		SetSlowQueryLogging(time.Nanosecond, nil)
		_, end := TraceQuery(context.Background(), "AnyOp", "SELECT 1")
		assert.NotPanics(t, func() { end(nil) })
	})
}
