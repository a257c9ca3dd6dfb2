package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanRecordsAttributes(t *testing.T) {
	o := &Observability{}
	recorder := tracetest.NewSpanRecorder()
	o.useTracerProvider("loan-eligibility-test", sdktrace.WithSpanProcessor(recorder))
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "evaluate", attribute.String("field_order_version", "v1"))
	require.NotNil(t, ctx)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "evaluate", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("field_order_version", "v1"))
}

func TestRecordersTolerateMissingInstruments(t *testing.T) {
	o := &Observability{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "eligibility.evaluate", "completed")
		o.RecordJobDuration(ctx, "eligibility.evaluate", time.Millisecond, "completed")
		o.RecordVerdict(ctx, "Approved", "v1")
		o.Shutdown()
	})
}
