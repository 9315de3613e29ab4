package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracing(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(&buf, "v1.2.3", nil)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "pipeline.process")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name": "pipeline.process"`)
	assert.Contains(t, out, "notequiz")
	assert.Contains(t, out, "v1.2.3")
}
