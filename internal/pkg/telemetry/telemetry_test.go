package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNewResource(t *testing.T) {
	t.Run("should include the service name attribute", func(t *testing.T) {
		res, err := newResource("txverify")
		require.NoError(t, err)
		require.NotNil(t, res)

		found := false
		for _, attr := range res.Attributes() {
			if attr.Key == semconv.ServiceNameKey {
				found = true
				assert.Equal(t, "txverify", attr.Value.AsString())
			}
		}
		assert.True(t, found, "resource should carry the service.name attribute")
	})
}
