package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"guardian/internal/platform/config"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	for _, cfg := range []config.OTELConfig{
		{Enabled: true},
		{Enabled: false, Endpoint: "http://collector:4318"},
	} {
		shutdown, err := Setup(context.Background(), cfg)
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	}
}
