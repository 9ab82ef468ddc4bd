package otelx_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/crmconnect/pkg/otelx"
	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otelx.Setup(context.Background(), "", "test-service", "dev")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx), "noop shutdown should ignore a cancelled context")
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address; no spans are recorded so nothing is exported.
	shutdown, err := otelx.Setup(context.Background(), "http://192.0.2.1:4318", "test-service", "dev")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
