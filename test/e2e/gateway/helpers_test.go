package gateway_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and shared assertions for the gateway end-to-end tests.
 */

const (
	testImageName = "crmconnect-gateway-test:latest"

	testClientID    = "e2e-client"
	testRedirectURI = "http://localhost:8000/integrations/hubspot/oauth2callback"

	// Nothing listens here, so provider calls fail fast and deterministically.
	unreachableProvider = "http://127.0.0.1:1"
)

// TestMain builds the image once for all tests and removes it afterwards.
// Without a Docker daemon the suite is skipped.
func TestMain(m *testing.M) {
	if err := exec.Command("docker", "info").Run(); err != nil {
		fmt.Fprintf(os.Stdout, "Docker unavailable, skipping gateway e2e tests: %v\n", err)
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Gateway Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Gateway Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/gateway/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run()
}

// gatewayEnv is the container environment. Rate limits are raised unless
// defaultLimits is set.
func gatewayEnv(defaultLimits bool) map[string]string {
	env := map[string]string{
		"ENV":                   "test",
		"LOG_LEVEL":             "info",
		"LOG_FORMAT":            "json",
		"HUBSPOT_CLIENT_ID":     testClientID,
		"HUBSPOT_CLIENT_SECRET": "e2e-secret",
		"HUBSPOT_REDIRECT_URI":  testRedirectURI,
		"HUBSPOT_SCOPES":        "crm.objects.contacts.read",
		"HUBSPOT_TOKEN_URL":     unreachableProvider + "/oauth/v1/token",
		"HUBSPOT_API_BASE_URL":  unreachableProvider,
	}
	if !defaultLimits {
		for _, tier := range []string{"TOKEN", "STANDARD"} {
			env["RATELIMIT_"+tier+"_REQUESTS"] = "1000"
			env["RATELIMIT_"+tier+"_BURST"] = "1000"
		}
	}
	return env
}

func startGateway(t *testing.T, defaultLimits bool) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8000/tcp"},
		Env:          gatewayEnv(defaultLimits),
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8000/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8000")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// setupGateway starts a gateway with relaxed rate limits.
func setupGateway(t *testing.T) (string, func()) {
	return startGateway(t, false)
}

// setupGatewayWithDefaultRateLimits is for tests that exercise the limits.
func setupGatewayWithDefaultRateLimits(t *testing.T) (string, func()) {
	return startGateway(t, true)
}

// assertBackendError checks err is a *connectsdk.BackendError with the
// given status and code.
func assertBackendError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)

	var be *connectsdk.BackendError
	require.True(t, errors.As(err, &be), "expected BackendError, got %T: %v", err, err)
	require.Equal(t, status, be.StatusCode)
	require.Equal(t, code, be.Code)
}

func assertHealthy(t *testing.T, health *connectsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
