package connectsdk

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultIntegrationPath is where the gateway mounts the HubSpot routes.
const DefaultIntegrationPath = "/integrations/hubspot"

// Client talks to the integration gateway.
type Client struct {
	BaseURL string

	// IntegrationPath prefixes the authorize and items routes. The token
	// routes (oauth2callback, save_tokens, get_tokens) live at the root.
	IntegrationPath string

	HTTPClient *http.Client
}

// NewClient creates a gateway client with a 10 second timeout and a traced
// transport.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		IntegrationPath: DefaultIntegrationPath,
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}
