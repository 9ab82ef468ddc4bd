package connectsdk

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the error envelope written by the gateway.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Item is a CRM object as returned by the provider's CRM v3 API.
type Item struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"createdAt,omitzero"`
	UpdatedAt  time.Time      `json:"updatedAt,omitzero"`
	Archived   bool           `json:"archived"`
}

// AuthorizeResponse is returned by POST {IntegrationPath}/authorize.
type AuthorizeResponse struct {
	URL string `json:"url"`
}

// ItemsResponse is returned by GET {IntegrationPath}/items.
type ItemsResponse struct {
	Items []Item `json:"items"`
}

// TokensResponse carries an opaque token blob. Returned by the callback
// and get_tokens routes.
type TokensResponse struct {
	Tokens json.RawMessage `json:"tokens"`
}

// SaveTokensRequest is the body of POST /save_tokens.
type SaveTokensRequest struct {
	UserID string          `json:"user_id"`
	OrgID  string          `json:"org_id,omitempty"`
	Tokens json.RawMessage `json:"tokens"`
}

// StatusResponse is a bare acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports dependency status on /readyz.
type HealthChecks struct {
	Database string `json:"database"`
}
