package connectsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/crmconnect/pkg/httpx"
)

// Error codes used in the gateway's {"error", "error_description"} envelope.
const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeInvalidGrant    = "invalid_grant"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeUpstream        = "upstream_error"
	ErrorCodeServerError     = "server_error"
	ErrorCodeInvalidResponse = "invalid_response"
)

// Operation names carried by NetworkError and BackendError.
const (
	OpAuthorize  = "authorize"
	OpItems      = "items"
	OpExchange   = "oauth2callback"
	OpSaveTokens = "save_tokens"
	OpGetTokens  = "get_tokens"
	OpHealth     = "health"
)

// NetworkError means no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("connectsdk: %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError is a non-2xx or undecodable response from the gateway.
type BackendError struct {
	Op          string
	StatusCode  int
	Code        string
	Description string
}

func (e *BackendError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("connectsdk: %s: HTTP %d %s", e.Op, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("connectsdk: %s: HTTP %d %s: %s", e.Op, e.StatusCode, e.Code, e.Description)
}

// parseErrorResponse turns an error body into a *BackendError, falling back
// to the status text when the body is not the JSON envelope.
func parseErrorResponse(op string, status int, body []byte) error {
	var env ErrorResponse
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return &BackendError{
			Op:          op,
			StatusCode:  status,
			Code:        env.Error,
			Description: env.ErrorDescription,
		}
	}

	// FastAPI-style {"detail": "..."} bodies.
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return &BackendError{
			Op:          op,
			StatusCode:  status,
			Code:        codeForStatus(status),
			Description: detail.Detail,
		}
	}

	return &BackendError{
		Op:          op,
		StatusCode:  status,
		Code:        codeForStatus(status),
		Description: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrorCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case http.StatusNotFound:
		return ErrorCodeNotFound
	default:
		return ErrorCodeServerError
	}
}

// APIError is the error the gateway writes to the wire. Handlers use the
// predefined values below or NewAPIError.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as the JSON error envelope.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrMissingCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "missing authorization code",
	}

	ErrExchangeFailed = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidGrant,
		Description: "failed to exchange token",
	}

	ErrNotConnected = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "no access token found",
	}

	ErrFetchItems = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUpstream,
		Description: "failed to fetch items",
	}

	ErrTokensNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "no tokens stored for user",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)
