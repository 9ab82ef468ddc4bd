package connectsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// url builds a complete URL from the base, a path and optional query.
func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doRequest sends a request and wraps transport failures in *NetworkError.
func (c *Client) doRequest(
	ctx context.Context,
	op, method, rawURL string,
	body io.Reader,
	contentType string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	return resp, nil
}

// decodeJSON reads resp and decodes a 2xx body into target. Anything else
// becomes a *BackendError. target may be nil when the body is ignored.
func decodeJSON(op string, resp *http.Response, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(op, resp.StatusCode, body)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &BackendError{
			Op:          op,
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeInvalidResponse,
			Description: fmt.Sprintf("failed to decode response: %v", err),
		}
	}

	return nil
}
