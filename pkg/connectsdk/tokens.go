package connectsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SaveTokens stores tokens for userID, replacing any previous blob.
func (c *Client) SaveTokens(ctx context.Context, userID string, tokens json.RawMessage) error {
	if !json.Valid(tokens) {
		return fmt.Errorf("connectsdk: %s: tokens are not valid JSON", OpSaveTokens)
	}
	body, err := json.Marshal(SaveTokensRequest{UserID: userID, Tokens: tokens})
	if err != nil {
		return fmt.Errorf("connectsdk: encode %s request: %w", OpSaveTokens, err)
	}

	resp, err := c.doRequest(ctx, OpSaveTokens, http.MethodPost, c.url("/save_tokens", nil),
		bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}

	return decodeJSON(OpSaveTokens, resp, nil)
}

// GetTokens returns the stored token blob for userID.
func (c *Client) GetTokens(ctx context.Context, userID string) (json.RawMessage, error) {
	q := url.Values{"user_id": {userID}}

	resp, err := c.doRequest(ctx, OpGetTokens, http.MethodGet, c.url("/get_tokens", q), nil, "")
	if err != nil {
		return nil, err
	}

	var out TokensResponse
	if err := decodeJSON(OpGetTokens, resp, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}
