package connectsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// AuthorizationURL asks the gateway for the provider authorization URL.
// userID and orgID are sent as form fields without validation.
func (c *Client) AuthorizationURL(ctx context.Context, userID, orgID string) (string, error) {
	form := url.Values{
		"user_id": {userID},
		"org_id":  {orgID},
	}

	resp, err := c.doRequest(ctx, OpAuthorize, http.MethodPost,
		c.url(c.IntegrationPath+"/authorize", nil),
		strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded",
	)
	if err != nil {
		return "", err
	}

	var out AuthorizeResponse
	if err := decodeJSON(OpAuthorize, resp, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// ListItems returns the CRM objects visible with the user's stored tokens.
// A response without an items field yields an empty, non-nil slice.
func (c *Client) ListItems(ctx context.Context, userID, orgID string) ([]Item, error) {
	q := url.Values{
		"user_id": {userID},
		"org_id":  {orgID},
	}

	resp, err := c.doRequest(ctx, OpItems, http.MethodGet, c.url(c.IntegrationPath+"/items", q), nil, "")
	if err != nil {
		return nil, err
	}

	var out ItemsResponse
	if err := decodeJSON(OpItems, resp, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []Item{}
	}
	return out.Items, nil
}

// ExchangeCode trades a one-time authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, userID string) (json.RawMessage, error) {
	q := url.Values{
		"code":    {code},
		"user_id": {userID},
	}

	resp, err := c.doRequest(ctx, OpExchange, http.MethodGet, c.url("/oauth2callback", q), nil, "")
	if err != nil {
		return nil, err
	}

	var out TokensResponse
	if err := decodeJSON(OpExchange, resp, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}
