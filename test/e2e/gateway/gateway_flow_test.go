package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/crmconnect/internal/connector"
	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/stretchr/testify/require"
)

// TestAuthorizeURL checks the gateway builds a provider URL carrying the
// configured client, scopes and the user as state.
func TestAuthorizeURL(t *testing.T) {
	baseURL, cleanup := setupGateway(t)
	defer cleanup()

	var navigated []string
	conn := connector.New(connector.Config{
		Backend: connectsdk.NewClient(baseURL),
		Navigator: connector.NavigatorFunc(func(u string) error {
			navigated = append(navigated, u)
			return nil
		}),
	})

	authURL, err := conn.RequestAuthorization(t.Context(), "user-1", "org-1")
	require.NoError(t, err)
	require.Equal(t, []string{authURL}, navigated)
	require.Equal(t, connector.StateURLRequested, conn.View().State)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	require.Equal(t, "crm.objects.contacts.read", q.Get("scope"))
	require.Equal(t, "user-1", q.Get("state"))

	_, err = conn.RequestAuthorization(t.Context(), "user-1", "")
	assertBackendError(t, err, http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest)
	require.Len(t, navigated, 1)
}

// TestTokenStore saves, overwrites and reads back a token blob.
func TestTokenStore(t *testing.T) {
	baseURL, cleanup := setupGateway(t)
	defer cleanup()

	client := connectsdk.NewClient(baseURL)
	ctx := t.Context()

	_, err := client.GetTokens(ctx, "user-1")
	assertBackendError(t, err, http.StatusNotFound, connectsdk.ErrorCodeNotFound)

	require.NoError(t, client.SaveTokens(ctx, "user-1", json.RawMessage(`{"access_token":"first"}`)))
	require.NoError(t, client.SaveTokens(ctx, "user-1", json.RawMessage(`{"access_token":"second","extra":[1,2]}`)))

	tokens, err := client.GetTokens(ctx, "user-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"access_token":"second","extra":[1,2]}`, string(tokens))

	err = client.SaveTokens(ctx, "", json.RawMessage(`{}`))
	assertBackendError(t, err, http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest)
}

// TestCallbackFailures covers the callback paths that need no live provider.
func TestCallbackFailures(t *testing.T) {
	baseURL, cleanup := setupGateway(t)
	defer cleanup()

	client := connectsdk.NewClient(baseURL)

	_, err := client.ExchangeCode(t.Context(), "", "user-1")
	assertBackendError(t, err, http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest)

	_, err = client.ExchangeCode(t.Context(), "some-code", "user-1")
	assertBackendError(t, err, http.StatusBadRequest, connectsdk.ErrorCodeInvalidGrant)

	conn := connector.New(connector.Config{Backend: client})
	conn.SetUserID("user-1")
	_, err = conn.CompleteAuthorization(t.Context(), "some-code")
	require.Error(t, err)

	n := <-conn.Notices()
	require.Equal(t, connector.LevelError, n.Level)
	require.Equal(t, connector.MsgCallbackFailed, n.Message)
}

// TestItems covers the unauthorised and upstream failure paths.
func TestItems(t *testing.T) {
	baseURL, cleanup := setupGateway(t)
	defer cleanup()

	client := connectsdk.NewClient(baseURL)
	ctx := t.Context()

	_, err := client.ListItems(ctx, "user-1", "org-1")
	assertBackendError(t, err, http.StatusUnauthorized, connectsdk.ErrorCodeUnauthorized)

	require.NoError(t, client.SaveTokens(ctx, "user-1", json.RawMessage(`{"access_token":"at"}`)))

	_, err = client.ListItems(ctx, "user-1", "org-1")
	assertBackendError(t, err, http.StatusBadRequest, connectsdk.ErrorCodeUpstream)

	conn := connector.New(connector.Config{Backend: client})
	items := conn.ListItems(ctx, "user-1", "org-1")
	require.NotNil(t, items)
	require.Empty(t, items)
}

// TestRateLimitTokenEndpoints verifies save_tokens is limited per IP.
func TestRateLimitTokenEndpoints(t *testing.T) {
	baseURL, cleanup := setupGatewayWithDefaultRateLimits(t)
	defer cleanup()

	client := connectsdk.NewClient(baseURL)

	for i := range 10 {
		err := client.SaveTokens(t.Context(), "user-1", json.RawMessage(`{"n":1}`))
		require.NoError(t, err, "request %d should not be limited", i+1)
	}

	err := client.SaveTokens(t.Context(), "user-1", json.RawMessage(`{"n":1}`))
	require.Error(t, err)
	var be *connectsdk.BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, http.StatusTooManyRequests, be.StatusCode)
}
