/*
Package connectsdk is the client for the crmconnect integration gateway.

# Overview

The gateway fronts a CRM provider (HubSpot) and a per-user token store. A
client walks a user through the OAuth connect handshake:

	client := connectsdk.NewClient("http://localhost:8000")

	// 1. Ask the gateway for the provider's authorization URL and send the
	//    user's browser there.
	url, err := client.AuthorizationURL(ctx, userID, orgID)

	// 2. The provider redirects back with a one-time code. Trade it for
	//    tokens and persist them.
	tokens, err := client.ExchangeCode(ctx, code, userID)
	err = client.SaveTokens(ctx, userID, tokens)

	// 3. Later, read the stored tokens back or list CRM objects.
	tokens, err = client.GetTokens(ctx, userID)
	items, err := client.ListItems(ctx, userID, orgID)

Tokens are opaque to the client and travel as json.RawMessage.

# Errors

Every method returns one of two typed errors on failure:

  - *NetworkError: the request never produced a response (DNS, refused
    connection, timeout, cancelled context).
  - *BackendError: the gateway answered with a non-2xx status or a body
    that could not be decoded. Code and Description come from the
    {"error", "error_description"} envelope when present.

Nothing is retried.

	var be *connectsdk.BackendError
	if errors.As(err, &be) && be.StatusCode == http.StatusUnauthorized {
		// user has not connected yet
	}
*/
package connectsdk
