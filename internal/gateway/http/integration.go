package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/service"
	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/aussiebroadwan/crmconnect/pkg/httpx"
)

// IntegrationHandler serves the HubSpot authorize, callback and items routes.
type IntegrationHandler struct {
	Service *service.IntegrationService
}

// HandleAuthorize godoc
//
//	@Summary		Start the HubSpot connect flow
//	@Description	Returns the HubSpot consent URL for the user. The user id is carried as the OAuth state.
//	@Tags			HubSpot
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			user_id	formData	string							true	"User identifier"
//	@Param			org_id	formData	string							true	"Organisation identifier"
//	@Success		200		{object}	connectsdk.AuthorizeResponse	"url"
//	@Failure		400		{object}	connectsdk.ErrorResponse		"error, error_description"
//	@Failure		429		{object}	connectsdk.ErrorResponse		"error, error_description"
//	@Router			/integrations/hubspot/authorize [post].
func (h *IntegrationHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") &&
		!strings.HasPrefix(ct, "multipart/form-data") {
		connectsdk.NewAPIError(http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest,
			"content-type must be application/x-www-form-urlencoded").WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		connectsdk.NewAPIError(http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest, "invalid form body").WriteError(w)
		return
	}

	url, err := h.Service.AuthorizationURL(r.Context(), r.PostForm.Get("user_id"), r.PostForm.Get("org_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, connectsdk.AuthorizeResponse{URL: url})
}

// HandleCallback godoc
//
//	@Summary		Exchange an authorization code
//	@Description	Trades the one-time code HubSpot redirected with for a token set. Tokens are returned, not stored.
//	@Tags			HubSpot
//	@Produce		json
//	@Param			code	query		string						true	"Authorization code"
//	@Param			user_id	query		string						false	"User identifier"
//	@Param			state	query		string						false	"OAuth state (the user id)"
//	@Success		200		{object}	connectsdk.TokensResponse	"tokens"
//	@Failure		400		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Header			200		{string}	Cache-Control				"no-store"
//	@Router			/integrations/hubspot/oauth2callback [get]
//	@Router			/oauth2callback [get].
func (h *IntegrationHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID := q.Get("user_id")
	if userID == "" {
		userID = q.Get("state")
	}

	if q.Get("code") == "" {
		connectsdk.ErrMissingCode.WriteError(w)
		return
	}

	tokens, err := h.Service.Callback(r.Context(), q.Get("code"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, connectsdk.TokensResponse{Tokens: tokens})
}

// HandleItems godoc
//
//	@Summary		List CRM items
//	@Description	Lists the user's HubSpot contacts using the stored access token.
//	@Tags			HubSpot
//	@Produce		json
//	@Param			user_id	query		string						true	"User identifier"
//	@Param			org_id	query		string						false	"Organisation identifier"
//	@Success		200		{object}	connectsdk.ItemsResponse	"items"
//	@Failure		400		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Router			/integrations/hubspot/items [get].
func (h *IntegrationHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, err := h.Service.Items(r.Context(), q.Get("user_id"), q.Get("org_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, connectsdk.ItemsResponse{Items: items})
}
