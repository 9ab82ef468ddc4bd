package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/service"
	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/aussiebroadwan/crmconnect/pkg/httpx"
)

const maxSaveBody = 1 << 20

// TokensHandler serves the token store routes.
type TokensHandler struct {
	Service *service.TokenService
}

// HandleSave godoc
//
//	@Summary		Save tokens
//	@Description	Stores an opaque token blob for a user, replacing any earlier one.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body		connectsdk.SaveTokensRequest	true	"user_id, org_id, tokens"
//	@Success		200		{object}	connectsdk.StatusResponse		"status"
//	@Failure		400		{object}	connectsdk.ErrorResponse		"error, error_description"
//	@Failure		429		{object}	connectsdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	connectsdk.ErrorResponse		"error, error_description"
//	@Router			/save_tokens [post].
func (h *TokensHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		connectsdk.NewAPIError(http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest,
			"content-type must be application/json").WriteError(w)
		return
	}

	var req connectsdk.SaveTokensRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBody))
	if err := dec.Decode(&req); err != nil {
		connectsdk.NewAPIError(http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest, "invalid JSON body").WriteError(w)
		return
	}

	if err := h.Service.Save(r.Context(), req.UserID, req.OrgID, req.Tokens); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, connectsdk.StatusResponse{Status: "ok"})
}

// HandleGet godoc
//
//	@Summary		Get tokens
//	@Description	Returns the token blob stored for a user.
//	@Tags			Tokens
//	@Produce		json
//	@Param			user_id	query		string						true	"User identifier"
//	@Success		200		{object}	connectsdk.TokensResponse	"tokens"
//	@Failure		400		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	connectsdk.ErrorResponse	"error, error_description"
//	@Header			200		{string}	Cache-Control				"no-store"
//	@Router			/get_tokens [get].
func (h *TokensHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.Service.Get(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, connectsdk.TokensResponse{Tokens: tokens})
}
