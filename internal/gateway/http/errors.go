package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/service"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store"
	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/aussiebroadwan/crmconnect/pkg/slogx"
)

// writeServiceError maps service and store sentinels onto the wire envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		connectsdk.NewAPIError(http.StatusBadRequest, connectsdk.ErrorCodeInvalidRequest, trimSentinel(err)).WriteError(w)
	case errors.Is(err, service.ErrExchangeFailed):
		connectsdk.ErrExchangeFailed.WriteError(w)
	case errors.Is(err, service.ErrNotConnected):
		connectsdk.ErrNotConnected.WriteError(w)
	case errors.Is(err, service.ErrUpstream):
		connectsdk.ErrFetchItems.WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		connectsdk.ErrTokensNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		connectsdk.ErrServerError.WriteError(w)
	}
}

// trimSentinel drops the "invalid_request: " prefix from wrapped errors.
func trimSentinel(err error) string {
	msg := err.Error()
	prefix := service.ErrInvalidRequest.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return connectsdk.ErrInvalidRequest.Description
}
