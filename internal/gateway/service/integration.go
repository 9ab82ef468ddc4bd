package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/aussiebroadwan/crmconnect/pkg/hubspot"
	"github.com/aussiebroadwan/crmconnect/pkg/slogx"
)

// Provider is the CRM side of the handshake. *hubspot.Client implements it.
type Provider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*hubspot.Tokens, error)
	ListContacts(ctx context.Context, accessToken string) ([]hubspot.Object, error)
}

// IntegrationService serves the authorize, callback and items routes.
type IntegrationService struct {
	Provider Provider
	Tokens   *TokenService
}

// AuthorizationURL builds the consent URL with the user id as state. The
// state is not checked on the way back.
func (s *IntegrationService) AuthorizationURL(ctx context.Context, userID, orgID string) (string, error) {
	userID = strings.TrimSpace(userID)
	orgID = strings.TrimSpace(orgID)
	if userID == "" || orgID == "" {
		return "", fmt.Errorf("%w: user_id and org_id are required", ErrInvalidRequest)
	}

	slogx.FromContext(ctx).Info("authorization url issued", "user_id", userID, "org_id", orgID)
	return s.Provider.AuthorizationURL(userID), nil
}

// Callback exchanges code for tokens. Nothing is stored; the client saves
// the result itself.
func (s *IntegrationService) Callback(ctx context.Context, code, userID string) (json.RawMessage, error) {
	l := slogx.FromContext(ctx)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrInvalidRequest)
	}

	tokens, err := s.Provider.Exchange(ctx, code)
	if err != nil {
		l.Warn("token exchange failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	blob, err := json.Marshal(tokens)
	if err != nil {
		return nil, fmt.Errorf("encode tokens: %w", err)
	}

	l.Info("authorization code exchanged", "user_id", userID)
	return blob, nil
}

// Items lists the user's CRM contacts with their stored access token.
func (s *IntegrationService) Items(ctx context.Context, userID, orgID string) ([]connectsdk.Item, error) {
	l := slogx.FromContext(ctx)

	token, err := s.Tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	objs, err := s.Provider.ListContacts(ctx, token)
	if err != nil {
		l.Warn("listing contacts failed", "user_id", userID, "org_id", orgID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	items := make([]connectsdk.Item, len(objs))
	for i, o := range objs {
		items[i] = connectsdk.Item{
			ID:         o.ID,
			Properties: o.Properties,
			CreatedAt:  o.CreatedAt,
			UpdatedAt:  o.UpdatedAt,
			Archived:   o.Archived,
		}
	}
	return items, nil
}
