package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/domain"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store"
	"github.com/aussiebroadwan/crmconnect/pkg/cryptox"
	"github.com/aussiebroadwan/crmconnect/pkg/idx"
	"github.com/aussiebroadwan/crmconnect/pkg/slogx"
)

// TokenService keeps one opaque token blob per user, sealed at rest.
type TokenService struct {
	Store  store.Store
	Sealer *cryptox.Sealer

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Save stores tokens for userID, replacing any earlier blob. tokens must be
// a JSON value other than null.
func (s *TokenService) Save(ctx context.Context, userID, orgID string, tokens json.RawMessage) error {
	l := slogx.FromContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if len(tokens) == 0 || string(tokens) == "null" || !json.Valid(tokens) {
		return fmt.Errorf("%w: tokens must be a JSON value", ErrInvalidRequest)
	}

	sealed, err := s.Sealer.Seal(tokens, []byte(userID))
	if err != nil {
		return fmt.Errorf("seal tokens: %w", err)
	}

	// Upsert only. A read ahead of the write fails with SQLITE_BUSY when
	// another connection is writing.
	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Credentials().Upsert(ctx, domain.Credential{
			ID:           idx.NewAt(now).String(),
			UserID:       userID,
			OrgID:        strings.TrimSpace(orgID),
			SealedTokens: sealed,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})
	if err != nil {
		l.Error("failed to save tokens", "user_id", userID, "error", err)
		return err
	}

	l.Info("tokens saved", "user_id", userID, "fingerprint", cryptox.Fingerprint(tokens))
	return nil
}

// Get returns the stored blob for userID or store.ErrNotFound.
func (s *TokenService) Get(ctx context.Context, userID string) (json.RawMessage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	cred, err := s.Store.Credentials().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	plain, err := s.Sealer.Open(cred.SealedTokens, []byte(userID))
	if err != nil {
		slogx.FromContext(ctx).Error("stored tokens failed to open", "user_id", userID, "error", err)
		return nil, fmt.Errorf("open tokens: %w", err)
	}

	return json.RawMessage(plain), nil
}

// AccessToken returns the access_token field of the stored blob.
func (s *TokenService) AccessToken(ctx context.Context, userID string) (string, error) {
	blob, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotConnected
		}
		return "", err
	}

	var t struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(blob, &t); err != nil || t.AccessToken == "" {
		return "", ErrNotConnected
	}
	return t.AccessToken, nil
}
