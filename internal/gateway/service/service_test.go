package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/store"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/crmconnect/pkg/cryptox"
	"github.com/aussiebroadwan/crmconnect/pkg/hubspot"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	exchangeErr error
	listErr     error
	gotToken    string
}

func (p *fakeProvider) AuthorizationURL(state string) string {
	return hubspot.Config{ClientID: "cid", RedirectURI: "http://localhost/cb"}.AuthorizationURL(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*hubspot.Tokens, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &hubspot.Tokens{AccessToken: "at-" + code, RefreshToken: "rt", TokenType: "bearer", ExpiresIn: 1800}, nil
}

func (p *fakeProvider) ListContacts(_ context.Context, accessToken string) ([]hubspot.Object, error) {
	p.gotToken = accessToken
	if p.listErr != nil {
		return nil, p.listErr
	}
	return []hubspot.Object{{ID: "101", Properties: map[string]any{"email": "a@example.com"}}}, nil
}

func newTokenService(t *testing.T) *TokenService {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "gateway.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sealer, err := cryptox.NewSealer([]byte("test-master-key"))
	require.NoError(t, err)

	return &TokenService{Store: st, Sealer: sealer}
}

func TestTokenService_SaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTokenService(t)

	require.NoError(t, s.Save(ctx, "u1", "o1", json.RawMessage(`{"access_token":"one"}`)))
	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.JSONEq(t, `{"access_token":"one"}`, string(got))

	t.Run("re-save overwrites", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "u1", "", json.RawMessage(`{"access_token":"two"}`)))
		got, err := s.Get(ctx, "u1")
		require.NoError(t, err)
		require.JSONEq(t, `{"access_token":"two"}`, string(got))
	})

	t.Run("blob is sealed at rest", func(t *testing.T) {
		cred, err := s.Store.Credentials().GetByUserID(ctx, "u1")
		require.NoError(t, err)
		require.NotContains(t, string(cred.SealedTokens), "access_token")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.Get(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTokenService_SaveValidation(t *testing.T) {
	t.Parallel()

	s := newTokenService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		tokens json.RawMessage
	}{
		{"missing user", "  ", json.RawMessage(`{}`)},
		{"missing tokens", "u1", nil},
		{"null tokens", "u1", json.RawMessage(`null`)},
		{"invalid json", "u1", json.RawMessage(`{`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, s.Save(ctx, tt.userID, "", tt.tokens), ErrInvalidRequest)
		})
	}
}

func TestTokenService_ConcurrentSaves(t *testing.T) {
	t.Parallel()

	s := newTokenService(t)
	ctx := context.Background()

	const workers = 40
	users := []string{"u1", "u2", "u3", "u4"}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Go(func() {
			user := users[i%len(users)]
			errs <- s.Save(ctx, user, "o1", json.RawMessage(fmt.Sprintf(`{"access_token":"%s-%d"}`, user, i)))
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	for _, user := range users {
		got, err := s.Get(ctx, user)
		require.NoError(t, err)

		var blob struct {
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.Unmarshal(got, &blob))
		require.True(t, strings.HasPrefix(blob.AccessToken, user+"-"), blob.AccessToken)
	}
}

func TestTokenService_Timestamps(t *testing.T) {
	t.Parallel()

	s := newTokenService(t)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return first }
	require.NoError(t, s.Save(ctx, "u1", "o1", json.RawMessage(`{}`)))

	second := first.Add(time.Hour)
	s.Now = func() time.Time { return second }
	require.NoError(t, s.Save(ctx, "u1", "o1", json.RawMessage(`{"v":2}`)))

	cred, err := s.Store.Credentials().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, first.Equal(cred.CreatedAt))
	require.True(t, second.Equal(cred.UpdatedAt))
}

func TestTokenService_AccessToken(t *testing.T) {
	t.Parallel()

	s := newTokenService(t)
	ctx := context.Background()

	_, err := s.AccessToken(ctx, "u1")
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, s.Save(ctx, "u1", "", json.RawMessage(`{"refresh_token":"only"}`)))
	_, err = s.AccessToken(ctx, "u1")
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, s.Save(ctx, "u1", "", json.RawMessage(`{"access_token":"at"}`)))
	token, err := s.AccessToken(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "at", token)
}

func TestIntegrationService_AuthorizationURL(t *testing.T) {
	t.Parallel()

	s := &IntegrationService{Provider: &fakeProvider{}}

	url, err := s.AuthorizationURL(context.Background(), "u1", "o1")
	require.NoError(t, err)
	require.Contains(t, url, "state=u1")

	_, err = s.AuthorizationURL(context.Background(), "u1", "")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestIntegrationService_Callback(t *testing.T) {
	t.Parallel()

	t.Run("returns provider tokens", func(t *testing.T) {
		s := &IntegrationService{Provider: &fakeProvider{}}

		blob, err := s.Callback(context.Background(), "abc", "u1")
		require.NoError(t, err)

		var tok hubspot.Tokens
		require.NoError(t, json.Unmarshal(blob, &tok))
		require.Equal(t, "at-abc", tok.AccessToken)
		require.Equal(t, "rt", tok.RefreshToken)
	})

	t.Run("missing code", func(t *testing.T) {
		s := &IntegrationService{Provider: &fakeProvider{}}
		_, err := s.Callback(context.Background(), "", "u1")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("exchange failure", func(t *testing.T) {
		s := &IntegrationService{Provider: &fakeProvider{exchangeErr: hubspot.ErrExchange}}
		_, err := s.Callback(context.Background(), "bad", "u1")
		require.ErrorIs(t, err, ErrExchangeFailed)
	})
}

func TestIntegrationService_Items(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("not connected", func(t *testing.T) {
		s := &IntegrationService{Provider: &fakeProvider{}, Tokens: newTokenService(t)}
		_, err := s.Items(ctx, "u1", "o1")
		require.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("lists with stored access token", func(t *testing.T) {
		p := &fakeProvider{}
		s := &IntegrationService{Provider: p, Tokens: newTokenService(t)}
		require.NoError(t, s.Tokens.Save(ctx, "u1", "o1", json.RawMessage(`{"access_token":"stored"}`)))

		items, err := s.Items(ctx, "u1", "o1")
		require.NoError(t, err)
		require.Equal(t, "stored", p.gotToken)
		require.Len(t, items, 1)
		require.Equal(t, "101", items[0].ID)
		require.Equal(t, "a@example.com", items[0].Properties["email"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		p := &fakeProvider{listErr: errors.New("401")}
		s := &IntegrationService{Provider: p, Tokens: newTokenService(t)}
		require.NoError(t, s.Tokens.Save(ctx, "u1", "o1", json.RawMessage(`{"access_token":"stale"}`)))

		_, err := s.Items(ctx, "u1", "o1")
		require.ErrorIs(t, err, ErrUpstream)
	})
}
