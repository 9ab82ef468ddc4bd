package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/domain"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "gateway.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations(), "migrations are idempotent")
	return s
}

func TestCredentials_Upsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)

	created := time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)
	require.NoError(t, s.Credentials().Upsert(ctx, domain.Credential{
		ID:           "01HZZZZZZZZZZZZZZZZZZZZZZ1",
		UserID:       "u1",
		OrgID:        "o1",
		SealedTokens: []byte("first"),
		CreatedAt:    created,
		UpdatedAt:    created,
	}))

	got, err := s.Credentials().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "o1", got.OrgID)
	require.Equal(t, []byte("first"), got.SealedTokens)
	require.True(t, created.Equal(got.CreatedAt))

	updated := created.Add(time.Hour)
	require.NoError(t, s.Credentials().Upsert(ctx, domain.Credential{
		ID:           "01HZZZZZZZZZZZZZZZZZZZZZZ2",
		UserID:       "u1",
		SealedTokens: []byte("second"),
		CreatedAt:    updated,
		UpdatedAt:    updated,
	}))

	got, err = s.Credentials().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "01HZZZZZZZZZZZZZZZZZZZZZZ1", got.ID, "id survives overwrite")
	require.Equal(t, "o1", got.OrgID, "empty org keeps stored value")
	require.Equal(t, []byte("second"), got.SealedTokens)
	require.True(t, created.Equal(got.CreatedAt))
	require.True(t, updated.Equal(got.UpdatedAt))
}

func TestCredentials_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newStore(t).Credentials().GetByUserID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Credentials().Upsert(ctx, domain.Credential{
				ID: "a", UserID: "rolled-back", SealedTokens: []byte("x"), CreatedAt: now, UpdatedAt: now,
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Credentials().GetByUserID(ctx, "rolled-back")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commit on success", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Credentials().Upsert(ctx, domain.Credential{
				ID: "b", UserID: "committed", SealedTokens: []byte("x"), CreatedAt: now, UpdatedAt: now,
			})
		})
		require.NoError(t, err)

		_, err = s.Credentials().GetByUserID(ctx, "committed")
		require.NoError(t, err)
	})

	t.Run("nested tx refused", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	t.Parallel()

	require.NoError(t, newStore(t).Ping(context.Background()))
}
