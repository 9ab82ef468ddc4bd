package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories so transactions stay explicit.
type Store interface {
	Credentials() Credentials

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Credentials interface {
	// Upsert inserts c or replaces the tokens of the existing row for
	// c.UserID. ID and CreatedAt of an existing row are kept; an empty OrgID
	// keeps the stored one.
	Upsert(ctx context.Context, c domain.Credential) error

	// GetByUserID returns ErrNotFound when the user never saved tokens.
	GetByUserID(ctx context.Context, userID string) (domain.Credential, error)
}
