package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

type credentialRow struct {
	ID           string
	UserID       string
	OrgID        string
	SealedTokens []byte
	CreatedAt    string
	UpdatedAt    string
}

const upsertCredential = `
INSERT INTO credentials (id, user_id, org_id, sealed_tokens, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    org_id        = COALESCE(NULLIF(excluded.org_id, ''), credentials.org_id),
    sealed_tokens = excluded.sealed_tokens,
    updated_at    = excluded.updated_at`

func (q *queries) upsertCredential(ctx context.Context, r credentialRow) error {
	_, err := q.db.ExecContext(ctx, upsertCredential,
		r.ID, r.UserID, r.OrgID, r.SealedTokens, r.CreatedAt, r.UpdatedAt)
	return err
}

const getCredentialByUserID = `
SELECT id, user_id, org_id, sealed_tokens, created_at, updated_at
FROM credentials
WHERE user_id = ?`

func (q *queries) getCredentialByUserID(ctx context.Context, userID string) (credentialRow, error) {
	var r credentialRow
	err := q.db.QueryRowContext(ctx, getCredentialByUserID, userID).Scan(
		&r.ID, &r.UserID, &r.OrgID, &r.SealedTokens, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
