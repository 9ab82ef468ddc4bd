package sqlite

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/domain"
)

type credentialsRepo struct {
	q *queries
}

func (r *credentialsRepo) Upsert(ctx context.Context, c domain.Credential) error {
	return r.q.upsertCredential(ctx, credentialRow{
		ID:           c.ID,
		UserID:       c.UserID,
		OrgID:        c.OrgID,
		SealedTokens: c.SealedTokens,
		CreatedAt:    formatTime(c.CreatedAt),
		UpdatedAt:    formatTime(c.UpdatedAt),
	})
}

func (r *credentialsRepo) GetByUserID(ctx context.Context, userID string) (domain.Credential, error) {
	row, err := r.q.getCredentialByUserID(ctx, userID)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return mapCredential(row)
}

func mapCredential(row credentialRow) (domain.Credential, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("credential %s created_at: %w", row.ID, err)
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("credential %s updated_at: %w", row.ID, err)
	}

	return domain.Credential{
		ID:           row.ID,
		UserID:       row.UserID,
		OrgID:        row.OrgID,
		SealedTokens: row.SealedTokens,
		CreatedAt:    created,
		UpdatedAt:    updated,
	}, nil
}
