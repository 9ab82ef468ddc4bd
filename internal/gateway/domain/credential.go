package domain

import "time"

// Credential is the token blob a user connected with. One per user.
type Credential struct {
	ID           string    // ULID
	UserID       string    // Caller supplied, unique
	OrgID        string    // Optional
	SealedTokens []byte    // AES-256-GCM sealed JSON, user id as associated data
	CreatedAt    time.Time // First save
	UpdatedAt    time.Time // Last overwrite
}
