package ports

import (
	"context"

	"github.com/microtask/taskhub/internal/core/domain"
)

// CredentialStore persists the token/snapshot pair across restarts.
// Implementations must write and delete both halves in one operation.
type CredentialStore interface {
	// Load returns domain.ErrNoCredential when nothing (or only half a pair)
	// is stored.
	Load(ctx context.Context) (*domain.PersistedCredential, error)
	Save(ctx context.Context, cred domain.PersistedCredential) error
	Delete(ctx context.Context) error
}
