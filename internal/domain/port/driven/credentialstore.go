package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by encrypted store operations when
// LEAGUESYNC_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set LEAGUESYNC_SECRET_KEY")

// CredentialStore defines the driven port for credential persistence, keyed
// by credential identity. The adapter layer is responsible for encryption;
// this interface operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Load returns the stored credential for identity, or (nil, nil) if none exists.
	Load(ctx context.Context, identity string) (*model.Credential, error)

	// Save stores or replaces the credential for cred.Identity.
	Save(ctx context.Context, cred model.Credential) error

	// Exists reports whether a credential is stored for identity.
	Exists(ctx context.Context, identity string) (bool, error)
}
