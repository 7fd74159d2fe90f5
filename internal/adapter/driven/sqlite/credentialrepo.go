package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// Client secrets are encrypted with AES-256-GCM before write and decrypted after read.
type CredentialRepo struct {
	db     *DB
	sealer sealer
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable credential storage (Load and Save return ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, sealer: sealer{key: key}}
}

// Save stores or replaces the credential for cred.Identity.
func (r *CredentialRepo) Save(ctx context.Context, cred model.Credential) error {
	secret, err := r.sealer.seal(cred.Secret)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO credentials (identity, client_id, secret, created_at, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity) DO UPDATE SET
			client_id = excluded.client_id,
			secret = excluded.secret,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err = r.db.Writer.ExecContext(ctx, query,
		cred.Identity, cred.ID, secret, formatTime(cred.CreatedAt), nullableTime(cred.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save credential %q: %w", cred.Identity, err)
	}
	return nil
}

// Load retrieves the credential for identity with its secret decrypted.
// Returns nil, nil if no credential exists.
func (r *CredentialRepo) Load(ctx context.Context, identity string) (*model.Credential, error) {
	if r.sealer.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT identity, client_id, secret, created_at, expires_at FROM credentials WHERE identity = ?`

	var (
		cred      model.Credential
		encrypted string
		createdAt string
		expiresAt sql.NullString
	)
	err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(&cred.Identity, &cred.ID, &encrypted, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential %q: %w", identity, err)
	}

	cred.Secret, err = r.sealer.open(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential %q: %w", identity, err)
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for credential %q: %w", identity, err)
	}

	if expiresAt.Valid {
		t, err := parseTime(expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse expires_at for credential %q: %w", identity, err)
		}
		cred.ExpiresAt = &t
	}

	return &cred, nil
}

// Exists reports whether a credential row exists for identity. It does not
// need the encryption key.
func (r *CredentialRepo) Exists(ctx context.Context, identity string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM credentials WHERE identity = ?)`
	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(&exists); err != nil {
		return false, fmt.Errorf("check credential %q: %w", identity, err)
	}
	return exists, nil
}
