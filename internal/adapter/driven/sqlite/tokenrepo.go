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
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the TokenStore port interface.
// Access and refresh tokens are encrypted at rest with the same key as credentials.
type TokenRepo struct {
	db     *DB
	sealer sealer
}

// NewTokenRepo creates a new TokenRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable token storage.
func NewTokenRepo(db *DB, key []byte) *TokenRepo {
	return &TokenRepo{db: db, sealer: sealer{key: key}}
}

// Save stores the token, overwriting any prior token for the same identity.
func (r *TokenRepo) Save(ctx context.Context, token model.Token) error {
	access, err := r.sealer.seal(token.AccessToken)
	if err != nil {
		return err
	}

	refresh := ""
	if token.RefreshToken != "" {
		refresh, err = r.sealer.seal(token.RefreshToken)
		if err != nil {
			return err
		}
	}

	const query = `
		INSERT INTO tokens (identity, access_token, refresh_token, token_type, expires_at, issued_at, code_digest, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			issued_at = excluded.issued_at,
			code_digest = excluded.code_digest,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err = r.db.Writer.ExecContext(ctx, query,
		token.Identity, access, refresh, token.TokenType, formatTime(token.ExpiresAt), formatTime(token.IssuedAt),
		token.CodeDigest,
	)
	if err != nil {
		return fmt.Errorf("save token %q: %w", token.Identity, err)
	}
	return nil
}

// Load retrieves the token for identity, decrypted. Returns nil, nil if none exists.
func (r *TokenRepo) Load(ctx context.Context, identity string) (*model.Token, error) {
	if r.sealer.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `
		SELECT identity, access_token, refresh_token, token_type, expires_at, issued_at, code_digest
		FROM tokens
		WHERE identity = ?
	`

	var (
		token     model.Token
		access    string
		refresh   string
		expiresAt string
		issuedAt  string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(
		&token.Identity, &access, &refresh, &token.TokenType, &expiresAt, &issuedAt, &token.CodeDigest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token %q: %w", identity, err)
	}

	token.AccessToken, err = r.sealer.open(access)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token %q: %w", identity, err)
	}
	if refresh != "" {
		token.RefreshToken, err = r.sealer.open(refresh)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token %q: %w", identity, err)
		}
	}

	if token.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at for token %q: %w", identity, err)
	}
	if token.IssuedAt, err = parseTime(issuedAt); err != nil {
		return nil, fmt.Errorf("parse issued_at for token %q: %w", identity, err)
	}

	return &token, nil
}

// Exists reports whether a token row exists for identity.
func (r *TokenRepo) Exists(ctx context.Context, identity string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM tokens WHERE identity = ?)`
	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, identity).Scan(&exists); err != nil {
		return false, fmt.Errorf("check token %q: %w", identity, err)
	}
	return exists, nil
}
