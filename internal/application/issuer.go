package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// defaultTokenTTL applies when the provider omits expires_in.
const defaultTokenTTL = time.Hour

// IssuerConfig holds bootstrap grants and the clock for an Issuer.
// RefreshToken is only used when no refresh token is stored for the identity.
// AuthCode is used once: it takes priority until a token records its digest.
type IssuerConfig struct {
	AuthCode     string
	RefreshToken string
	DefaultTTL   time.Duration
	Now          func() time.Time
}

// Issuer exchanges a credential for a time-bounded token.
type Issuer struct {
	tokens       driven.TokenStore
	provider     driven.AuthorizationProvider
	authCode     string
	refreshToken string
	defaultTTL   time.Duration
	now          func() time.Time
}

// NewIssuer creates a new Issuer.
func NewIssuer(tokens driven.TokenStore, provider driven.AuthorizationProvider, cfg IssuerConfig) *Issuer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Issuer{
		tokens:       tokens,
		provider:     provider,
		authCode:     cfg.AuthCode,
		refreshToken: cfg.RefreshToken,
		defaultTTL:   ttl,
		now:          now,
	}
}

// Issue validates cred, performs one exchange with the provider and stores
// the resulting token, replacing any earlier token for cred.Identity.
func (i *Issuer) Issue(ctx context.Context, cred model.Credential) (model.Token, error) {
	now := i.now()
	if err := cred.Validate(now); err != nil {
		return model.Token{}, err
	}

	previous, err := i.tokens.Load(ctx, cred.Identity)
	if err != nil {
		return model.Token{}, &model.AuthorizationError{Reason: "token_store", Err: fmt.Errorf("load token: %w", err)}
	}

	digest := model.DigestCode(i.authCode)
	grant, ok := i.selectGrant(previous, digest)
	if !ok {
		return model.Token{}, &model.AuthorizationError{
			Reason:      "authorization_required",
			Description: "no usable refresh token and no unused YAHOO_AUTH_CODE",
		}
	}
	slog.Debug("exchanging grant", "identity", cred.Identity, "grant", grant.Type)

	token, err := i.provider.Exchange(ctx, cred, grant)
	if err != nil {
		var authErr *model.AuthorizationError
		if errors.As(err, &authErr) {
			i.recordRejection(ctx, previous, grant, digest, authErr.Reason)
			return model.Token{}, err
		}
		return model.Token{}, &model.AuthorizationError{Reason: "exchange_failed", Err: err}
	}
	if token.AccessToken == "" {
		return model.Token{}, &model.AuthorizationError{Reason: "invalid_token_response", Description: "response has no access token"}
	}

	token.Identity = cred.Identity
	token.IssuedAt = now
	if token.RefreshToken == "" && grant.Type == model.GrantRefreshToken {
		token.RefreshToken = grant.Value
	}
	if token.ExpiresAt.IsZero() {
		token.ExpiresAt = now.Add(i.defaultTTL)
	}
	token.CodeDigest = digest
	if digest == "" && previous != nil {
		token.CodeDigest = previous.CodeDigest
	}

	if err := i.tokens.Save(ctx, token); err != nil {
		return model.Token{}, &model.AuthorizationError{Reason: "token_store", Err: fmt.Errorf("save token: %w", err)}
	}

	slog.Info("token issued", "identity", cred.Identity, "grant", grant.Type, "expires_at", token.ExpiresAt)
	return token, nil
}

// selectGrant prefers an authorization code whose digest differs from the
// one recorded on the stored token, then the stored refresh token, then the
// bootstrap refresh token.
func (i *Issuer) selectGrant(previous *model.Token, digest string) (model.Grant, bool) {
	var storedRefresh, seenDigest string
	if previous != nil {
		storedRefresh, seenDigest = previous.RefreshToken, previous.CodeDigest
	}

	switch {
	case i.authCode != "" && digest != seenDigest:
		return model.Grant{Type: model.GrantAuthorizationCode, Value: i.authCode}, true
	case storedRefresh != "":
		return model.Grant{Type: model.GrantRefreshToken, Value: storedRefresh}, true
	case i.refreshToken != "":
		return model.Grant{Type: model.GrantRefreshToken, Value: i.refreshToken}, true
	default:
		return model.Grant{}, false
	}
}

// recordRejection updates the stored token after the provider refused a
// grant so the next run does not repeat the same exchange: a rejected code is
// marked as used and a revoked stored refresh token is dropped. Failures are
// logged; the caller returns the provider's error either way.
func (i *Issuer) recordRejection(ctx context.Context, previous *model.Token, grant model.Grant, digest, reason string) {
	if previous == nil {
		return
	}
	updated := *previous
	switch {
	case grant.Type == model.GrantAuthorizationCode:
		updated.CodeDigest = digest
	case grant.Value == previous.RefreshToken && reason == "invalid_grant":
		updated.RefreshToken = ""
	default:
		return
	}

	if err := i.tokens.Save(ctx, updated); err != nil {
		slog.Warn("could not record rejected grant", "identity", previous.Identity, "grant", grant.Type, "error", err)
		return
	}
	slog.Warn("provider rejected grant", "identity", previous.Identity, "grant", grant.Type, "reason", reason)
}

// NeedsConsent reports whether err means the operator has to approve access
// again and supply a fresh YAHOO_AUTH_CODE.
func NeedsConsent(err error) bool {
	var authErr *model.AuthorizationError
	if !errors.As(err, &authErr) {
		return false
	}
	return authErr.Reason == "authorization_required" || authErr.Reason == "invalid_grant"
}

// ConsentURL returns the page an operator visits to approve access for cred
// and obtain an authorization code.
func (i *Issuer) ConsentURL(cred model.Credential) string {
	return i.provider.AuthCodeURL(cred, uuid.NewString())
}
