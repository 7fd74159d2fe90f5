package model

import (
	"strings"
	"time"
)

// Credential is the base OAuth client identity used to start an authorization.
// Identity is the stable store key shared with the Token issued from it; ID and
// Secret are the OAuth client id and client secret (Yahoo calls them consumer
// key and consumer secret).
type Credential struct {
	Identity  string
	ID        string
	Secret    string
	CreatedAt time.Time
	ExpiresAt *time.Time // nil means the credential does not expire.
}

// Validate reports whether the credential is well-formed and unexpired at now.
// It returns an *InvalidCredentialError describing the first problem found.
func (c Credential) Validate(now time.Time) error {
	switch {
	case strings.TrimSpace(c.Identity) == "":
		return &InvalidCredentialError{Identity: c.Identity, Reason: "identity is empty"}
	case strings.TrimSpace(c.ID) == "":
		return &InvalidCredentialError{Identity: c.Identity, Reason: "client id is empty"}
	case strings.TrimSpace(c.Secret) == "":
		return &InvalidCredentialError{Identity: c.Identity, Reason: "client secret is empty"}
	case c.Expired(now):
		return &InvalidCredentialError{Identity: c.Identity, Reason: "credential expired at " + c.ExpiresAt.UTC().Format(time.RFC3339)}
	}
	return nil
}

// Expired reports whether the credential has an expiry at or before now.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// CredentialMaterial is the raw client id/secret pair read from a credential
// source before it becomes a stored Credential.
type CredentialMaterial struct {
	ClientID     string
	ClientSecret string
}
