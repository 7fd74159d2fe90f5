package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// GrantType identifies the OAuth grant used to obtain a token.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
)

// Grant is the value exchanged with the authorization provider: an
// authorization code or a refresh token, depending on Type.
type Grant struct {
	Type  GrantType
	Value string
}

// Token is a time-bounded access artifact issued for a credential identity.
// CodeDigest is the DigestCode of the bootstrap authorization code that was
// configured when the token was issued, or "" when none was.
type Token struct {
	Identity     string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	IssuedAt     time.Time
	CodeDigest   string
}

// Expired reports whether the token can no longer be used at now. A token
// whose expiry equals now is expired.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// DigestCode returns a hex SHA-256 of an authorization code, or "" for an
// empty code. Only the digest is persisted; codes are single-use secrets.
func DigestCode(code string) string {
	if code == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
