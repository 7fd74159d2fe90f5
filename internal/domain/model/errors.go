package model

import (
	"fmt"
	"time"
)

// ProvisioningError is returned when no valid credential source is reachable
// or the provisioned credential cannot be persisted.
type ProvisioningError struct {
	Source string
	Err    error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision credential from %s: %v", e.Source, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// InvalidCredentialError is returned when a credential is malformed or expired.
type InvalidCredentialError struct {
	Identity string
	Reason   string
}

func (e *InvalidCredentialError) Error() string {
	return fmt.Sprintf("invalid credential %q: %s", e.Identity, e.Reason)
}

// AuthorizationError is returned when the authorization exchange fails.
// Reason carries the provider's error code when the provider rejected the
// request (for example "invalid_grant").
type AuthorizationError struct {
	Reason      string
	Description string
	Err         error
}

func (e *AuthorizationError) Error() string {
	msg := "authorization failed: " + e.Reason
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// ExpiredTokenError is returned when a token is used at or after its expiry.
type ExpiredTokenError struct {
	Identity  string
	ExpiresAt time.Time
	Now       time.Time
}

func (e *ExpiredTokenError) Error() string {
	return fmt.Sprintf("token for %q expired at %s (now %s)",
		e.Identity, e.ExpiresAt.UTC().Format(time.RFC3339), e.Now.UTC().Format(time.RFC3339))
}

// FetchError is returned when retrieving or persisting fetched data fails.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StageError attributes a pipeline failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
