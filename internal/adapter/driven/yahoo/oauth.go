// Package yahoo implements the AuthorizationProvider and FantasyClient ports
// against Yahoo's OAuth 2.0 endpoints and the Fantasy Sports API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuthorizationProvider = (*Authorizer)(nil)

// Endpoint is Yahoo's OAuth 2.0 endpoint. Yahoo expects client credentials in
// the Authorization header.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://api.login.yahoo.com/oauth2/request_auth",
	TokenURL:  "https://api.login.yahoo.com/oauth2/get_token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// AuthorizerConfig configures an Authorizer. Zero values select Yahoo's
// endpoint and a client with a 30s timeout.
type AuthorizerConfig struct {
	RedirectURL string
	Endpoint    oauth2.Endpoint
	HTTPClient  *http.Client
}

// Authorizer exchanges authorization codes and refresh tokens with Yahoo.
type Authorizer struct {
	redirectURL string
	endpoint    oauth2.Endpoint
	httpClient  *http.Client
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(cfg AuthorizerConfig) *Authorizer {
	a := &Authorizer{
		redirectURL: cfg.RedirectURL,
		endpoint:    cfg.Endpoint,
		httpClient:  cfg.HTTPClient,
	}
	if a.endpoint.TokenURL == "" {
		a.endpoint = Endpoint
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return a
}

func (a *Authorizer) config(cred model.Credential) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cred.ID,
		ClientSecret: cred.Secret,
		Endpoint:     a.endpoint,
		RedirectURL:  a.redirectURL,
	}
}

// AuthCodeURL returns the consent page URL for cred.
func (a *Authorizer) AuthCodeURL(cred model.Credential, state string) string {
	return a.config(cred).AuthCodeURL(state)
}

// Exchange performs one token request. Authorization codes use the
// authorization_code grant; refresh tokens use the refresh_token grant.
// The returned token has ExpiresAt as reported by Yahoo, or zero when the
// response carried no expires_in.
func (a *Authorizer) Exchange(ctx context.Context, cred model.Credential, grant model.Grant) (model.Token, error) {
	if strings.TrimSpace(grant.Value) == "" {
		return model.Token{}, &model.AuthorizationError{Reason: "invalid_request", Description: string(grant.Type) + " grant has no value"}
	}

	conf := a.config(cred)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	var (
		tok *oauth2.Token
		err error
	)
	switch grant.Type {
	case model.GrantAuthorizationCode:
		tok, err = conf.Exchange(ctx, grant.Value)
	case model.GrantRefreshToken:
		tok, err = conf.TokenSource(ctx, &oauth2.Token{RefreshToken: grant.Value}).Token()
	default:
		return model.Token{}, &model.AuthorizationError{Reason: "unsupported_grant_type", Description: string(grant.Type)}
	}
	if err != nil {
		return model.Token{}, mapExchangeError(err)
	}

	return model.Token{
		Identity:     cred.Identity,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}, nil
}

func mapExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode != "" {
			return &model.AuthorizationError{
				Reason:      retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
				Err:         err,
			}
		}
		desc := ""
		if retrieveErr.Response != nil {
			desc = fmt.Sprintf("HTTP %d", retrieveErr.Response.StatusCode)
		}
		return &model.AuthorizationError{Reason: "exchange_failed", Description: desc, Err: err}
	}

	// x/oauth2 reports a 200 response without access_token as a plain error.
	if strings.Contains(err.Error(), "missing access_token") {
		return &model.AuthorizationError{Reason: "invalid_token_response", Err: err}
	}
	return &model.AuthorizationError{Reason: "exchange_failed", Err: err}
}
