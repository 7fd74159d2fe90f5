package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// LeagueFinder lists the leagues the authorized user belongs to.
type LeagueFinder struct {
	clients driven.FantasyClientFactory
	now     func() time.Time
}

// NewLeagueFinder creates a new LeagueFinder.
func NewLeagueFinder(clients driven.FantasyClientFactory, now func() time.Time) *LeagueFinder {
	if now == nil {
		now = time.Now
	}
	return &LeagueFinder{clients: clients, now: now}
}

// Find returns the leagues for gameCode, e.g. "nba". An expired token is
// rejected before any request is made.
func (f *LeagueFinder) Find(ctx context.Context, token model.Token, gameCode string) ([]model.League, error) {
	now := f.now()
	if token.Expired(now) {
		return nil, &model.ExpiredTokenError{Identity: token.Identity, ExpiresAt: token.ExpiresAt, Now: now}
	}

	leagues, err := f.clients.ForToken(token).ListLeagues(ctx, gameCode)
	if err != nil {
		return nil, &model.FetchError{Resource: "leagues", Err: err}
	}
	return leagues, nil
}
