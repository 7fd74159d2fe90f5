package driven

import (
	"context"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// FantasyClient defines the driven port for reading the fantasy sports API.
type FantasyClient interface {
	FetchStandings(ctx context.Context, leagueKey string) ([]model.Standing, error)
	// FetchSeasonWeeks returns the league's start, current and end scoring weeks.
	FetchSeasonWeeks(ctx context.Context, leagueKey string) (model.SeasonWeeks, error)
	FetchMatchups(ctx context.Context, leagueKey string, week int) ([]model.Matchup, error)
	// FetchTransactions returns add, drop and trade transactions, one record
	// per player moved, newest first.
	FetchTransactions(ctx context.Context, leagueKey string) ([]model.Transaction, error)
	// FetchPlayerPool returns up to limit players ordered by season average rank.
	FetchPlayerPool(ctx context.Context, leagueKey string, limit int) ([]model.PoolPlayer, error)
	FetchTeams(ctx context.Context, leagueKey string) ([]model.Team, error)
	FetchRoster(ctx context.Context, teamKey string) ([]model.RosterPlayer, error)
	// ListLeagues returns the leagues of the logged-in user for a game code such as "nba".
	ListLeagues(ctx context.Context, gameCode string) ([]model.League, error)
}

// FantasyClientFactory builds a FantasyClient authenticated with token.
type FantasyClientFactory interface {
	ForToken(token model.Token) FantasyClient
}
