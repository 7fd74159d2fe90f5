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

type runIDKey struct{}

// WithRunID returns a context carrying the pipeline run id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run id stored by WithRunID, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// FetcherConfig holds the league to sync and the clock for a Fetcher.
// PlayerPoolLimit caps how many ranked players are read; zero skips the
// player pool. Now defaults to time.Now.
type FetcherConfig struct {
	LeagueKey       string
	PlayerPoolLimit int
	Now             func() time.Time
}

// Fetcher retrieves a league snapshot with an issued token and appends it to
// the snapshot store.
type Fetcher struct {
	clients   driven.FantasyClientFactory
	snapshots driven.SnapshotStore
	leagueKey string
	poolLimit int
	now       func() time.Time
}

// NewFetcher creates a new Fetcher.
func NewFetcher(clients driven.FantasyClientFactory, snapshots driven.SnapshotStore, cfg FetcherConfig) *Fetcher {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Fetcher{
		clients:   clients,
		snapshots: snapshots,
		leagueKey: cfg.LeagueKey,
		poolLimit: max(cfg.PlayerPoolLimit, 0),
		now:       now,
	}
}

// Fetch refuses tokens that are expired at the current time without touching
// the network. It never refreshes or retries.
func (f *Fetcher) Fetch(ctx context.Context, token model.Token) (model.FetchResult, error) {
	now := f.now()
	if token.Expired(now) {
		return failed(&model.ExpiredTokenError{Identity: token.Identity, ExpiresAt: token.ExpiresAt, Now: now})
	}
	if f.leagueKey == "" {
		return failed(&model.FetchError{Resource: "league", Err: errors.New("league key is not configured")})
	}

	runID := RunIDFrom(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}

	snapshot, err := f.collect(ctx, f.clients.ForToken(token), now)
	if err != nil {
		return failed(err)
	}
	snapshot.RunID = runID

	if err := f.snapshots.Save(ctx, snapshot); err != nil {
		return failed(&model.FetchError{Resource: "snapshot", Err: err})
	}

	slog.Info("league snapshot stored",
		"run_id", runID,
		"league", f.leagueKey,
		"standings", len(snapshot.Standings),
		"matchups", len(snapshot.Matchups),
		"players", len(snapshot.Players),
		"transactions", len(snapshot.Transactions),
		"player_pool", len(snapshot.PlayerPool),
	)
	return model.FetchResult{Status: model.FetchSuccess, RecordsFetched: snapshot.RecordCount()}, nil
}

func (f *Fetcher) collect(ctx context.Context, client driven.FantasyClient, now time.Time) (model.LeagueSnapshot, error) {
	snapshot := model.LeagueSnapshot{LeagueKey: f.leagueKey, ExtractedAt: now}

	standings, err := client.FetchStandings(ctx, f.leagueKey)
	if err != nil {
		return snapshot, &model.FetchError{Resource: "standings", Err: err}
	}
	for i := range standings {
		standings[i].LeagueKey = f.leagueKey
		standings[i].ExtractedAt = now
	}
	snapshot.Standings = standings

	weeks, err := client.FetchSeasonWeeks(ctx, f.leagueKey)
	if err != nil {
		return snapshot, &model.FetchError{Resource: "season_weeks", Err: err}
	}

	for _, week := range weeks.ToDate() {
		matchups, err := client.FetchMatchups(ctx, f.leagueKey, week)
		if err != nil {
			return snapshot, &model.FetchError{Resource: fmt.Sprintf("matchups week %d", week), Err: err}
		}
		for _, m := range matchups {
			m.LeagueKey = f.leagueKey
			m.ExtractedAt = now
			snapshot.Matchups = append(snapshot.Matchups, m)
		}
	}

	transactions, err := client.FetchTransactions(ctx, f.leagueKey)
	if err != nil {
		return snapshot, &model.FetchError{Resource: "transactions", Err: err}
	}
	for i := range transactions {
		transactions[i].LeagueKey = f.leagueKey
		transactions[i].ExtractedAt = now
	}
	snapshot.Transactions = transactions

	teams, err := client.FetchTeams(ctx, f.leagueKey)
	if err != nil {
		return snapshot, &model.FetchError{Resource: "teams", Err: err}
	}

	for _, team := range teams {
		roster, err := client.FetchRoster(ctx, team.Key)
		if err != nil {
			return snapshot, &model.FetchError{Resource: "roster " + team.Key, Err: err}
		}
		for _, p := range roster {
			p.LeagueKey = f.leagueKey
			p.TeamKey = team.Key
			if p.TeamName == "" {
				p.TeamName = team.Name
			}
			p.ExtractedAt = now
			snapshot.Players = append(snapshot.Players, p)
		}
	}

	if f.poolLimit == 0 {
		return snapshot, nil
	}
	pool, err := client.FetchPlayerPool(ctx, f.leagueKey, f.poolLimit)
	if err != nil {
		return snapshot, &model.FetchError{Resource: "player_pool", Err: err}
	}
	for i := range pool {
		pool[i].LeagueKey = f.leagueKey
		pool[i].ExtractedAt = now
	}
	snapshot.PlayerPool = pool

	return snapshot, nil
}

func failed(err error) (model.FetchResult, error) {
	return model.FetchResult{Status: model.FetchFailure, ErrorDetail: err.Error()}, err
}
