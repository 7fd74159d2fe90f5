package application_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/leaguesync/internal/application"
	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

var baseTime = time.Date(2025, 12, 3, 14, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// --- Credential source ---

type fakeSource struct {
	material model.CredentialMaterial
	err      error
	reads    int
}

func (s *fakeSource) Name() string { return "env" }

func (s *fakeSource) Read(_ context.Context) (model.CredentialMaterial, error) {
	s.reads++
	return s.material, s.err
}

func validSource() *fakeSource {
	return &fakeSource{material: model.CredentialMaterial{ClientID: "client-1", ClientSecret: "secret-1"}}
}

// --- Stores ---

type failingCredentialStore struct {
	loadErr error
	saveErr error
}

func (s *failingCredentialStore) Load(_ context.Context, _ string) (*model.Credential, error) {
	return nil, s.loadErr
}

func (s *failingCredentialStore) Save(_ context.Context, _ model.Credential) error {
	return s.saveErr
}

func (s *failingCredentialStore) Exists(_ context.Context, _ string) (bool, error) {
	return false, s.loadErr
}

type fakeSnapshotStore struct {
	saved []model.LeagueSnapshot
	err   error
}

func (s *fakeSnapshotStore) Save(_ context.Context, snapshot model.LeagueSnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snapshot)
	return nil
}

func (s *fakeSnapshotStore) LatestStandings(_ context.Context, _ string) ([]model.Standing, error) {
	if len(s.saved) == 0 {
		return []model.Standing{}, nil
	}
	return s.saved[len(s.saved)-1].Standings, nil
}

type fakeRunStore struct {
	reports []model.RunReport
	err     error
}

func (s *fakeRunStore) Record(_ context.Context, report model.RunReport) error {
	s.reports = append(s.reports, report)
	return s.err
}

// --- Authorization provider ---

type fakeProvider struct {
	token  model.Token
	err    error
	errFor map[model.GrantType]error
	grants []model.Grant
}

func (p *fakeProvider) Exchange(_ context.Context, _ model.Credential, grant model.Grant) (model.Token, error) {
	p.grants = append(p.grants, grant)
	if err := p.errFor[grant.Type]; err != nil {
		return model.Token{}, err
	}
	if p.err != nil {
		return model.Token{}, p.err
	}
	return p.token, nil
}

func (p *fakeProvider) AuthCodeURL(cred model.Credential, state string) string {
	return "https://login.example/auth?client_id=" + cred.ID + "&state=" + state
}

// --- Fantasy client ---

var errUnreachable = errors.New("connection refused")

type fakeClient struct {
	standings    []model.Standing
	weeks        model.SeasonWeeks
	matchups     []model.Matchup
	transactions []model.Transaction
	teams        []model.Team
	rosters      map[string][]model.RosterPlayer
	pool         []model.PoolPlayer
	failOn       string
	calls        []string
}

func (c *fakeClient) call(name string) error {
	c.calls = append(c.calls, name)
	if c.failOn == name {
		return errUnreachable
	}
	return nil
}

func (c *fakeClient) FetchStandings(_ context.Context, _ string) ([]model.Standing, error) {
	if err := c.call("standings"); err != nil {
		return nil, err
	}
	return append([]model.Standing(nil), c.standings...), nil
}

func (c *fakeClient) FetchSeasonWeeks(_ context.Context, _ string) (model.SeasonWeeks, error) {
	if err := c.call("season_weeks"); err != nil {
		return model.SeasonWeeks{}, err
	}
	return c.weeks, nil
}

func (c *fakeClient) FetchMatchups(_ context.Context, _ string, week int) ([]model.Matchup, error) {
	if err := c.call(fmt.Sprintf("matchups week %d", week)); err != nil {
		return nil, err
	}
	out := append([]model.Matchup(nil), c.matchups...)
	for i := range out {
		out[i].Week = week
	}
	return out, nil
}

func (c *fakeClient) FetchTransactions(_ context.Context, _ string) ([]model.Transaction, error) {
	if err := c.call("transactions"); err != nil {
		return nil, err
	}
	return append([]model.Transaction(nil), c.transactions...), nil
}

func (c *fakeClient) FetchPlayerPool(_ context.Context, _ string, limit int) ([]model.PoolPlayer, error) {
	if err := c.call("player_pool"); err != nil {
		return nil, err
	}
	return append([]model.PoolPlayer(nil), c.pool[:min(limit, len(c.pool))]...), nil
}

func (c *fakeClient) FetchTeams(_ context.Context, _ string) ([]model.Team, error) {
	if err := c.call("teams"); err != nil {
		return nil, err
	}
	return c.teams, nil
}

func (c *fakeClient) FetchRoster(_ context.Context, teamKey string) ([]model.RosterPlayer, error) {
	if err := c.call("roster " + teamKey); err != nil {
		return nil, err
	}
	return append([]model.RosterPlayer(nil), c.rosters[teamKey]...), nil
}

func (c *fakeClient) ListLeagues(_ context.Context, gameCode string) ([]model.League, error) {
	if err := c.call("leagues"); err != nil {
		return nil, err
	}
	return []model.League{{Key: "466.l.52855", Name: "Hardwood Degenerates", Season: "2025", GameCode: gameCode}}, nil
}

type fakeFactory struct {
	client *fakeClient
	tokens []model.Token
}

func (f *fakeFactory) ForToken(token model.Token) driven.FantasyClient {
	f.tokens = append(f.tokens, token)
	return f.client
}

func newLeagueClient() *fakeClient {
	return &fakeClient{
		standings: []model.Standing{
			{TeamKey: "t.1", TeamName: "Splash Bros", Rank: 1, Wins: 41, Losses: 19},
			{TeamKey: "t.2", TeamName: "Paint Cleaners", Rank: 2, Wins: 33, Losses: 27},
		},
		weeks: model.SeasonWeeks{Start: 1, Current: 2, End: 24},
		matchups: []model.Matchup{
			{Team1Key: "t.1", Team2Key: "t.2", Team1Points: 6, Team2Points: 3, WinnerTeamKey: "t.1"},
		},
		transactions: []model.Transaction{
			{TransactionID: "120", PlayerID: "6450", PlayerName: "Jalen Duren", PlayerAction: model.ActionAdd},
			{TransactionID: "120", PlayerID: "4390", PlayerName: "Kyle Lowry", PlayerAction: model.ActionDrop},
		},
		teams: []model.Team{
			{Key: "t.1", ID: "1", Name: "Splash Bros"},
			{Key: "t.2", ID: "2", Name: "Paint Cleaners"},
		},
		rosters: map[string][]model.RosterPlayer{
			"t.1": {{PlayerID: "5583", Name: "Stephen Curry", NBATeam: "GSW"}},
			"t.2": {{PlayerID: "6014", Name: "Draymond Green", NBATeam: "GSW"}, {PlayerID: "3704", Name: "LeBron James", NBATeam: "LAL"}},
		},
		pool: []model.PoolPlayer{
			{PlayerID: "6583", Name: "Nikola Jokic", Rank: 1, OwnershipType: "team"},
			{PlayerID: "6450", Name: "Jalen Duren", Rank: 2, OwnershipType: "team"},
			{PlayerID: "5007", Name: "Al Horford", Rank: 3, OwnershipType: "freeagents"},
		},
	}
}

// --- Stage stubs for ordering tests ---

type stageLog struct{ calls []string }

type stubProvisioner struct {
	log  *stageLog
	cred model.Credential
	err  error
}

func (s *stubProvisioner) Provision(_ context.Context) (model.Credential, error) {
	s.log.calls = append(s.log.calls, "provision")
	return s.cred, s.err
}

type stubIssuer struct {
	log   *stageLog
	token model.Token
	err   error
}

func (s *stubIssuer) Issue(_ context.Context, _ model.Credential) (model.Token, error) {
	s.log.calls = append(s.log.calls, "authorize")
	return s.token, s.err
}

type stubFetcher struct {
	log    *stageLog
	result model.FetchResult
	err    error
	runID  string
}

func (s *stubFetcher) Fetch(ctx context.Context, _ model.Token) (model.FetchResult, error) {
	s.log.calls = append(s.log.calls, "fetch")
	s.runID = application.RunIDFrom(ctx)
	return s.result, s.err
}
