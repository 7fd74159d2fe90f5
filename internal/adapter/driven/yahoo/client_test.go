package yahoo_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/leaguesync/internal/adapter/driven/yahoo"
	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// fixtureServer serves testdata files keyed by request path and records the
// Authorization header of the last request.
func fixtureServer(t *testing.T, routes map[string]string) (*httptest.Server, *string) {
	t.Helper()
	var lastAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		name, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body, err := os.ReadFile(filepath.Join("testdata", name))
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &lastAuth
}

func testToken() model.Token {
	return model.Token{
		Identity:    "yahoo",
		AccessToken: "at-1",
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestClient_FetchStandings(t *testing.T) {
	server, auth := fixtureServer(t, map[string]string{
		"/league/466.l.52855/standings": "standings.json",
	})
	client := yahoo.NewClientFactory(server.URL, 5*time.Second).ForToken(testToken())

	standings, err := client.FetchStandings(context.Background(), "466.l.52855")

	require.NoError(t, err)
	assert.Equal(t, "Bearer at-1", *auth)
	require.Len(t, standings, 2)

	first := standings[0]
	assert.Equal(t, "466.l.52855", first.LeagueKey)
	assert.Equal(t, "466.l.52855.t.1", first.TeamKey)
	assert.Equal(t, "Splash Bros", first.TeamName)
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 41, first.Wins)
	assert.Equal(t, 19, first.Losses)
	assert.Equal(t, 3, first.Ties)
	assert.InDelta(t, 0.675, first.Percentage, 0.0001)
	assert.Equal(t, 0.0, first.GamesBack)
	assert.Equal(t, 1, first.PlayoffSeed)

	second := standings[1]
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, 8.0, second.GamesBack)
	assert.Equal(t, 3, second.Ties)
}

func TestClient_FetchSeasonWeeks(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/league/466.l.52855": "league.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	weeks, err := client.FetchSeasonWeeks(context.Background(), "466.l.52855")

	require.NoError(t, err)
	assert.Equal(t, model.SeasonWeeks{Start: 1, Current: 7, End: 24}, weeks)
}

func TestClient_FetchSeasonWeeks_Defaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"fantasy_content":{"league":[{"league_key":"466.l.52855","current_week":"3"}]}}`))
	}))
	defer server.Close()
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	weeks, err := client.FetchSeasonWeeks(context.Background(), "466.l.52855")

	require.NoError(t, err)
	assert.Equal(t, model.SeasonWeeks{Start: 1, Current: 3, End: 3}, weeks)
}

func TestClient_FetchSeasonWeeks_MissingCurrentWeek(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/league/466.l.52855": "teams.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	_, err := client.FetchSeasonWeeks(context.Background(), "466.l.52855")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "current_week")
}

func TestClient_FetchMatchups(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/league/466.l.52855/scoreboard;week=7": "scoreboard.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	matchups, err := client.FetchMatchups(context.Background(), "466.l.52855", 7)

	require.NoError(t, err)
	require.Len(t, matchups, 1)

	m := matchups[0]
	assert.Equal(t, "466.l.52855", m.LeagueKey)
	assert.Equal(t, 7, m.Week)
	assert.Equal(t, "2025-12-01", m.WeekStart)
	assert.Equal(t, "2025-12-07", m.WeekEnd)
	assert.Equal(t, "postevent", m.Status)
	assert.False(t, m.IsPlayoffs)
	assert.False(t, m.IsTied)
	assert.Equal(t, "466.l.52855.t.1", m.WinnerTeamKey)
	assert.Equal(t, "466.l.52855.t.1", m.Team1Key)
	assert.Equal(t, "Splash Bros", m.Team1Name)
	assert.Equal(t, 6.0, m.Team1Points)
	assert.Equal(t, "466.l.52855.t.2", m.Team2Key)
	assert.Equal(t, "Paint Cleaners", m.Team2Name)
	assert.Equal(t, 3.0, m.Team2Points)

	require.Len(t, m.Categories, 9)
	assert.Equal(t, model.CategoryResult{
		Category:      "fg_pct",
		Team1Value:    "0.489",
		Team2Value:    "0.455",
		WinnerTeamKey: "466.l.52855.t.1",
	}, m.Categories[0])
	assert.Equal(t, model.CategoryResult{
		Category:      "to",
		Team1Value:    "70",
		Team2Value:    "83",
		WinnerTeamKey: "466.l.52855.t.1",
	}, m.Categories[8])

	wins := map[string]int{}
	for _, c := range m.Categories {
		wins[c.WinnerTeamKey]++
	}
	assert.Equal(t, map[string]int{"466.l.52855.t.1": 6, "466.l.52855.t.2": 3}, wins)
}

func TestClient_FetchMatchups_TiedAndUnreportedCategories(t *testing.T) {
	const body = `{"fantasy_content":{"league":[{"league_key":"466.l.52855"},{"scoreboard":{"0":{"matchups":{
		"0":{"matchup":{"week":"2","status":"midevent","0":{"teams":{
			"0":{"team":[[{"team_key":"466.l.52855.t.3"},{"name":"Glass Eaters"}],
				{"team_points":{"total":"0"},"team_stats":{"stats":[
					{"stat":{"stat_id":"12","value":"88"}},{"stat":{"stat_id":"18","value":"4"}}]}}]},
			"1":{"team":[[{"team_key":"466.l.52855.t.4"},{"name":"Bench Mob"}],
				{"team_points":{"total":"0"},"team_stats":{"stats":[
					{"stat":{"stat_id":"12","value":"91"}},{"stat":{"stat_id":"18","value":"4"}}]}}]},
			"count":2}},
			"stat_winners":[{"stat_winner":{"stat_id":"18","is_tied":1}}]}},
		"count":1}}}}]}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	matchups, err := client.FetchMatchups(context.Background(), "466.l.52855", 2)

	require.NoError(t, err)
	require.Len(t, matchups, 1)
	assert.Equal(t, []model.CategoryResult{
		{Category: "pts", Team1Value: "88", Team2Value: "91"},
		{Category: "blk", Team1Value: "4", Team2Value: "4", IsTied: true},
	}, matchups[0].Categories)
}

func TestClient_FetchTransactions(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/league/466.l.52855/transactions;types=add,drop,trade": "transactions.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	transactions, err := client.FetchTransactions(context.Background(), "466.l.52855")

	require.NoError(t, err)
	require.Len(t, transactions, 4)

	assert.Equal(t, model.Transaction{
		LeagueKey:           "466.l.52855",
		TransactionKey:      "466.l.52855.tr.120",
		TransactionID:       "120",
		Type:                "add/drop",
		PlayerAction:        model.ActionAdd,
		Status:              "successful",
		Timestamp:           time.Unix(1764700000, 0).UTC(),
		PlayerID:            "6450",
		PlayerName:          "Jalen Duren",
		SourceType:          "freeagents",
		DestinationType:     "team",
		DestinationTeamKey:  "466.l.52855.t.1",
		DestinationTeamName: "Splash Bros",
	}, transactions[0])

	dropped := transactions[1]
	assert.Equal(t, "Kyle Lowry", dropped.PlayerName)
	assert.Equal(t, model.ActionDrop, dropped.PlayerAction)
	assert.Equal(t, "466.l.52855.t.1", dropped.SourceTeamKey)
	assert.Equal(t, "waivers", dropped.DestinationType)

	released := transactions[2]
	assert.Equal(t, "Al Horford", released.PlayerName)
	assert.Equal(t, model.ActionDrop, released.PlayerAction)
	assert.Equal(t, "team", released.SourceType)
	assert.Equal(t, "466.l.52855.t.2", released.SourceTeamKey)
	assert.Equal(t, "Paint Cleaners", released.SourceTeamName)
	assert.Equal(t, "waivers", released.DestinationTeamKey)
	assert.Equal(t, "Waivers", released.DestinationTeamName)

	traded := transactions[3]
	assert.Equal(t, "118", traded.TransactionID)
	assert.Equal(t, "Draymond Green", traded.PlayerName)
	assert.Equal(t, model.ActionTrade, traded.PlayerAction)
	assert.Equal(t, "466.l.52855.t.2", traded.SourceTeamKey)
	assert.Equal(t, "466.l.52855.t.1", traded.DestinationTeamKey)
}

func TestClient_FetchPlayerPool(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/league/466.l.52855/players;sort=AR;sort_type=season;start=0;count=25;out=ownership": "players.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	pool, err := client.FetchPlayerPool(context.Background(), "466.l.52855", 100)

	require.NoError(t, err)
	require.Len(t, pool, 3)

	assert.Equal(t, model.PoolPlayer{
		LeagueKey:       "466.l.52855",
		PlayerID:        "6583",
		Name:            "Nikola Jokic",
		Rank:            1,
		DisplayPosition: "C",
		Position:        "P",
		NBATeam:         "DEN",
		OwnershipType:   "team",
		OwnerTeamKey:    "466.l.52855.t.2",
	}, pool[0])
	assert.Equal(t, 2, pool[1].Rank)
	assert.Equal(t, "GTD", pool[1].Status)
	assert.Equal(t, "freeagents", pool[1].OwnershipType)
	assert.Empty(t, pool[1].OwnerTeamKey)
	assert.Equal(t, "Al Horford", pool[2].Name)
	assert.Equal(t, "available", pool[2].OwnershipType)
}

// playerPages serves total generated players in pages, honouring the start
// and count matrix parameters, and records every requested path.
func playerPages(t *testing.T, total int) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		var start, count int
		for _, param := range strings.Split(r.URL.Path, ";") {
			if v, ok := strings.CutPrefix(param, "start="); ok {
				start, _ = strconv.Atoi(v)
			}
			if v, ok := strings.CutPrefix(param, "count="); ok {
				count, _ = strconv.Atoi(v)
			}
		}

		var players []string
		for i := start; i < min(start+count, total); i++ {
			players = append(players, fmt.Sprintf(`"%d":{"player":[[{"player_id":"%d"},{"name":{"full":"Player %d"}}]]}`, i-start, 1000+i, i))
		}
		players = append(players, fmt.Sprintf(`"count":%d`, len(players)))
		fmt.Fprintf(w, `{"fantasy_content":{"league":[{"league_key":"466.l.52855"},{"players":{%s}}]}}`, strings.Join(players, ","))
	}))
	t.Cleanup(server.Close)
	return server, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), paths...)
	}
}

func TestClient_FetchPlayerPool_Paging(t *testing.T) {
	tests := []struct {
		name      string
		available int
		limit     int
		wantLen   int
		wantPages []string
	}{
		{
			name:      "stops at limit",
			available: 80,
			limit:     30,
			wantLen:   30,
			wantPages: []string{"start=0;count=25", "start=25;count=5"},
		},
		{
			name:      "stops on short page",
			available: 40,
			limit:     100,
			wantLen:   40,
			wantPages: []string{"start=0;count=25", "start=25;count=25"},
		},
		{
			name:      "stops on empty page",
			available: 50,
			limit:     60,
			wantLen:   50,
			wantPages: []string{"start=0;count=25", "start=25;count=25", "start=50;count=10"},
		},
		{
			name:      "zero limit reads nothing",
			available: 50,
			limit:     0,
			wantLen:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, paths := playerPages(t, tt.available)
			client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

			pool, err := client.FetchPlayerPool(context.Background(), "466.l.52855", tt.limit)

			require.NoError(t, err)
			require.Len(t, pool, tt.wantLen)
			for i, p := range pool {
				assert.Equal(t, i+1, p.Rank)
			}
			requested := paths()
			require.Len(t, requested, len(tt.wantPages))
			for i, page := range tt.wantPages {
				assert.Contains(t, requested[i], page)
			}
		})
	}
}

func TestClient_FetchTeams(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/league/466.l.52855/teams": "teams.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	teams, err := client.FetchTeams(context.Background(), "466.l.52855")

	require.NoError(t, err)
	assert.Equal(t, []model.Team{
		{Key: "466.l.52855.t.1", ID: "1", Name: "Splash Bros"},
		{Key: "466.l.52855.t.2", ID: "2", Name: "Paint Cleaners"},
	}, teams)
}

func TestClient_FetchRoster(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/team/466.l.52855.t.1/roster": "roster.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	players, err := client.FetchRoster(context.Background(), "466.l.52855.t.1")

	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Equal(t, model.RosterPlayer{
		TeamKey:  "466.l.52855.t.1",
		TeamName: "Splash Bros",
		PlayerID: "5583",
		Name:     "Stephen Curry",
		Position: "P",
		NBATeam:  "GSW",
	}, players[0])
	assert.Equal(t, "Draymond Green", players[1].Name)
	assert.Equal(t, "INJ", players[1].Status)
}

func TestClient_ListLeagues(t *testing.T) {
	server, _ := fixtureServer(t, map[string]string{
		"/users;use_login=1/games;game_codes=nba/leagues": "leagues.json",
	})
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	leagues, err := client.ListLeagues(context.Background(), "nba")

	require.NoError(t, err)
	assert.Equal(t, []model.League{
		{Key: "466.l.52855", Name: "Hardwood Degenerates", Season: "2025", GameCode: "nba"},
		{Key: "466.l.9001", Name: "Office Pool", Season: "2025", GameCode: "nba"},
	}, leagues)
}

func TestClient_APIError(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("testdata", "error.json"))
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write(body)
	}))
	defer server.Close()
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	_, err = client.FetchStandings(context.Background(), "466.l.52855")

	var apiErr *yahoo.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Description, "token_expired")
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<fantasy_content/>"))
	}))
	defer server.Close()
	client := yahoo.NewClientWithHTTPClient(server.Client(), server.URL)

	_, err := client.FetchTeams(context.Background(), "466.l.52855")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}
