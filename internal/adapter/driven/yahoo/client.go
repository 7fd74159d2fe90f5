package yahoo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// DefaultBaseURL is the Fantasy Sports API v2 root.
const DefaultBaseURL = "https://fantasysports.yahooapis.com/fantasy/v2"

// Compile-time interface satisfaction checks.
var (
	_ driven.FantasyClient        = (*Client)(nil)
	_ driven.FantasyClientFactory = (*ClientFactory)(nil)
)

// APIError is returned when the Fantasy API answers with a non-2xx status.
type APIError struct {
	StatusCode  int
	Path        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.Path, e.StatusCode, e.Description)
}

// Client implements the driven.FantasyClient port over the JSON flavour of
// the Fantasy Sports API.
type Client struct {
	http    *http.Client
	baseURL string
}

// newClient creates a Fantasy API client authorized with token. The transport
// stack is:
//  1. oauth2.Transport (adds the bearer Authorization header)
//  2. httpcache (ETag-based conditional request caching)
func newClient(baseURL string, token model.Token, timeout time.Duration) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Expiry:      token.ExpiresAt,
	})
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: src,
			Base:   httpcache.NewMemoryCacheTransport(),
		},
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// ClientFactory builds a Client per issued token.
type ClientFactory struct {
	baseURL string
	timeout time.Duration
}

// NewClientFactory creates a ClientFactory. An empty baseURL selects DefaultBaseURL.
func NewClientFactory(baseURL string, timeout time.Duration) *ClientFactory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ClientFactory{baseURL: baseURL, timeout: timeout}
}

// ForToken returns a client that authenticates every request with token.
func (f *ClientFactory) ForToken(token model.Token) driven.FantasyClient {
	return newClient(f.baseURL, token, f.timeout)
}

// get fetches path and returns the fantasy_content member of the response.
func (c *Client) get(ctx context.Context, path string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?format=json", nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("building request for %s: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("yahoo: non-2xx response", "path", path, "status", resp.StatusCode)
		return gjson.Result{}, &APIError{
			StatusCode:  resp.StatusCode,
			Path:        path,
			Description: gjson.GetBytes(body, "error.description").String(),
		}
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("GET %s: response is not valid JSON", path)
	}
	content := gjson.GetBytes(body, "fantasy_content")
	if !content.Exists() {
		return gjson.Result{}, fmt.Errorf("GET %s: response has no fantasy_content", path)
	}
	return content, nil
}

// FetchStandings retrieves league standings ordered as Yahoo returns them.
func (c *Client) FetchStandings(ctx context.Context, leagueKey string) ([]model.Standing, error) {
	content, err := c.get(ctx, "/league/"+leagueKey+"/standings")
	if err != nil {
		return nil, err
	}

	league := flatten(content.Get("league"))
	teams := flatten(league["standings"])["teams"]

	standings := []model.Standing{}
	each(teams, func(entry gjson.Result) {
		team := flatten(entry.Get("team"))
		ts := team["team_standings"]
		standings = append(standings, model.Standing{
			LeagueKey:   leagueKey,
			TeamKey:     team["team_key"].String(),
			TeamName:    team["name"].String(),
			Rank:        int(ts.Get("rank").Int()),
			Wins:        int(ts.Get("outcome_totals.wins").Int()),
			Losses:      int(ts.Get("outcome_totals.losses").Int()),
			Ties:        int(ts.Get("outcome_totals.ties").Int()),
			Percentage:  ts.Get("outcome_totals.percentage").Float(),
			GamesBack:   gamesBack(ts.Get("games_back")),
			PlayoffSeed: int(ts.Get("playoff_seed").Int()),
		})
	})
	return standings, nil
}

// gamesBack parses games_back; the leader is reported as "-".
func gamesBack(r gjson.Result) float64 {
	if r.String() == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(r.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// FetchSeasonWeeks reads the scoring-week range from the league metadata. A
// missing start_week defaults to 1 and a missing end_week to the current week.
func (c *Client) FetchSeasonWeeks(ctx context.Context, leagueKey string) (model.SeasonWeeks, error) {
	content, err := c.get(ctx, "/league/"+leagueKey)
	if err != nil {
		return model.SeasonWeeks{}, err
	}

	league := flatten(content.Get("league"))
	weeks := model.SeasonWeeks{
		Start:   int(league["start_week"].Int()),
		Current: int(league["current_week"].Int()),
		End:     int(league["end_week"].Int()),
	}
	if weeks.Current < 1 {
		return model.SeasonWeeks{}, fmt.Errorf("league %s has no current_week", leagueKey)
	}
	if weeks.Start < 1 {
		weeks.Start = 1
	}
	if weeks.End < 1 {
		weeks.End = weeks.Current
	}
	return weeks, nil
}

// FetchMatchups retrieves the scoreboard for week.
func (c *Client) FetchMatchups(ctx context.Context, leagueKey string, week int) ([]model.Matchup, error) {
	content, err := c.get(ctx, fmt.Sprintf("/league/%s/scoreboard;week=%d", leagueKey, week))
	if err != nil {
		return nil, err
	}

	scoreboard := flatten(content.Get("league"))["scoreboard"]

	matchups := []model.Matchup{}
	each(scoreboard.Get("0.matchups"), func(entry gjson.Result) {
		m := entry.Get("matchup")
		matchup := model.Matchup{
			LeagueKey:     leagueKey,
			Week:          int(m.Get("week").Int()),
			WeekStart:     m.Get("week_start").String(),
			WeekEnd:       m.Get("week_end").String(),
			Status:        m.Get("status").String(),
			IsPlayoffs:    m.Get("is_playoffs").Bool(),
			IsTied:        m.Get("is_tied").Bool(),
			WinnerTeamKey: m.Get("winner_team_key").String(),
		}

		var stats [2]map[string]string
		side := 0
		each(m.Get("0.teams"), func(t gjson.Result) {
			team := flatten(t.Get("team"))
			key, name := team["team_key"].String(), team["name"].String()
			points := team["team_points"].Get("total").Float()
			switch side {
			case 0:
				matchup.Team1Key, matchup.Team1Name, matchup.Team1Points = key, name, points
			case 1:
				matchup.Team2Key, matchup.Team2Name, matchup.Team2Points = key, name, points
			}
			if side < len(stats) {
				stats[side] = teamStats(team["team_stats"])
			}
			side++
		})
		matchup.Categories = matchupCategories(stats, m.Get("stat_winners"))
		matchups = append(matchups, matchup)
	})
	return matchups, nil
}

// scoringCategories maps Yahoo NBA stat ids to the nine head-to-head
// categories, in display order.
var scoringCategories = []struct{ id, name string }{
	{"5", "fg_pct"},
	{"8", "ft_pct"},
	{"10", "threes"},
	{"12", "pts"},
	{"15", "reb"},
	{"16", "ast"},
	{"17", "stl"},
	{"18", "blk"},
	{"19", "to"},
}

func teamStats(r gjson.Result) map[string]string {
	values := make(map[string]string)
	r.Get("stats").ForEach(func(_, s gjson.Result) bool {
		stat := s.Get("stat")
		values[stat.Get("stat_id").String()] = stat.Get("value").String()
		return true
	})
	return values
}

// matchupCategories pairs both teams' values with the category winner.
// Categories neither team reports and Yahoo has not decided are left out.
func matchupCategories(stats [2]map[string]string, winners gjson.Result) []model.CategoryResult {
	decided := make(map[string]gjson.Result)
	winners.ForEach(func(_, w gjson.Result) bool {
		sw := w.Get("stat_winner")
		decided[sw.Get("stat_id").String()] = sw
		return true
	})

	var results []model.CategoryResult
	for _, c := range scoringCategories {
		v1, ok1 := stats[0][c.id]
		v2, ok2 := stats[1][c.id]
		w, ok3 := decided[c.id]
		if !ok1 && !ok2 && !ok3 {
			continue
		}
		results = append(results, model.CategoryResult{
			Category:      c.name,
			Team1Value:    v1,
			Team2Value:    v2,
			WinnerTeamKey: w.Get("winner_team_key").String(),
			IsTied:        w.Get("is_tied").Bool(),
		})
	}
	return results
}

// FetchTransactions retrieves add, drop and trade transactions. Each player
// moved becomes one record; a player listed twice under the same transaction
// id is kept once.
func (c *Client) FetchTransactions(ctx context.Context, leagueKey string) ([]model.Transaction, error) {
	content, err := c.get(ctx, "/league/"+leagueKey+"/transactions;types=add,drop,trade")
	if err != nil {
		return nil, err
	}

	transactions := []model.Transaction{}
	seen := make(map[string]bool)
	each(flatten(content.Get("league"))["transactions"], func(entry gjson.Result) {
		tr := flatten(entry.Get("transaction"))
		base := model.Transaction{
			LeagueKey:      leagueKey,
			TransactionKey: tr["transaction_key"].String(),
			TransactionID:  tr["transaction_id"].String(),
			Type:           tr["type"].String(),
			Status:         tr["status"].String(),
			Timestamp:      unixTime(tr["timestamp"]),
		}

		each(tr["players"], func(pe gjson.Result) {
			p := flatten(pe.Get("player"))
			name := p["name"].Get("full").String()
			if name == "" {
				return
			}
			t := base
			t.PlayerID = p["player_id"].String()
			t.PlayerName = name
			key := t.TransactionID + "_" + t.PlayerID
			if seen[key] {
				return
			}
			seen[key] = true

			data := flatten(p["transaction_data"])
			t.SourceType = data["source_type"].String()
			t.SourceTeamKey = data["source_team_key"].String()
			t.SourceTeamName = data["source_team_name"].String()
			t.DestinationType = data["destination_type"].String()
			t.DestinationTeamKey = data["destination_team_key"].String()
			t.DestinationTeamName = data["destination_team_name"].String()
			normalizeMove(&t, data["type"].String())
			transactions = append(transactions, t)
		})
	})
	return transactions, nil
}

// normalizeMove sets PlayerAction from the per-player move type, falling back
// to the transaction type and then the source/destination shape. Drops that
// name the releasing team only as destination are rewritten as team to waivers.
func normalizeMove(t *model.Transaction, moveType string) {
	if moveType == model.ActionDrop && t.DestinationTeamKey != "" && t.SourceTeamKey == "" {
		t.SourceType, t.SourceTeamKey, t.SourceTeamName = "team", t.DestinationTeamKey, t.DestinationTeamName
		t.DestinationType, t.DestinationTeamKey, t.DestinationTeamName = "waivers", "waivers", "Waivers"
	}

	action := moveType
	if action == "" {
		switch {
		case t.Type == model.ActionAdd || t.Type == model.ActionDrop || t.Type == model.ActionTrade:
			action = t.Type
		case t.DestinationTeamKey != "" && t.SourceType == "freeagents":
			action = model.ActionAdd
		case t.SourceTeamKey != "" && t.DestinationType == "waivers":
			action = model.ActionDrop
		}
	}
	t.PlayerAction = action
}

// unixTime converts a Yahoo epoch-seconds value; zero or missing yields the zero time.
func unixTime(r gjson.Result) time.Time {
	if secs := r.Int(); secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}

// playerPageSize is the largest page the players collection returns.
const playerPageSize = 25

// FetchPlayerPool pages through the league's players sorted by season average
// rank until limit players are read or a short page ends the pool. Rank is
// the 1-based position in that order.
func (c *Client) FetchPlayerPool(ctx context.Context, leagueKey string, limit int) ([]model.PoolPlayer, error) {
	pool := []model.PoolPlayer{}
	seen := make(map[string]bool)

	for start := 0; start < limit; start += playerPageSize {
		count := min(playerPageSize, limit-start)
		path := fmt.Sprintf("/league/%s/players;sort=AR;sort_type=season;start=%d;count=%d;out=ownership", leagueKey, start, count)
		content, err := c.get(ctx, path)
		if err != nil {
			return nil, err
		}

		read := 0
		each(flatten(content.Get("league"))["players"], func(entry gjson.Result) {
			read++
			p := flatten(entry.Get("player"))
			id, name := p["player_id"].String(), p["name"].Get("full").String()
			if name == "" || seen[id] {
				return
			}
			seen[id] = true

			ownership := p["ownership"]
			ownershipType := ownership.Get("ownership_type").String()
			if ownershipType == "" {
				ownershipType = "available"
			}
			pool = append(pool, model.PoolPlayer{
				LeagueKey:       leagueKey,
				PlayerID:        id,
				Name:            name,
				Rank:            start + read,
				DisplayPosition: p["display_position"].String(),
				Position:        p["position_type"].String(),
				Status:          p["status"].String(),
				NBATeam:         p["editorial_team_abbr"].String(),
				OwnershipType:   ownershipType,
				OwnerTeamKey:    ownership.Get("owner_team_key").String(),
			})
		})
		slog.Debug("yahoo: player page read", "league", leagueKey, "start", start, "players", read)

		if read < count {
			break
		}
	}
	return pool, nil
}

// FetchTeams retrieves every team in the league.
func (c *Client) FetchTeams(ctx context.Context, leagueKey string) ([]model.Team, error) {
	content, err := c.get(ctx, "/league/"+leagueKey+"/teams")
	if err != nil {
		return nil, err
	}

	teams := []model.Team{}
	each(flatten(content.Get("league"))["teams"], func(entry gjson.Result) {
		team := flatten(entry.Get("team"))
		teams = append(teams, model.Team{
			Key:  team["team_key"].String(),
			ID:   team["team_id"].String(),
			Name: team["name"].String(),
		})
	})
	return teams, nil
}

// FetchRoster retrieves the current roster of teamKey. LeagueKey is left for
// the caller to fill.
func (c *Client) FetchRoster(ctx context.Context, teamKey string) ([]model.RosterPlayer, error) {
	content, err := c.get(ctx, "/team/"+teamKey+"/roster")
	if err != nil {
		return nil, err
	}

	team := flatten(content.Get("team"))
	teamName := team["name"].String()

	players := []model.RosterPlayer{}
	each(team["roster"].Get("0.players"), func(entry gjson.Result) {
		p := flatten(entry.Get("player"))
		position := p["position_type"].String()
		if position == "" {
			position = p["display_position"].String()
		}
		players = append(players, model.RosterPlayer{
			TeamKey:  teamKey,
			TeamName: teamName,
			PlayerID: p["player_id"].String(),
			Name:     p["name"].Get("full").String(),
			Position: position,
			Status:   p["status"].String(),
			NBATeam:  p["editorial_team_abbr"].String(),
		})
	})
	return players, nil
}

// ListLeagues returns the logged-in user's leagues for gameCode.
func (c *Client) ListLeagues(ctx context.Context, gameCode string) ([]model.League, error) {
	content, err := c.get(ctx, "/users;use_login=1/games;game_codes="+gameCode+"/leagues")
	if err != nil {
		return nil, err
	}

	leagues := []model.League{}
	each(content.Get("users"), func(u gjson.Result) {
		user := flatten(u.Get("user"))
		each(user["games"], func(g gjson.Result) {
			game := flatten(g.Get("game"))
			code := game["code"].String()
			each(game["leagues"], func(l gjson.Result) {
				league := flatten(l.Get("league"))
				leagues = append(leagues, model.League{
					Key:      league["league_key"].String(),
					Name:     league["name"].String(),
					Season:   league["season"].String(),
					GameCode: code,
				})
			})
		})
	})
	return leagues, nil
}
