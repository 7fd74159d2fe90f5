package model

import "time"

// FetchStatus is the outcome of a data fetch.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchFailure FetchStatus = "failure"
)

// FetchResult is the ephemeral outcome of the data fetch stage.
type FetchResult struct {
	Status         FetchStatus
	RecordsFetched int
	ErrorDetail    string
}

// Standing is one team's row in the league standings.
type Standing struct {
	LeagueKey   string
	TeamKey     string
	TeamName    string
	Rank        int
	Wins        int
	Losses      int
	Ties        int
	Percentage  float64
	GamesBack   float64
	PlayoffSeed int
	ExtractedAt time.Time
}

// Matchup is a head-to-head pairing for a scoring week.
type Matchup struct {
	LeagueKey     string
	Week          int
	WeekStart     string
	WeekEnd       string
	Status        string
	IsPlayoffs    bool
	IsTied        bool
	WinnerTeamKey string
	Team1Key      string
	Team1Name     string
	Team1Points   float64
	Team2Key      string
	Team2Name     string
	Team2Points   float64
	Categories    []CategoryResult
	ExtractedAt   time.Time
}

// CategoryResult is one scoring category of a head-to-head matchup. Values
// are kept as Yahoo formats them ("0.489", "64").
type CategoryResult struct {
	Category      string
	Team1Value    string
	Team2Value    string
	WinnerTeamKey string
	IsTied        bool
}

// Team is a fantasy team in a league.
type Team struct {
	Key  string
	ID   string
	Name string
}

// RosterPlayer is a player on a fantasy team's roster.
type RosterPlayer struct {
	LeagueKey   string
	TeamKey     string
	TeamName    string
	PlayerID    string
	Name        string
	Position    string
	Status      string
	NBATeam     string
	ExtractedAt time.Time
}

// SeasonWeeks is the scoring-week range of a league season.
type SeasonWeeks struct {
	Start   int
	Current int
	End     int
}

// ToDate returns the weeks from Start through Current, stopping at End.
func (w SeasonWeeks) ToDate() []int {
	last := min(w.Current, w.End)
	if w.Start < 1 || last < w.Start {
		return nil
	}
	weeks := make([]int, 0, last-w.Start+1)
	for week := w.Start; week <= last; week++ {
		weeks = append(weeks, week)
	}
	return weeks
}

// Transaction actions as recorded per player.
const (
	ActionAdd   = "add"
	ActionDrop  = "drop"
	ActionTrade = "trade"
)

// Transaction is one player's movement within a league transaction. An
// add/drop transaction yields one record per player involved.
type Transaction struct {
	LeagueKey           string
	TransactionKey      string
	TransactionID       string
	Type                string
	PlayerAction        string
	Status              string
	Timestamp           time.Time
	PlayerID            string
	PlayerName          string
	SourceType          string
	SourceTeamKey       string
	SourceTeamName      string
	DestinationType     string
	DestinationTeamKey  string
	DestinationTeamName string
	ExtractedAt         time.Time
}

// PoolPlayer is a player in the league's player pool, ranked by Yahoo's
// season average rank. Rank starts at 1.
type PoolPlayer struct {
	LeagueKey       string
	PlayerID        string
	Name            string
	Rank            int
	DisplayPosition string
	Position        string
	Status          string
	NBATeam         string
	OwnershipType   string
	OwnerTeamKey    string
	ExtractedAt     time.Time
}

// LeagueSnapshot groups every record fetched for a league in one run.
type LeagueSnapshot struct {
	RunID        string
	LeagueKey    string
	ExtractedAt  time.Time
	Standings    []Standing
	Matchups     []Matchup
	Players      []RosterPlayer
	Transactions []Transaction
	PlayerPool   []PoolPlayer
}

// RecordCount returns the total number of records in the snapshot.
func (s LeagueSnapshot) RecordCount() int {
	return len(s.Standings) + len(s.Matchups) + len(s.Players) + len(s.Transactions) + len(s.PlayerPool)
}

// League identifies a fantasy league the authorized user belongs to.
type League struct {
	Key      string
	Name     string
	Season   string
	GameCode string
}
