package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port interface.
// Every Save appends rows; rows from earlier runs are kept for history.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save appends all records of the snapshot in a single transaction.
func (r *SnapshotRepo) Save(ctx context.Context, snapshot model.LeagueSnapshot) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertStandings(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := insertMatchups(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := insertPlayers(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := insertTransactions(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := insertPlayerPool(ctx, tx, snapshot); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot for %s: %w", snapshot.LeagueKey, err)
	}
	return nil
}

func insertStandings(ctx context.Context, tx *sql.Tx, snapshot model.LeagueSnapshot) error {
	const query = `
		INSERT INTO standings (
			run_id, league_key, team_key, team_name, rank, wins, losses, ties,
			percentage, games_back, playoff_seed, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, s := range snapshot.Standings {
		_, err := tx.ExecContext(ctx, query,
			snapshot.RunID, s.LeagueKey, s.TeamKey, s.TeamName, s.Rank, s.Wins, s.Losses, s.Ties,
			s.Percentage, s.GamesBack, s.PlayoffSeed, formatTime(s.ExtractedAt),
		)
		if err != nil {
			return fmt.Errorf("insert standing %s: %w", s.TeamKey, err)
		}
	}
	return nil
}

func insertMatchups(ctx context.Context, tx *sql.Tx, snapshot model.LeagueSnapshot) error {
	const query = `
		INSERT INTO matchups (
			run_id, league_key, week, week_start, week_end, status, is_playoffs, is_tied,
			winner_team_key, team1_key, team1_name, team1_points, team2_key, team2_name, team2_points,
			extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, m := range snapshot.Matchups {
		_, err := tx.ExecContext(ctx, query,
			snapshot.RunID, m.LeagueKey, m.Week, m.WeekStart, m.WeekEnd, m.Status,
			boolToInt(m.IsPlayoffs), boolToInt(m.IsTied), m.WinnerTeamKey,
			m.Team1Key, m.Team1Name, m.Team1Points, m.Team2Key, m.Team2Name, m.Team2Points,
			formatTime(m.ExtractedAt),
		)
		if err != nil {
			return fmt.Errorf("insert matchup %s vs %s: %w", m.Team1Key, m.Team2Key, err)
		}
		if err := insertCategories(ctx, tx, snapshot.RunID, m); err != nil {
			return err
		}
	}
	return nil
}

func insertCategories(ctx context.Context, tx *sql.Tx, runID string, m model.Matchup) error {
	const query = `
		INSERT INTO matchup_categories (
			run_id, league_key, week, team1_key, team2_key, category, team1_value, team2_value,
			winner_team_key, is_tied, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, c := range m.Categories {
		_, err := tx.ExecContext(ctx, query,
			runID, m.LeagueKey, m.Week, m.Team1Key, m.Team2Key, c.Category, c.Team1Value, c.Team2Value,
			c.WinnerTeamKey, boolToInt(c.IsTied), formatTime(m.ExtractedAt),
		)
		if err != nil {
			return fmt.Errorf("insert matchup category %s week %d: %w", c.Category, m.Week, err)
		}
	}
	return nil
}

func insertPlayers(ctx context.Context, tx *sql.Tx, snapshot model.LeagueSnapshot) error {
	const query = `
		INSERT INTO roster_players (
			run_id, league_key, team_key, team_name, player_id, player_name, position, status,
			nba_team, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, p := range snapshot.Players {
		_, err := tx.ExecContext(ctx, query,
			snapshot.RunID, p.LeagueKey, p.TeamKey, p.TeamName, p.PlayerID, p.Name, p.Position, p.Status,
			p.NBATeam, formatTime(p.ExtractedAt),
		)
		if err != nil {
			return fmt.Errorf("insert roster player %s on %s: %w", p.PlayerID, p.TeamKey, err)
		}
	}
	return nil
}

func insertTransactions(ctx context.Context, tx *sql.Tx, snapshot model.LeagueSnapshot) error {
	const query = `
		INSERT INTO transactions (
			run_id, league_key, transaction_key, transaction_id, type, player_action, status, timestamp,
			player_id, player_name, source_type, source_team_key, source_team_name,
			destination_type, destination_team_key, destination_team_name, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, t := range snapshot.Transactions {
		var timestamp *time.Time
		if !t.Timestamp.IsZero() {
			timestamp = &t.Timestamp
		}
		_, err := tx.ExecContext(ctx, query,
			snapshot.RunID, t.LeagueKey, t.TransactionKey, t.TransactionID, t.Type, t.PlayerAction, t.Status,
			nullableTime(timestamp), t.PlayerID, t.PlayerName, t.SourceType, t.SourceTeamKey, t.SourceTeamName,
			t.DestinationType, t.DestinationTeamKey, t.DestinationTeamName, formatTime(t.ExtractedAt),
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s player %s: %w", t.TransactionID, t.PlayerID, err)
		}
	}
	return nil
}

func insertPlayerPool(ctx context.Context, tx *sql.Tx, snapshot model.LeagueSnapshot) error {
	const query = `
		INSERT INTO player_pool (
			run_id, league_key, player_id, player_name, season_rank, display_position, position,
			status, nba_team, ownership_type, owner_team_key, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, p := range snapshot.PlayerPool {
		_, err := tx.ExecContext(ctx, query,
			snapshot.RunID, p.LeagueKey, p.PlayerID, p.Name, p.Rank, p.DisplayPosition, p.Position,
			p.Status, p.NBATeam, p.OwnershipType, p.OwnerTeamKey, formatTime(p.ExtractedAt),
		)
		if err != nil {
			return fmt.Errorf("insert pool player %s: %w", p.PlayerID, err)
		}
	}
	return nil
}

// LatestStandings returns the standings written by the most recent run for
// leagueKey, ordered by rank.
func (r *SnapshotRepo) LatestStandings(ctx context.Context, leagueKey string) ([]model.Standing, error) {
	const query = `
		SELECT league_key, team_key, team_name, rank, wins, losses, ties,
		       percentage, games_back, playoff_seed, extracted_at
		FROM standings
		WHERE league_key = ?
		  AND run_id = (
			SELECT run_id FROM standings WHERE league_key = ? ORDER BY id DESC LIMIT 1
		  )
		ORDER BY rank, team_key
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, leagueKey, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("query latest standings for %s: %w", leagueKey, err)
	}
	defer rows.Close()

	standings := []model.Standing{}
	for rows.Next() {
		var s model.Standing
		var extractedAt string
		if err := rows.Scan(
			&s.LeagueKey, &s.TeamKey, &s.TeamName, &s.Rank, &s.Wins, &s.Losses, &s.Ties,
			&s.Percentage, &s.GamesBack, &s.PlayoffSeed, &extractedAt,
		); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		s.ExtractedAt, err = parseTime(extractedAt)
		if err != nil {
			return nil, fmt.Errorf("parse extracted_at for standing %s: %w", s.TeamKey, err)
		}
		standings = append(standings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings: %w", err)
	}

	return standings, nil
}
