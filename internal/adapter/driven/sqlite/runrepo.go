package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo records pipeline runs in the pipeline_runs table.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Record inserts the report. Run IDs are unique; recording the same run twice is an error.
func (r *RunRepo) Record(ctx context.Context, report model.RunReport) error {
	const query = `
		INSERT INTO pipeline_runs (
			run_id, identity, state, failed_stage, error, fetch_status, records_fetched,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Writer.ExecContext(ctx, query,
		report.RunID, report.Identity, string(report.State), string(report.FailedStage), report.Error,
		string(report.Result.Status), report.Result.RecordsFetched,
		formatTime(report.StartedAt), formatTime(report.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record pipeline run %s: %w", report.RunID, err)
	}
	return nil
}
