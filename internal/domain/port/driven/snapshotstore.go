package driven

import (
	"context"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// SnapshotStore defines the driven port for fetched league data. Snapshots are
// appended; earlier runs are never overwritten.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot model.LeagueSnapshot) error
	// LatestStandings returns the standings of the most recent snapshot for
	// leagueKey ordered by rank. Returns an empty slice if none exist.
	LatestStandings(ctx context.Context, leagueKey string) ([]model.Standing, error)
}
