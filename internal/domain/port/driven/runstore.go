package driven

import (
	"context"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// RunStore records finished pipeline runs.
type RunStore interface {
	Record(ctx context.Context, report model.RunReport) error
}
