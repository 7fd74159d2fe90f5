package application

import (
	"fmt"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// transition validates a pipeline state change and returns the new state.
func transition(from, to model.PipelineState) (model.PipelineState, error) {
	if !isAllowedTransition(from, to) {
		return from, fmt.Errorf("disallowed pipeline transition: %s -> %s", from, to)
	}
	return to, nil
}

func isAllowedTransition(from, to model.PipelineState) bool {
	if to == model.StateFailed {
		return !from.IsTerminal()
	}
	switch from {
	case model.StateStart:
		return to == model.StateProvisioned
	case model.StateProvisioned:
		return to == model.StateAuthorized
	case model.StateAuthorized:
		return to == model.StateFetched
	default:
		return false
	}
}
