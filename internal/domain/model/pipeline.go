package model

import "time"

// PipelineState is the state of a pipeline run.
type PipelineState string

const (
	StateStart       PipelineState = "start"
	StateProvisioned PipelineState = "provisioned"
	StateAuthorized  PipelineState = "authorized"
	StateFetched     PipelineState = "fetched"
	StateFailed      PipelineState = "failed"
)

// IsTerminal reports whether no further transition is possible from s.
func (s PipelineState) IsTerminal() bool {
	return s == StateFetched || s == StateFailed
}

// Stage names one of the three pipeline steps.
type Stage string

const (
	StageProvision Stage = "provision"
	StageAuthorize Stage = "authorize"
	StageFetch     Stage = "fetch"
)

// RunReport describes a finished pipeline run.
type RunReport struct {
	RunID       string
	Identity    string
	State       PipelineState
	FailedStage Stage // Empty unless State is StateFailed.
	Error       string
	Result      FetchResult
	StartedAt   time.Time
	FinishedAt  time.Time
}
