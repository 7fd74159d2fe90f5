package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// CredentialProvisioner produces the base credential for a run.
type CredentialProvisioner interface {
	Provision(ctx context.Context) (model.Credential, error)
}

// AuthorizationIssuer exchanges a credential for a token.
type AuthorizationIssuer interface {
	Issue(ctx context.Context, cred model.Credential) (model.Token, error)
}

// DataFetcher retrieves and stores data using a token.
type DataFetcher interface {
	Fetch(ctx context.Context, token model.Token) (model.FetchResult, error)
}

// Pipeline runs provision, authorize and fetch strictly in order. The first
// failing stage ends the run; later stages are never attempted.
type Pipeline struct {
	provisioner CredentialProvisioner
	issuer      AuthorizationIssuer
	fetcher     DataFetcher
	runs        driven.RunStore
	now         func() time.Time
}

// NewPipeline creates a new Pipeline. runs may be nil to skip run recording.
func NewPipeline(
	provisioner CredentialProvisioner,
	issuer AuthorizationIssuer,
	fetcher DataFetcher,
	runs driven.RunStore,
	now func() time.Time,
) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		provisioner: provisioner,
		issuer:      issuer,
		fetcher:     fetcher,
		runs:        runs,
		now:         now,
	}
}

// Run executes one pipeline run. On failure the returned error is a
// *model.StageError wrapping the failing stage's error unchanged, and the
// report's State is model.StateFailed.
func (p *Pipeline) Run(ctx context.Context) (model.RunReport, error) {
	report := model.RunReport{
		RunID:     uuid.NewString(),
		State:     model.StateStart,
		StartedAt: p.now(),
	}
	ctx = WithRunID(ctx, report.RunID)
	log := slog.With("run_id", report.RunID)
	log.Info("pipeline run started")

	cred, err := p.provisioner.Provision(ctx)
	if err == nil {
		err = p.advance(&report, model.StateProvisioned)
	}
	if err != nil {
		return p.fail(ctx, report, model.StageProvision, err)
	}
	report.Identity = cred.Identity
	log.Info("stage complete", "stage", model.StageProvision, "identity", cred.Identity)

	token, err := p.issuer.Issue(ctx, cred)
	if err == nil {
		err = p.advance(&report, model.StateAuthorized)
	}
	if err != nil {
		return p.fail(ctx, report, model.StageAuthorize, err)
	}
	log.Info("stage complete", "stage", model.StageAuthorize, "expires_at", token.ExpiresAt)

	result, err := p.fetcher.Fetch(ctx, token)
	report.Result = result
	if err == nil {
		err = p.advance(&report, model.StateFetched)
	}
	if err != nil {
		return p.fail(ctx, report, model.StageFetch, err)
	}
	log.Info("stage complete", "stage", model.StageFetch, "records", result.RecordsFetched)

	report.FinishedAt = p.now()
	p.record(ctx, report)
	log.Info("pipeline run finished", "state", report.State, "duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (p *Pipeline) advance(report *model.RunReport, to model.PipelineState) error {
	next, err := transition(report.State, to)
	if err != nil {
		return err
	}
	report.State = next
	return nil
}

func (p *Pipeline) fail(ctx context.Context, report model.RunReport, stage model.Stage, err error) (model.RunReport, error) {
	if next, terr := transition(report.State, model.StateFailed); terr == nil {
		report.State = next
	}
	report.FailedStage = stage
	report.Error = err.Error()
	report.FinishedAt = p.now()
	if report.Result.Status == "" {
		report.Result = model.FetchResult{Status: model.FetchFailure, ErrorDetail: err.Error()}
	}

	slog.Error("pipeline run failed", "run_id", report.RunID, "stage", stage, "error", err)
	p.record(ctx, report)
	return report, &model.StageError{Stage: stage, Err: err}
}

func (p *Pipeline) record(ctx context.Context, report model.RunReport) {
	if p.runs == nil {
		return
	}
	if err := p.runs.Record(ctx, report); err != nil {
		slog.Error("failed to record pipeline run", "run_id", report.RunID, "error", err)
	}
}
