package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// ProvisionerConfig holds the Provisioner's settings. A zero TTL provisions
// credentials that never expire. Now defaults to time.Now.
type ProvisionerConfig struct {
	Identity string
	TTL      time.Duration
	Now      func() time.Time
}

// Provisioner establishes the base credential for an identity. The source is
// read on every run: a valid stored credential with the same client id and
// secret is reused, otherwise a new credential is built and persisted. When
// the source cannot be read a valid stored credential is still reused.
type Provisioner struct {
	store    driven.CredentialStore
	source   driven.CredentialSource
	identity string
	ttl      time.Duration
	now      func() time.Time
}

// NewProvisioner creates a new Provisioner.
func NewProvisioner(store driven.CredentialStore, source driven.CredentialSource, cfg ProvisionerConfig) *Provisioner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provisioner{
		store:    store,
		source:   source,
		identity: cfg.Identity,
		ttl:      cfg.TTL,
		now:      now,
	}
}

// Provision returns a credential valid at the current time. Every failure is
// a *model.ProvisioningError.
func (p *Provisioner) Provision(ctx context.Context) (model.Credential, error) {
	now := p.now()

	existing, err := p.store.Load(ctx, p.identity)
	if err != nil {
		return model.Credential{}, &model.ProvisioningError{Source: "store", Err: fmt.Errorf("load credential: %w", err)}
	}
	if existing != nil {
		if verr := existing.Validate(now); verr != nil {
			slog.Info("stored credential unusable, provisioning again", "identity", p.identity, "reason", verr)
			existing = nil
		}
	}

	material, err := p.source.Read(ctx)
	if err != nil {
		if existing != nil {
			slog.Debug("credential source unreadable, reusing stored credential",
				"identity", p.identity, "source", p.source.Name(), "error", err)
			return *existing, nil
		}
		return model.Credential{}, &model.ProvisioningError{Source: p.source.Name(), Err: err}
	}

	if existing != nil {
		if existing.ID == material.ClientID && existing.Secret == material.ClientSecret {
			slog.Debug("reusing stored credential", "identity", p.identity)
			return *existing, nil
		}
		slog.Info("credential source changed, replacing stored credential", "identity", p.identity, "source", p.source.Name())
	}

	cred := model.Credential{
		Identity:  p.identity,
		ID:        material.ClientID,
		Secret:    material.ClientSecret,
		CreatedAt: now,
	}
	if p.ttl > 0 {
		expiresAt := now.Add(p.ttl)
		cred.ExpiresAt = &expiresAt
	}
	if err := cred.Validate(now); err != nil {
		return model.Credential{}, &model.ProvisioningError{Source: p.source.Name(), Err: err}
	}

	if err := p.store.Save(ctx, cred); err != nil {
		return model.Credential{}, &model.ProvisioningError{Source: "store", Err: fmt.Errorf("save credential: %w", err)}
	}

	slog.Info("credential provisioned", "identity", p.identity, "source", p.source.Name())
	return cred, nil
}
