package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/leaguesync/internal/adapter/driven/source"
	sqliteadapter "github.com/ericfisherdev/leaguesync/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/leaguesync/internal/adapter/driven/yahoo"
	"github.com/ericfisherdev/leaguesync/internal/application"
	"github.com/ericfisherdev/leaguesync/internal/config"
	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireLeague(); err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	slog.Info("config loaded",
		"env", cfg.Env,
		"identity", cfg.Identity,
		"league", cfg.LeagueKey,
		"db_path", cfg.DBPath,
		"http_timeout", cfg.HTTPTimeout,
	)
	if !cfg.HasCredentialSource() {
		slog.Warn("no credential source configured, only a stored credential can be used",
			"hint", config.CredentialSourceHint,
		)
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	tokenStore := sqliteadapter.NewTokenRepo(db, cfg.SecretKey)
	snapshotStore := sqliteadapter.NewSnapshotRepo(db)
	runStore := sqliteadapter.NewRunRepo(db)
	credentialSource := source.Select(cfg.CredentialFile, cfg.OAuthJSON, cfg.ClientID, cfg.ClientSecret)
	authorizer := yahoo.NewAuthorizer(yahoo.AuthorizerConfig{RedirectURL: cfg.RedirectURL})
	clients := yahoo.NewClientFactory("", cfg.HTTPTimeout)

	// 6. Create stage services and the pipeline.
	provisioner := application.NewProvisioner(credentialStore, credentialSource, application.ProvisionerConfig{
		Identity: cfg.Identity,
		TTL:      cfg.CredentialTTL,
	})
	issuer := application.NewIssuer(tokenStore, authorizer, application.IssuerConfig{
		AuthCode:     cfg.AuthCode,
		RefreshToken: cfg.RefreshToken,
	})
	fetcher := application.NewFetcher(clients, snapshotStore, application.FetcherConfig{
		LeagueKey:       cfg.LeagueKey,
		PlayerPoolLimit: cfg.PlayerPoolLimit,
	})
	pipeline := application.NewPipeline(provisioner, issuer, fetcher, runStore, nil)

	// 7. Run once.
	report, err := pipeline.Run(ctx)
	if err != nil {
		var provErr *model.ProvisioningError
		if errors.As(err, &provErr) && !cfg.HasCredentialSource() {
			return fmt.Errorf("%w (%s)", err, config.CredentialSourceHint)
		}
		explainAuthorization(ctx, err, credentialStore, issuer, cfg.Identity)
		return err
	}

	// 8. Preview what was stored.
	standings, err := snapshotStore.LatestStandings(ctx, cfg.LeagueKey)
	if err != nil {
		slog.Warn("could not read back standings", "error", err)
	}
	for _, s := range standings {
		slog.Info("standing",
			"rank", s.Rank,
			"team", s.TeamName,
			"wins", s.Wins,
			"losses", s.Losses,
			"ties", s.Ties,
			"games_back", s.GamesBack,
		)
	}

	slog.Info("leaguesync finished",
		"run_id", report.RunID,
		"state", report.State,
		"records", report.Result.RecordsFetched,
	)
	return nil
}

// explainAuthorization logs the consent URL when a run stopped because no
// grant was available or Yahoo revoked the stored one, so the operator can
// set a fresh YAHOO_AUTH_CODE.
func explainAuthorization(ctx context.Context, err error, creds *sqliteadapter.CredentialRepo, issuer *application.Issuer, identity string) {
	if !application.NeedsConsent(err) {
		return
	}
	cred, loadErr := creds.Load(ctx, identity)
	if loadErr != nil || cred == nil {
		return
	}
	slog.Warn("authorization required: open the URL, approve access and set YAHOO_AUTH_CODE to the code shown",
		"url", issuer.ConsentURL(*cred),
	)
}
