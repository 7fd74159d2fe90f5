// Command findleague prints the league keys of the authorized Yahoo user so
// one can be set as YAHOO_LEAGUE_KEY.
package main

import (
	"context"
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
	"github.com/ericfisherdev/leaguesync/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if !cfg.HasCredentialSource() {
		slog.Warn("no credential source configured, only a stored credential can be used",
			"hint", config.CredentialSourceHint,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	provisioner := application.NewProvisioner(
		sqliteadapter.NewCredentialRepo(db, cfg.SecretKey),
		source.Select(cfg.CredentialFile, cfg.OAuthJSON, cfg.ClientID, cfg.ClientSecret),
		application.ProvisionerConfig{Identity: cfg.Identity, TTL: cfg.CredentialTTL},
	)
	issuer := application.NewIssuer(
		sqliteadapter.NewTokenRepo(db, cfg.SecretKey),
		yahoo.NewAuthorizer(yahoo.AuthorizerConfig{RedirectURL: cfg.RedirectURL}),
		application.IssuerConfig{AuthCode: cfg.AuthCode, RefreshToken: cfg.RefreshToken},
	)
	finder := application.NewLeagueFinder(yahoo.NewClientFactory("", cfg.HTTPTimeout), nil)

	cred, err := provisioner.Provision(ctx)
	if err != nil {
		if !cfg.HasCredentialSource() {
			return fmt.Errorf("%w (%s)", err, config.CredentialSourceHint)
		}
		return err
	}
	token, err := issuer.Issue(ctx, cred)
	if err != nil {
		if application.NeedsConsent(err) {
			slog.Warn("approve access at the consent URL and set YAHOO_AUTH_CODE", "url", issuer.ConsentURL(cred))
		}
		return err
	}

	leagues, err := finder.Find(ctx, token, cfg.GameCode)
	if err != nil {
		return err
	}
	if len(leagues) == 0 {
		fmt.Printf("No %s leagues found for this account.\n", cfg.GameCode)
		return nil
	}

	fmt.Printf("Your %s leagues:\n", cfg.GameCode)
	for _, l := range leagues {
		fmt.Printf("  %s  %s (%s)\n", l.Key, l.Name, l.Season)
	}
	fmt.Println("Set YAHOO_LEAGUE_KEY to one of the keys above.")
	return nil
}
