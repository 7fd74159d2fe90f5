// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env      string `validate:"oneof=development production"`
	Identity string `validate:"required"`

	// Credential sources. Only one needs to be set; see source.Select.
	ClientID       string
	ClientSecret   string
	OAuthJSON      string
	CredentialFile string
	CredentialTTL  time.Duration `validate:"gte=0"`

	// Bootstrap grants, used until a refresh token has been stored.
	AuthCode     string
	RefreshToken string
	RedirectURL  string `validate:"required"`

	LeagueKey string
	GameCode  string `validate:"required"`

	// PlayerPoolLimit caps the ranked player pool read per run; 0 skips it.
	PlayerPoolLimit int `validate:"gte=0"`

	DBPath      string        `validate:"required"`
	SecretKey   []byte        `validate:"len=32"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// CredentialSourceHint names the variables that configure a credential source.
const CredentialSourceHint = "set YAHOO_CLIENT_ID and YAHOO_CLIENT_SECRET, YAHOO_OAUTH_JSON or LEAGUESYNC_CREDENTIAL_FILE"

// HasCredentialSource returns true when at least one credential source is configured.
func (c *Config) HasCredentialSource() bool {
	return c.CredentialFile != "" || c.OAuthJSON != "" || (c.ClientID != "" && c.ClientSecret != "")
}

// RequireLeague returns an error when no league key is configured. Only the
// sync command needs one; league discovery runs without it.
func (c *Config) RequireLeague() error {
	if strings.TrimSpace(c.LeagueKey) == "" {
		return errors.New("YAHOO_LEAGUE_KEY is required (run findleague to list your league keys)")
	}
	return nil
}

var validate = validator.New()

// Load reads configuration from environment variables and returns a validated Config.
// In development (LEAGUESYNC_ENV unset or "development") a .env file in the working
// directory is loaded first; variables already present in the environment win.
// LEAGUESYNC_SECRET_KEY is required and must be a base64-encoded 32-byte key.
// Optional variables with defaults: LEAGUESYNC_IDENTITY (yahoo), YAHOO_REDIRECT_URL (oob),
// YAHOO_GAME_CODE (nba), LEAGUESYNC_PLAYER_POOL_LIMIT (600), LEAGUESYNC_DB_PATH (leaguesync.db),
// LEAGUESYNC_HTTP_TIMEOUT (30s), LEAGUESYNC_LOG_LEVEL (info), LEAGUESYNC_LOG_FORMAT (text).
func Load() (*Config, error) {
	env := getEnv("LEAGUESYNC_ENV", "development")
	if env == "development" {
		_ = godotenv.Load()
	}

	credentialTTL, err := getDuration("LEAGUESYNC_CREDENTIAL_TTL", 0)
	if err != nil {
		return nil, err
	}

	httpTimeout, err := getDuration("LEAGUESYNC_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	playerPoolLimit, err := getInt("LEAGUESYNC_PLAYER_POOL_LIMIT", 600)
	if err != nil {
		return nil, err
	}

	rawKey, ok := os.LookupEnv("LEAGUESYNC_SECRET_KEY")
	if !ok || strings.TrimSpace(rawKey) == "" {
		return nil, errors.New("LEAGUESYNC_SECRET_KEY is required")
	}
	secretKey, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rawKey))
	if err != nil {
		return nil, fmt.Errorf("LEAGUESYNC_SECRET_KEY is not valid base64: %w", err)
	}

	cfg := &Config{
		Env:             env,
		Identity:        getEnv("LEAGUESYNC_IDENTITY", "yahoo"),
		ClientID:        strings.TrimSpace(os.Getenv("YAHOO_CLIENT_ID")),
		ClientSecret:    strings.TrimSpace(os.Getenv("YAHOO_CLIENT_SECRET")),
		OAuthJSON:       strings.TrimSpace(os.Getenv("YAHOO_OAUTH_JSON")),
		CredentialFile:  strings.TrimSpace(os.Getenv("LEAGUESYNC_CREDENTIAL_FILE")),
		CredentialTTL:   credentialTTL,
		AuthCode:        strings.TrimSpace(os.Getenv("YAHOO_AUTH_CODE")),
		RefreshToken:    strings.TrimSpace(os.Getenv("YAHOO_REFRESH_TOKEN")),
		RedirectURL:     getEnv("YAHOO_REDIRECT_URL", "oob"),
		LeagueKey:       strings.TrimSpace(os.Getenv("YAHOO_LEAGUE_KEY")),
		GameCode:        getEnv("YAHOO_GAME_CODE", "nba"),
		PlayerPoolLimit: playerPoolLimit,
		DBPath:          getEnv("LEAGUESYNC_DB_PATH", "leaguesync.db"),
		SecretKey:       secretKey,
		HTTPTimeout:     httpTimeout,
		LogLevel:        strings.ToLower(getEnv("LEAGUESYNC_LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LEAGUESYNC_LOG_FORMAT", "text")),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describeValidation(err)
	}

	return cfg, nil
}

// envNames maps Config fields to the variables they are read from so
// validation errors point at something the operator can change.
var envNames = map[string]string{
	"Env":             "LEAGUESYNC_ENV",
	"Identity":        "LEAGUESYNC_IDENTITY",
	"CredentialTTL":   "LEAGUESYNC_CREDENTIAL_TTL",
	"RedirectURL":     "YAHOO_REDIRECT_URL",
	"GameCode":        "YAHOO_GAME_CODE",
	"PlayerPoolLimit": "LEAGUESYNC_PLAYER_POOL_LIMIT",
	"DBPath":          "LEAGUESYNC_DB_PATH",
	"SecretKey":       "LEAGUESYNC_SECRET_KEY",
	"HTTPTimeout":     "LEAGUESYNC_HTTP_TIMEOUT",
	"LogLevel":        "LEAGUESYNC_LOG_LEVEL",
	"LogFormat":       "LEAGUESYNC_LOG_FORMAT",
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := envNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", name, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", name, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s has invalid integer %q: %w", key, v, err)
	}
	return parsed, nil
}
