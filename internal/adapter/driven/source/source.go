// Package source implements the CredentialSource port: it reads OAuth client
// credentials from environment values, an encoded JSON document, or an
// oauth2.json file.
package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
	"github.com/ericfisherdev/leaguesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CredentialSource = (*EnvSource)(nil)
	_ driven.CredentialSource = (*BlobSource)(nil)
	_ driven.CredentialSource = (*FileSource)(nil)
)

// EnvSource returns a client id and secret read from the environment at startup.
type EnvSource struct {
	clientID     string
	clientSecret string
}

// NewEnvSource creates an EnvSource from already-loaded values.
func NewEnvSource(clientID, clientSecret string) *EnvSource {
	return &EnvSource{
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
	}
}

func (s *EnvSource) Name() string { return "env" }

func (s *EnvSource) Read(_ context.Context) (model.CredentialMaterial, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return model.CredentialMaterial{}, fmt.Errorf("YAHOO_CLIENT_ID and YAHOO_CLIENT_SECRET must both be set: %w", driven.ErrSourceUnavailable)
	}
	return model.CredentialMaterial{ClientID: s.clientID, ClientSecret: s.clientSecret}, nil
}

// BlobSource parses an oauth2.json document passed as a single value, as CI
// secrets usually are. The value may be base64-encoded or raw JSON.
type BlobSource struct {
	blob string
}

// NewBlobSource creates a BlobSource for the given value.
func NewBlobSource(blob string) *BlobSource {
	return &BlobSource{blob: strings.TrimSpace(blob)}
}

func (s *BlobSource) Name() string { return "blob" }

func (s *BlobSource) Read(_ context.Context) (model.CredentialMaterial, error) {
	if s.blob == "" {
		return model.CredentialMaterial{}, fmt.Errorf("YAHOO_OAUTH_JSON is empty: %w", driven.ErrSourceUnavailable)
	}

	data := []byte(s.blob)
	if decoded, err := base64.StdEncoding.DecodeString(s.blob); err == nil {
		data = decoded
	}

	return parseDocument(data)
}

// FileSource reads an oauth2.json file from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Read(_ context.Context) (model.CredentialMaterial, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.CredentialMaterial{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	material, err := parseDocument(data)
	if err != nil {
		return model.CredentialMaterial{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return material, nil
}

// document accepts both the yahoo_oauth layout (consumer_key/consumer_secret)
// and the generic OAuth layout (client_id/client_secret).
type document struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
}

func parseDocument(data []byte) (model.CredentialMaterial, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.CredentialMaterial{}, fmt.Errorf("decode oauth document: %w", err)
	}

	material := model.CredentialMaterial{
		ClientID:     firstNonEmpty(doc.ConsumerKey, doc.ClientID),
		ClientSecret: firstNonEmpty(doc.ConsumerSecret, doc.ClientSecret),
	}
	if material.ClientID == "" || material.ClientSecret == "" {
		return model.CredentialMaterial{}, errors.New("oauth document is missing consumer_key/consumer_secret")
	}
	return material, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Select returns the first configured source in priority order: file, blob, env.
// When nothing is configured the env source is returned so the provisioner
// reports which variables are missing.
func Select(credentialFile, oauthJSON, clientID, clientSecret string) driven.CredentialSource {
	switch {
	case strings.TrimSpace(credentialFile) != "":
		return NewFileSource(strings.TrimSpace(credentialFile))
	case strings.TrimSpace(oauthJSON) != "":
		return NewBlobSource(oauthJSON)
	default:
		return NewEnvSource(clientID, clientSecret)
	}
}
