package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// ErrSourceUnavailable is returned by a CredentialSource that has nothing to read.
var ErrSourceUnavailable = errors.New("credential source unavailable")

// CredentialSource reads raw client credential material from outside the
// application (environment, file).
type CredentialSource interface {
	// Name identifies the source in logs and errors, e.g. "env" or "file:oauth2.json".
	Name() string
	Read(ctx context.Context) (model.CredentialMaterial, error)
}
