package driven

import (
	"context"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// AuthorizationProvider performs a single OAuth token exchange.
type AuthorizationProvider interface {
	// Exchange trades grant for a token using cred as the OAuth client.
	// Provider rejections are returned as *model.AuthorizationError carrying
	// the provider's reason code.
	Exchange(ctx context.Context, cred model.Credential, grant model.Grant) (model.Token, error)

	// AuthCodeURL returns the consent URL an operator visits to obtain an
	// authorization code for cred.
	AuthCodeURL(cred model.Credential, state string) string
}
