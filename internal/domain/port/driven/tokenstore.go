package driven

import (
	"context"

	"github.com/ericfisherdev/leaguesync/internal/domain/model"
)

// TokenStore defines the driven port for token persistence. At most one token
// is kept per identity; Save overwrites any prior token.
type TokenStore interface {
	// Load returns the stored token for identity, or (nil, nil) if none exists.
	Load(ctx context.Context, identity string) (*model.Token, error)
	Save(ctx context.Context, token model.Token) error
	Exists(ctx context.Context, identity string) (bool, error)
}
