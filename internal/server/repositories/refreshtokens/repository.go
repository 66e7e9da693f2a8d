// Package refreshtokens stores the server-side half of issued sessions.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/openaudit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, accountID string, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	// DeleteForAccount revokes every session of an account, e.g. on soft
	// deletion.
	DeleteForAccount(ctx context.Context, accountID string) error
}
