// Package accounts contains the store adapter for identity rows. Every
// mutation that consumes a code or depends on a prior check is a single
// conditional UPDATE, so two concurrent callers can never both spend the
// same code or claim the same name; the caller inspects the affected row
// count instead of re-reading.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/openaudit/internal/server/models"
)

type Repository interface {
	// Create inserts a new account row. Uniqueness of the username among
	// live rows and of the email lookup hash among confirmed live rows is
	// enforced by the store; violations surface as the taken errors from
	// the common package.
	Create(ctx context.Context, account *models.Account) error

	// Lookups. The default predicate excludes soft-deleted rows;
	// includeDeleted is the administrative access path.
	FindByID(ctx context.Context, id string, includeDeleted bool) (*models.Account, error)
	FindByUsername(ctx context.Context, username string, includeDeleted bool) (*models.Account, error)
	// FindByEmailLookup prefers a confirmed row when an unconfirmed
	// duplicate of the same address exists.
	FindByEmailLookup(ctx context.Context, lookupHash string, includeDeleted bool) (*models.Account, error)

	UpdateProfile(ctx context.Context, id string, profile models.Profile) (int64, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) (int64, error)

	// ConfirmEmail flips email_confirmed for the row matching both the
	// code and the address hash, only if it is still unconfirmed.
	ConfirmEmail(ctx context.Context, code, lookupHash string) (int64, error)

	// SetPendingEmail stages a change of address on an existing account.
	SetPendingEmail(ctx context.Context, id, pendingLookupHash, confirmCode string) (int64, error)
	// PromotePendingEmail moves the staged hash into place and clears the
	// pending state, matching on code plus staged hash.
	PromotePendingEmail(ctx context.Context, code, lookupHash, emailCipher string) (int64, error)

	// SetPasswordResetCode stores a reset code on the confirmed account
	// with the given address hash.
	SetPasswordResetCode(ctx context.Context, lookupHash, code string) (int64, error)
	// ResetPassword stores the new hash and clears the reset code in the
	// same statement (match-and-clear).
	ResetPassword(ctx context.Context, code, passwordHash string) (int64, error)

	SetDoNotEmail(ctx context.Context, lookupHash, code string) (int64, error)
	UnsubscribeNewsletter(ctx context.Context, lookupHash, code string) (int64, error)

	// SoftDelete overwrites the identifying columns with the supplied
	// non-recoverable values and stamps delete_date/delete_reason.
	SoftDelete(ctx context.Context, id, username, emailCipher, passwordHash, reason string, banned bool) (int64, error)
}
