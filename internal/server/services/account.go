// Package services contains the server-side business logic. This file
// implements AccountService, the identity lifecycle engine: registration,
// authentication, email confirmation and change, password reset, opt-out,
// and soft deletion.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/openaudit/internal/common"
	"github.com/dmitrijs2005/openaudit/internal/dbx"
	"github.com/dmitrijs2005/openaudit/internal/logging"
	"github.com/dmitrijs2005/openaudit/internal/securex"
	"github.com/dmitrijs2005/openaudit/internal/server/config"
	"github.com/dmitrijs2005/openaudit/internal/server/mail"
	"github.com/dmitrijs2005/openaudit/internal/server/models"
	"github.com/dmitrijs2005/openaudit/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/openaudit/internal/server/repositories/repomanager"
)

// dummyPasswordHash is a valid bcrypt hash of a throwaway value. When a
// login names an unknown account we still verify the candidate against
// this hash, so the response takes as long as a wrong-password attempt.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AccountService orchestrates the credential primitives, the account
// store, and the notification sender. It holds no mutable state between
// calls; correctness under concurrent callers rests on the store's
// conditional writes and uniqueness indexes.
type AccountService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	sender     mail.Sender
	log        logging.Logger
	cipherKey  []byte
	lookupSalt string
}

// NewAccountService constructs an AccountService. The cipher key and
// lookup salt come from configuration and are immutable for the process
// lifetime.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, sender mail.Sender, log logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		db:         db,
		repos:      m,
		sender:     sender,
		log:        log.With("module", "accounts"),
		cipherKey:  cfg.CipherKey(),
		lookupSalt: cfg.EmailLookupSalt,
	}
}

// Register creates a new unconfirmed account and sends the confirmation
// message. A username held by a live account or an email held by a
// confirmed account rejects the registration; the unconfirmed-duplicate
// variants tell the caller to offer "resend confirmation" instead of
// "sign in". The store's uniqueness indexes decide races between
// concurrent registrations of the same name.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	repo := s.repos.Accounts(s.db)

	if err := s.failIfUsernameTaken(ctx, repo, username); err != nil {
		return nil, err
	}
	if err := s.failIfEmailTaken(ctx, repo, email); err != nil {
		return nil, err
	}

	passwordHash, err := securex.HashSecret(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	emailCipher, err := securex.Encrypt(email, s.cipherKey)
	if err != nil {
		return nil, fmt.Errorf("encrypting email: %w", err)
	}

	id, err := securex.RandomToken(securex.IDLength)
	if err != nil {
		return nil, err
	}
	confirmCode, err := securex.RandomToken(securex.CodeLength)
	if err != nil {
		return nil, err
	}
	doNotEmailCode, err := securex.RandomToken(securex.CodeLength)
	if err != nil {
		return nil, err
	}
	unsubscribeCode, err := securex.RandomToken(securex.CodeLength)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:                        id,
		Username:                  username,
		EmailLookupHash:           securex.LookupHash(email, s.lookupSalt),
		EmailCipher:               emailCipher,
		PasswordHash:              passwordHash,
		EmailConfirmCode:          confirmCode,
		DoNotEmailCode:            doNotEmailCode,
		NewsletterUnsubscribeCode: unsubscribeCode,
		NewsletterSubscribed:      true,
	}

	if err := repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.notify(ctx, email, func(ctx context.Context) error {
		return s.sender.SendConfirmation(ctx, email, confirmCode, doNotEmailCode)
	})

	s.log.Info(ctx, "account registered", "username", username)
	return account, nil
}

// Authenticate verifies a password against the account named by
// identifier (username, or email when it contains "@"). An unknown
// account and a wrong password both return ErrIncorrectCredentials.
func (s *AccountService) Authenticate(ctx context.Context, identifier, password string) (*models.Account, error) {
	repo := s.repos.Accounts(s.db)

	var account *models.Account
	var err error
	if strings.Contains(identifier, "@") {
		account, err = repo.FindByEmailLookup(ctx, securex.LookupHash(identifier, s.lookupSalt), false)
	} else {
		account, err = repo.FindByUsername(ctx, identifier, false)
	}

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			securex.VerifySecret(dummyPasswordHash, password)
			return nil, common.ErrIncorrectCredentials
		}
		return nil, err
	}

	if !securex.VerifySecret(account.PasswordHash, password) {
		return nil, common.ErrIncorrectCredentials
	}

	return account, nil
}

// ConfirmEmail consumes a registration confirmation code. Confirmation is
// one-way; calling it again with the same valid code and address reports
// success without mutating anything.
func (s *AccountService) ConfirmEmail(ctx context.Context, code, email string) error {
	repo := s.repos.Accounts(s.db)
	lookup := securex.LookupHash(email, s.lookupSalt)

	affected, err := repo.ConfirmEmail(ctx, code, lookup)
	if err != nil {
		return err
	}
	if affected == 1 {
		s.log.Info(ctx, "email confirmed")
		return nil
	}

	// No row flipped: either the code/address pair is wrong, or the
	// account is already confirmed (idempotent success).
	account, err := repo.FindByEmailLookup(ctx, lookup, false)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidCode
		}
		return err
	}
	if account.EmailConfirmed && account.EmailConfirmCode == code {
		return nil
	}
	return common.ErrInvalidCode
}

// ResendConfirmation re-sends the existing confirmation code to an
// address that registered but never confirmed.
func (s *AccountService) ResendConfirmation(ctx context.Context, email string) error {
	repo := s.repos.Accounts(s.db)

	account, err := repo.FindByEmailLookup(ctx, securex.LookupHash(email, s.lookupSalt), false)
	if err != nil {
		return err
	}
	if account.EmailConfirmed {
		return common.ErrEmailAlreadyConfirmed
	}

	if account.DoNotEmail {
		s.log.Info(ctx, "account opted out of email, not sending")
		return nil
	}

	s.notify(ctx, email, func(ctx context.Context) error {
		return s.sender.SendConfirmation(ctx, email, account.EmailConfirmCode, account.DoNotEmailCode)
	})
	return nil
}

// RequestEmailChange stages a change of address for a confirmed account.
// The active email is not touched until the new address confirms; an
// account that never confirmed cannot initiate a change.
func (s *AccountService) RequestEmailChange(ctx context.Context, accountID, newEmail string) error {
	repo := s.repos.Accounts(s.db)

	account, err := repo.FindByID(ctx, accountID, false)
	if err != nil {
		return err
	}
	if !account.EmailConfirmed {
		return common.ErrEmailNotConfirmed
	}

	if err := s.failIfEmailTaken(ctx, repo, newEmail); err != nil {
		return err
	}

	code, err := securex.RandomToken(securex.CodeLength)
	if err != nil {
		return err
	}

	pendingLookup := securex.LookupHash(newEmail, s.lookupSalt)
	affected, err := repo.SetPendingEmail(ctx, accountID, pendingLookup, code)
	if err != nil {
		return err
	}
	if affected != 1 {
		return common.ErrNotFound
	}

	s.notify(ctx, newEmail, func(ctx context.Context) error {
		return s.sender.SendChangeEmailConfirmation(ctx, newEmail, code, account.DoNotEmailCode)
	})

	s.log.Info(ctx, "email change requested", "account_id", accountID)
	return nil
}

// ConfirmEmailChange consumes a change-of-email code: the staged lookup
// hash becomes the active one, the new ciphertext is stored, and the
// pending state is cleared, all in one conditional write.
func (s *AccountService) ConfirmEmailChange(ctx context.Context, code, newEmail string) error {
	repo := s.repos.Accounts(s.db)

	emailCipher, err := securex.Encrypt(newEmail, s.cipherKey)
	if err != nil {
		return fmt.Errorf("encrypting email: %w", err)
	}

	lookup := securex.LookupHash(newEmail, s.lookupSalt)
	affected, err := repo.PromotePendingEmail(ctx, code, lookup, emailCipher)
	if err != nil {
		return err
	}
	if affected != 1 {
		return common.ErrInvalidCode
	}

	s.log.Info(ctx, "email change confirmed")
	return nil
}

// RequestPasswordReset stores a single-use reset code on the confirmed
// account with the given address and mails it. When no such account
// exists the call succeeds without doing anything, so the response does
// not reveal whether the address is registered.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	repo := s.repos.Accounts(s.db)
	lookup := securex.LookupHash(email, s.lookupSalt)

	account, err := repo.FindByEmailLookup(ctx, lookup, false)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	code, err := securex.RandomToken(securex.CodeLength)
	if err != nil {
		return err
	}

	affected, err := repo.SetPasswordResetCode(ctx, lookup, code)
	if err != nil {
		return err
	}
	if affected != 1 {
		return nil
	}

	if account.DoNotEmail {
		s.log.Info(ctx, "account opted out of email, not sending")
		return nil
	}

	s.notify(ctx, email, func(ctx context.Context) error {
		return s.sender.SendResetPassword(ctx, email, code, "")
	})
	return nil
}

// ResetPassword consumes a reset code. The new hash is stored and the
// code cleared in the same statement, so a code that was spent by a
// concurrent request comes back as ErrInvalidCode.
func (s *AccountService) ResetPassword(ctx context.Context, code, newPassword string) error {
	repo := s.repos.Accounts(s.db)

	passwordHash, err := securex.HashSecret(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	affected, err := repo.ResetPassword(ctx, code, passwordHash)
	if err != nil {
		return err
	}
	if affected != 1 {
		return common.ErrInvalidCode
	}

	s.log.Info(ctx, "password reset")
	return nil
}

// ChangePassword replaces the password of an authenticated account after
// re-verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	repo := s.repos.Accounts(s.db)

	account, err := repo.FindByID(ctx, accountID, false)
	if err != nil {
		return err
	}
	if !securex.VerifySecret(account.PasswordHash, currentPassword) {
		return common.ErrIncorrectCredentials
	}

	passwordHash, err := securex.HashSecret(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	affected, err := repo.UpdatePassword(ctx, accountID, passwordHash)
	if err != nil {
		return err
	}
	if affected != 1 {
		return common.ErrNotFound
	}

	return nil
}

// UpdateProfile replaces the freely mutable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, profile models.Profile) error {
	affected, err := s.repos.Accounts(s.db).UpdateProfile(ctx, accountID, profile)
	if err != nil {
		return err
	}
	if affected != 1 {
		return common.ErrNotFound
	}
	return nil
}

// OwnProfile returns the account view shown to its owner; this is the
// only path that decrypts the stored email.
func (s *AccountService) OwnProfile(ctx context.Context, accountID string) (*models.OwnProfile, error) {
	account, err := s.repos.Accounts(s.db).FindByID(ctx, accountID, false)
	if err != nil {
		return nil, err
	}

	var email string
	if account.EmailCipher != "" {
		email, err = securex.Decrypt(account.EmailCipher, s.cipherKey)
		if err != nil {
			return nil, fmt.Errorf("decrypting email: %w", err)
		}
	}

	return &models.OwnProfile{
		ID:             account.ID,
		Username:       account.Username,
		Email:          email,
		CreateDate:     account.CreateDate,
		RealName:       account.Profile.RealName,
		GitHub:         account.Profile.GitHub,
		LinkedIn:       account.Profile.LinkedIn,
		Qualifications: account.Profile.Qualifications,
	}, nil
}

// SoftDelete irreversibly retires an account: username, email ciphertext,
// and password hash are overwritten with fresh random values, the row is
// stamped with a deletion date and reason, and every session is revoked.
// The row itself stays for referential integrity. There is no un-delete.
func (s *AccountService) SoftDelete(ctx context.Context, accountID, reason string, banned bool) error {
	repo := s.repos.Accounts(s.db)

	account, err := repo.FindByID(ctx, accountID, false)
	if err != nil {
		return err
	}

	// Capture the address before it becomes unrecoverable; the alert
	// below is best-effort.
	var address string
	if account.EmailCipher != "" && !account.DoNotEmail {
		if a, err := securex.Decrypt(account.EmailCipher, s.cipherKey); err == nil {
			address = a
		}
	}

	username, err := securex.RandomToken(securex.IDLength)
	if err != nil {
		return err
	}
	emailCipher, err := securex.RandomToken(securex.IDLength)
	if err != nil {
		return err
	}
	passwordHash, err := securex.RandomToken(securex.IDLength)
	if err != nil {
		return err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		affected, err := s.repos.Accounts(tx).SoftDelete(ctx, accountID, username, emailCipher, passwordHash, reason, banned)
		if err != nil {
			return err
		}
		if affected != 1 {
			return common.ErrNotFound
		}
		return s.repos.RefreshTokens(tx).DeleteForAccount(ctx, accountID)
	}); err != nil {
		return err
	}

	if address != "" {
		s.notify(ctx, address, func(ctx context.Context) error {
			return s.sender.SendAccountAlert(ctx, address, "account deleted", reason)
		})
	}

	s.log.Info(ctx, "account deleted", "account_id", accountID, "banned", banned)
	return nil
}

// SetDoNotEmail flips the account's global do-not-email flag when the
// stable opt-out code matches.
func (s *AccountService) SetDoNotEmail(ctx context.Context, email, code string) error {
	lookup := securex.LookupHash(email, s.lookupSalt)
	affected, err := s.repos.Accounts(s.db).SetDoNotEmail(ctx, lookup, code)
	if err != nil {
		return err
	}
	if affected != 1 {
		return common.ErrInvalidCode
	}
	return nil
}

// UnsubscribeNewsletter clears the newsletter subscription when the
// stable unsubscribe code matches.
func (s *AccountService) UnsubscribeNewsletter(ctx context.Context, email, code string) error {
	lookup := securex.LookupHash(email, s.lookupSalt)
	affected, err := s.repos.Accounts(s.db).UnsubscribeNewsletter(ctx, lookup, code)
	if err != nil {
		return err
	}
	if affected != 1 {
		return common.ErrInvalidCode
	}
	return nil
}

// GetByID fetches an account. includeDeleted is the administrative access
// path; callers serving end users must leave it false.
func (s *AccountService) GetByID(ctx context.Context, accountID string, includeDeleted bool) (*models.Account, error) {
	return s.repos.Accounts(s.db).FindByID(ctx, accountID, includeDeleted)
}

// GetByUsername fetches an account by name, case-insensitively.
func (s *AccountService) GetByUsername(ctx context.Context, username string, includeDeleted bool) (*models.Account, error) {
	return s.repos.Accounts(s.db).FindByUsername(ctx, username, includeDeleted)
}

// failIfUsernameTaken rejects a username held by any live account.
func (s *AccountService) failIfUsernameTaken(ctx context.Context, repo accounts.Repository, username string) error {
	account, err := repo.FindByUsername(ctx, username, false)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	if !account.EmailConfirmed {
		return common.ErrUsernameTakenUnconfirmed
	}
	return common.ErrUsernameTaken
}

// failIfEmailTaken rejects an address held by a live account. Only a
// confirmed holder "owns" the address, but an unconfirmed duplicate still
// blocks registration so two strangers cannot race to confirm it.
func (s *AccountService) failIfEmailTaken(ctx context.Context, repo accounts.Repository, email string) error {
	account, err := repo.FindByEmailLookup(ctx, securex.LookupHash(email, s.lookupSalt), false)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	if !account.EmailConfirmed {
		return common.ErrEmailTakenUnconfirmed
	}
	return common.ErrEmailTaken
}

// notify runs a notification dispatch after the state change has already
// committed. Failures are logged and swallowed: state correctness takes
// priority over delivery.
func (s *AccountService) notify(ctx context.Context, recipient string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		s.log.Warn(ctx, "notification delivery failed", "to", recipient, "error", err.Error())
	}
}
