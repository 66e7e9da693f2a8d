package models

import "time"

// Account is the central identity row. Email is stored in two forms: a
// keyed lookup hash used for equality search and a reversible ciphertext
// used only to display the address back to its owner. The plaintext is
// never persisted.
type Account struct {
	ID       string
	Username string

	// EmailLookupHash is the keyed hash of the current (confirmed or
	// pending-confirmation) email. PendingEmailLookupHash is set while a
	// confirmed account waits for a change-of-email confirmation.
	EmailLookupHash        string
	PendingEmailLookupHash string
	EmailCipher            string

	PasswordHash string

	EmailConfirmed    bool
	EmailConfirmCode  string
	PasswordResetCode string

	// Stable per-account opt-out tokens; unlike the one-time codes above
	// they are not cleared on use.
	DoNotEmailCode            string
	NewsletterUnsubscribeCode string

	DoNotEmail           bool
	Banned               bool
	NewsletterSubscribed bool

	CreateDate   time.Time
	DeleteDate   *time.Time
	DeleteReason string

	Profile Profile
}

// Profile holds the freely mutable, non-sensitive fields of an account.
type Profile struct {
	RealName       string
	GitHub         string
	LinkedIn       string
	Qualifications string
}

// Deleted reports whether the account has been soft-deleted. Deleted rows
// stay in the store for referential integrity but can no longer be
// authenticated or looked up through the default predicates.
func (a *Account) Deleted() bool {
	return a.DeleteDate != nil
}

// OwnProfile is the view of an account returned to its owner. It is the
// only place a decrypted email address appears.
type OwnProfile struct {
	ID             string
	Username       string
	Email          string
	CreateDate     time.Time
	RealName       string
	GitHub         string
	LinkedIn       string
	Qualifications string
}
