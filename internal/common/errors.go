// Package common defines the sentinel errors shared across the identity
// engine's layers. Callers match them with errors.Is; raw store or crypto
// failures are wrapped into one of these kinds at the service boundary and
// the underlying cause is only ever logged, never returned to clients.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable covers transient storage failures (timeouts,
	// connection loss). It is the only kind a caller should retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Registration conflicts. The unconfirmed variants tell the caller to
	// suggest "resend confirmation" instead of "sign in".
	ErrUsernameTaken            = errors.New("username already registered")
	ErrUsernameTakenUnconfirmed = errors.New("username registered but email not confirmed")
	ErrEmailTaken               = errors.New("email already registered")
	ErrEmailTakenUnconfirmed    = errors.New("email registered but not confirmed")

	// ErrIncorrectCredentials covers both an unknown account and a wrong
	// password. The two are deliberately indistinguishable so that login
	// responses cannot be used to enumerate accounts.
	ErrIncorrectCredentials = errors.New("incorrect credentials")

	// ErrInvalidCode covers confirmation, reset, and opt-out code
	// mismatches. Codes are cleared on use, not time-boxed, so "expired"
	// and "unknown" are the same condition.
	ErrInvalidCode = errors.New("invalid code")

	// ErrEmailNotConfirmed is returned when an operation requires a
	// confirmed email first (e.g. requesting an email change).
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrEmailAlreadyConfirmed is returned when resending a confirmation
	// for an address that no longer needs one.
	ErrEmailAlreadyConfirmed = errors.New("email already confirmed")

	// Session token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
