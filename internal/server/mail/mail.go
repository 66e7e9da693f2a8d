// Package mail defines the notification sender the identity engine calls
// after a state-changing write has committed. Delivery is best-effort:
// failures are reported to the caller for logging but must never be
// treated as a failure of the operation that triggered them.
package mail

import "context"

// Sender dispatches account lifecycle messages. The optOutCode parameter
// is the recipient account's stable opt-out token, used to build the
// opt-out link appended to every message.
type Sender interface {
	SendConfirmation(ctx context.Context, address, code, optOutCode string) error
	SendChangeEmailConfirmation(ctx context.Context, address, code, optOutCode string) error
	SendResetPassword(ctx context.Context, address, code, optOutCode string) error
	// SendAccountAlert notifies an address about an administrative action
	// taken on its account (e.g. a soft deletion with a reason).
	SendAccountAlert(ctx context.Context, address, action, reason string) error
}
