package models

import "time"

// RefreshToken is a server-stored opaque token that can be exchanged for a
// new access/refresh pair until it expires or the account is deleted.
type RefreshToken struct {
	AccountID string
	Token     string
	Expires   time.Time
}
