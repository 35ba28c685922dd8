package utils

import "time"

// SessionData is the minimal session view middleware needs. The auth
// module owns the underlying table.
type SessionData struct {
	SessionID string
	UserID    int
	Role      string
	ExpiresAt time.Time
}
