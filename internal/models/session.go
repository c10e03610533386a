package models

import "time"

// Session is an authenticated credential session. The derived key lives only
// in memory and is discarded when the session is closed or reaped.
type Session struct {
	ID        string
	Key       []byte
	Salt      []byte
	CreatedAt time.Time
	LastSeen  time.Time
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.LastSeen) > ttl
}
