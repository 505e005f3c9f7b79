package models

import "time"

// Session is a legacy session. Email is filled in by lookups that join the
// owning user.
type Session struct {
	Token   string
	UserID  string
	Email   string
	Expires time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
