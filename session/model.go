package session

import "time"

// Session is the persisted login state. ExpiresAt is epoch milliseconds.
type Session struct {
	Active    bool  `json:"active"`
	ExpiresAt int64 `json:"expiresAt"`
}

// RemainingSeconds returns max(0, floor((ExpiresAt-now)/1000)). An inactive
// session has none left.
func (s Session) RemainingSeconds(now time.Time) int {
	if !s.Active {
		return 0
	}
	return remainingSeconds(s.ExpiresAt, now)
}

// Expired reports whether the session has no whole second left.
func (s Session) Expired(now time.Time) bool {
	return s.RemainingSeconds(now) == 0
}

func remainingSeconds(expiresAtMs int64, now time.Time) int {
	left := expiresAtMs - now.UnixMilli()
	if left <= 0 {
		return 0
	}
	return int(left / 1000)
}
