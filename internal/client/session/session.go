// Package session owns the client's authentication lifecycle: the session
// record, its persistence, and the manager that enforces inactivity and
// absolute timeouts the same way the browser front end does.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated session. A session is valid only while BOTH
// clocks are fresh: the absolute age since login and the idle time since
// the last recorded activity must each stay under the configured lifetime.
type Session struct {
	UserID       string    `json:"uid"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"-"`
	LogoutToken  string    `json:"-"`
	LoginTime    time.Time `json:"login_time"`
	LastActivity time.Time `json:"last_activity"`
}

// IsValid reports whether the session is still alive at now.
func (s *Session) IsValid(now time.Time, lifetime time.Duration) bool {
	if s == nil {
		return false
	}
	return now.Sub(s.LoginTime) < lifetime && now.Sub(s.LastActivity) < lifetime
}

// Remaining returns the time left before the session expires, which is the
// smaller of the two clocks. Negative values mean already expired.
func (s *Session) Remaining(now time.Time, lifetime time.Duration) time.Duration {
	sinceLogin := lifetime - now.Sub(s.LoginTime)
	sinceActivity := lifetime - now.Sub(s.LastActivity)
	if sinceLogin < sinceActivity {
		return sinceLogin
	}
	return sinceActivity
}

// NewSessionID produces a client-side session identifier of the form
// session_<unix-ms>_<fragment>.
func NewSessionID() string {
	fragment := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), fragment)
}
