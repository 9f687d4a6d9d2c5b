package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/common"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// test seam
var timeNow = time.Now

// touchDebounce limits how often activity updates are persisted.
const touchDebounce = 1 * time.Second

// State of the session manager.
type State int

const (
	StateLoggedOut State = iota
	StateLoading
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "logged out"
	}
}

// WarningLevel classifies how close the session is to expiry.
type WarningLevel int

const (
	WarnNone WarningLevel = iota
	WarnExpiring
	WarnFinal
)

// Config holds the session timing knobs.
type Config struct {
	Lifetime         time.Duration
	WarningTime      time.Duration
	FinalWarningTime time.Duration
	CheckInterval    time.Duration
}

// Manager drives the session state machine: login, restore, activity
// tracking, expiry warnings and automatic logout. All methods are safe for
// concurrent use; the watcher goroutine shares the same state.
type Manager struct {
	client api.Client
	store  *Store
	cfg    Config
	logger logging.Logger

	// OnWarning is invoked (outside the lock) when a not-yet-dismissed
	// warning threshold is crossed. OnExpired fires after an automatic
	// logout. Both are optional and must be set before Start.
	OnWarning func(level WarningLevel, remaining time.Duration)
	OnExpired func()

	mu          sync.RWMutex
	state       State
	session     *Session
	dismissed   map[WarningLevel]bool
	lastPersist time.Time
}

func NewManager(client api.Client, store *Store, cfg Config, logger logging.Logger) *Manager {
	return &Manager{
		client:    client,
		store:     store,
		cfg:       cfg,
		logger:    logger.With("module", "session"),
		dismissed: map[WarningLevel]bool{},
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns a copy of the active session, or nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Remaining returns the time left on the active session.
func (m *Manager) Remaining() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return 0
	}
	return m.session.Remaining(timeNow(), m.cfg.Lifetime)
}

// Login authenticates against the upstream and establishes a new session.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	m.setState(StateLoading)

	resp, err := m.client.Login(ctx, username, password)
	if err != nil {
		m.setState(StateLoggedOut)
		return nil, err
	}

	now := timeNow()
	sess := &Session{
		UserID:       resp.CurrentUser.UID.String(),
		Name:         resp.CurrentUser.Name,
		Username:     username,
		Password:     password,
		SessionID:    NewSessionID(),
		CSRFToken:    resp.CSRFToken,
		LogoutToken:  resp.LogoutToken,
		LoginTime:    now,
		LastActivity: now,
	}

	if err := m.store.Save(ctx, sess); err != nil {
		m.logger.Warn(ctx, "failed to persist session", "error", err.Error())
	}

	m.mu.Lock()
	m.session = sess
	m.state = StateAuthenticated
	m.dismissed = map[WarningLevel]bool{}
	m.lastPersist = now
	m.mu.Unlock()

	m.logger.Info(ctx, "logged in", "uid", sess.UserID, "session_id", sess.SessionID)
	return sess, nil
}

// Logout ends the session: the upstream call is best effort, local state
// is always wiped.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.client.Logout(ctx); err != nil {
		m.logger.Warn(ctx, "server logout failed", "error", err.Error())
	}
	return m.clearLocal(ctx)
}

// Restore loads a persisted session on startup. A session that is still
// within its lifetime is adopted immediately and re-verified against the
// upstream in the background, so startup never blocks on the network.
func (m *Manager) Restore(ctx context.Context) error {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if !sess.IsValid(timeNow(), m.cfg.Lifetime) {
		m.logger.Info(ctx, "stored session expired, discarding")
		return m.store.Wipe(ctx)
	}

	m.client.RestoreCredentials(sess.Username, sess.Password, sess.CSRFToken, sess.LogoutToken, sess.UserID)

	m.mu.Lock()
	m.session = sess
	m.state = StateAuthenticated
	m.dismissed = map[WarningLevel]bool{}
	m.mu.Unlock()

	go func() {
		ok, err := m.client.VerifySession(context.Background())
		if err != nil {
			m.logger.Warn(ctx, "session verification failed", "error", err.Error())
			return
		}
		if !ok {
			m.logger.Info(ctx, "stored session rejected by upstream")
			m.expire(context.Background())
		}
	}()

	m.logger.Info(ctx, "session restored", "uid", sess.UserID)
	return nil
}

// Touch records user activity, extending the inactivity clock. Writes to
// the store are debounced so command bursts do not hammer the database.
func (m *Manager) Touch(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.session == nil {
		m.mu.Unlock()
		return
	}
	now := timeNow()
	m.session.LastActivity = now
	persist := now.Sub(m.lastPersist) >= touchDebounce
	if persist {
		m.lastPersist = now
	}
	sess := *m.session
	m.mu.Unlock()

	if persist {
		if err := m.store.Save(ctx, &sess); err != nil {
			m.logger.Warn(ctx, "failed to persist activity", "error", err.Error())
		}
	}
}

// CurrentWarning returns the warning level due right now, honoring
// dismissals. Each level is dismissible independently: dismissing the
// early warning does not silence the final one.
func (m *Manager) CurrentWarning() (WarningLevel, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated || m.session == nil {
		return WarnNone, 0
	}
	remaining := m.session.Remaining(timeNow(), m.cfg.Lifetime)
	level := m.warningLevelLocked(remaining)
	return level, remaining
}

func (m *Manager) warningLevelLocked(remaining time.Duration) WarningLevel {
	switch {
	case remaining <= 0:
		return WarnNone
	case remaining <= m.cfg.FinalWarningTime && !m.dismissed[WarnFinal]:
		return WarnFinal
	case remaining <= m.cfg.WarningTime && !m.dismissed[WarnExpiring]:
		return WarnExpiring
	default:
		return WarnNone
	}
}

// DismissWarning silences one warning level for the rest of the session.
func (m *Manager) DismissWarning(level WarningLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dismissed[level] = true
}

// Start launches the watcher: a coarse validity check plus a fine-grained
// countdown for warnings. It returns immediately; the watcher stops when
// ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		check := time.NewTicker(m.cfg.CheckInterval)
		countdown := time.NewTicker(time.Second)
		defer check.Stop()
		defer countdown.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-check.C:
				m.checkValidity(ctx)
			case <-countdown.C:
				m.checkWarnings()
			}
		}
	}()
}

func (m *Manager) checkValidity(ctx context.Context) {
	m.mu.RLock()
	valid := m.state != StateAuthenticated || m.session.IsValid(timeNow(), m.cfg.Lifetime)
	m.mu.RUnlock()
	if !valid {
		m.expire(ctx)
	}
}

func (m *Manager) checkWarnings() {
	m.mu.RLock()
	if m.state != StateAuthenticated || m.session == nil {
		m.mu.RUnlock()
		return
	}
	remaining := m.session.Remaining(timeNow(), m.cfg.Lifetime)
	level := m.warningLevelLocked(remaining)
	cb := m.OnWarning
	m.mu.RUnlock()

	if remaining <= 0 {
		m.expire(context.Background())
		return
	}
	if level != WarnNone && cb != nil {
		cb(level, remaining)
	}
}

// expire wipes the session after the timeout hit. The upstream logout is
// best effort.
func (m *Manager) expire(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.state = StateLoggedOut
	m.session = nil
	m.dismissed = map[WarningLevel]bool{}
	cb := m.OnExpired
	m.mu.Unlock()

	m.logger.Info(ctx, "session expired", "reason", common.ErrSessionExpired.Error())

	if err := m.client.Logout(ctx); err != nil {
		m.logger.Warn(ctx, "server logout failed", "error", err.Error())
	}
	if err := m.store.Wipe(ctx); err != nil {
		m.logger.Warn(ctx, "failed to wipe stored session", "error", err.Error())
	}

	if cb != nil {
		cb()
	}
}

func (m *Manager) clearLocal(ctx context.Context) error {
	m.mu.Lock()
	m.state = StateLoggedOut
	m.session = nil
	m.dismissed = map[WarningLevel]bool{}
	m.mu.Unlock()

	return m.store.Wipe(ctx)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
