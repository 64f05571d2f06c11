package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/loginflow/credential"
	"github.com/MrEthical07/loginflow/scheduler"
)

const (
	// DefaultTTL is the fixed session lifetime.
	DefaultTTL = 60 * time.Second
	// DefaultTickInterval is the countdown period.
	DefaultTickInterval = time.Second
)

// Config tunes a Manager. Zero values fall back to the defaults.
type Config struct {
	TTL          time.Duration
	TickInterval time.Duration
}

// Hooks receive countdown and expiry events. Hooks run without any Manager
// lock held and may call back into the Manager.
type Hooks struct {
	// OnExpire runs exactly once per issued session, when a tick finds it expired.
	OnExpire func()
	// OnTick runs on every tick that finds time left.
	OnTick func(remaining int)
}

// Manager issues, counts down, expires and revokes the session. It is safe
// for concurrent use.
type Manager struct {
	store  Store
	sched  scheduler.Scheduler
	cfg    Config
	hooks  Hooks
	logger *slog.Logger

	mu        sync.Mutex
	active    bool
	expiresAt int64
	countdown scheduler.Handle
}

// NewManager wires a Manager. A nil logger discards log output.
func NewManager(store Store, sched scheduler.Scheduler, cfg Config, hooks Hooks, logger *slog.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		store:  store,
		sched:  sched,
		cfg:    cfg,
		hooks:  hooks,
		logger: logger,
	}
}

// Init loads a previously persisted session. When the logged-in flag is set
// the countdown resumes; a session that expired while nobody was watching is
// expired by the first tick.
func (m *Manager) Init(ctx context.Context) error {
	flag, ok, err := m.store.Get(ctx, KeyLoggedIn)
	if err != nil {
		return err
	}
	if !ok || flag != "true" {
		return nil
	}

	expiresAt, err := m.persistedExpiry(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.active = true
	m.expiresAt = expiresAt
	m.restartCountdownLocked()
	m.mu.Unlock()
	return nil
}

// Login issues a session when identifier and password pass the credential
// rules. A failed login leaves the persisted pair as it found it, so a
// session that is already active keeps running.
func (m *Manager) Login(ctx context.Context, identifier, password string) (Session, error) {
	if !credential.ValidateIdentifier(identifier) || !credential.ValidatePassword(password) {
		return Session{}, credential.ErrInvalidCredentials
	}

	prevExpiry, hadExpiry, err := m.store.Get(ctx, KeyExpiresAt)
	if err != nil {
		return Session{}, err
	}

	// Expiry first: the flag alone never marks a session as logged in.
	expiresAt := m.sched.Now().Add(m.cfg.TTL).UnixMilli()
	if err := m.store.Set(ctx, KeyExpiresAt, strconv.FormatInt(expiresAt, 10)); err != nil {
		return Session{}, err
	}
	if err := m.store.Set(ctx, KeyLoggedIn, "true"); err != nil {
		m.restoreExpiry(ctx, prevExpiry, hadExpiry)
		return Session{}, err
	}

	m.mu.Lock()
	m.active = true
	m.expiresAt = expiresAt
	m.restartCountdownLocked()
	m.mu.Unlock()

	return Session{Active: true, ExpiresAt: expiresAt}, nil
}

// RemainingSeconds reads the persisted expiry and returns the whole seconds
// left, or 0 when no session is persisted.
func (m *Manager) RemainingSeconds(ctx context.Context) int {
	expiresAt, err := m.persistedExpiry(ctx)
	if err != nil {
		m.logger.Warn("session expiry unreadable", "err", err)
		return 0
	}
	return remainingSeconds(expiresAt, m.sched.Now())
}

// Tick checks the active session. When no time is left it clears the
// session and runs OnExpire; otherwise it runs OnTick. After the session is
// cleared Tick reports 0 and does nothing else.
func (m *Manager) Tick(ctx context.Context) int {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if !active {
		return 0
	}

	remaining := m.RemainingSeconds(ctx)
	if remaining > 0 {
		if m.hooks.OnTick != nil {
			m.hooks.OnTick(remaining)
		}
		return remaining
	}

	m.mu.Lock()
	if !m.active {
		// Another tick or a logout won the race.
		m.mu.Unlock()
		return 0
	}
	m.deactivateLocked()
	m.mu.Unlock()

	m.removeKeys(ctx)
	if m.hooks.OnExpire != nil {
		m.hooks.OnExpire()
	}
	return 0
}

// Logout clears the session whether or not one is active. It reports
// whether a session was active.
func (m *Manager) Logout(ctx context.Context) (bool, error) {
	m.mu.Lock()
	wasActive := m.active
	m.deactivateLocked()
	m.mu.Unlock()

	err := errors.Join(
		m.store.Remove(ctx, KeyLoggedIn),
		m.store.Remove(ctx, KeyExpiresAt),
	)
	return wasActive, err
}

// Active reports whether a session is currently issued.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Snapshot returns the in-memory view of the session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return Session{}
	}
	return Session{Active: true, ExpiresAt: m.expiresAt}
}

// Teardown stops the countdown. The persisted session is left untouched so
// a later Init can resume it.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	scheduler.Cancel(m.countdown)
	m.countdown = nil
}

func (m *Manager) restartCountdownLocked() {
	scheduler.Cancel(m.countdown)
	m.countdown = m.sched.SchedulePeriodic(m.cfg.TickInterval, func() {
		m.Tick(context.Background())
	})
}

func (m *Manager) deactivateLocked() {
	m.active = false
	m.expiresAt = 0
	scheduler.Cancel(m.countdown)
	m.countdown = nil
}

func (m *Manager) persistedExpiry(ctx context.Context) (int64, error) {
	raw, ok, err := m.store.Get(ctx, KeyExpiresAt)
	if err != nil || !ok {
		return 0, err
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// A corrupt timestamp counts as expired.
		m.logger.Warn("session expiry corrupt", "value", raw)
		return 0, nil
	}
	return expiresAt, nil
}

func (m *Manager) restoreExpiry(ctx context.Context, prev string, ok bool) {
	var err error
	if ok {
		err = m.store.Set(ctx, KeyExpiresAt, prev)
	} else {
		err = m.store.Remove(ctx, KeyExpiresAt)
	}
	if err != nil {
		m.logger.Warn("session expiry rollback failed", "err", err)
	}
}

func (m *Manager) removeKeys(ctx context.Context) {
	if err := m.store.Remove(ctx, KeyLoggedIn); err != nil {
		m.logger.Warn("session flag removal failed", "err", err)
	}
	if err := m.store.Remove(ctx, KeyExpiresAt); err != nil {
		m.logger.Warn("session expiry removal failed", "err", err)
	}
}
