package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/connect-gateway/pkg/util"
)

// Refresher exchanges an expired session for one with fresh tokens. It never
// fails with an error: a rejected or unreachable refresh endpoint yields the
// same session tagged with RefreshAccessTokenError.
type Refresher interface {
	Refresh(ctx context.Context, s Session) Session
}

// Manager owns the session lifecycle: establish on sign-in, lazy refresh on
// access, destroy on sign-out. Refresh is triggered on demand only; there is
// no background timer, and concurrent requests may race their refreshes
// (last writer wins on the stored artifact).
type Manager struct {
	store     Store
	refresher Refresher
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager constructs a Manager instance.
func NewManager(store Store, refresher Refresher, logger *slog.Logger) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    logger.With("component", "session.manager"),
		now:       util.NowUTC,
	}
}

// Resolve loads the current session, refreshing the access token first when
// it has expired. The refreshed state is persisted before being returned so
// a failed refresh stays sticky across requests. Callers must still check
// Usable before trusting the access token.
func (m *Manager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (Session, bool) {
	s, ok, err := m.store.Load(ctx, r)
	if err != nil {
		m.logger.Error("session load failed", "error", err)
		return Session{}, false
	}
	if !ok {
		return Session{}, false
	}
	if !s.Expired(m.now()) {
		return s, true
	}
	s = m.refresher.Refresh(ctx, s)
	if err := m.store.Save(ctx, w, r, s); err != nil {
		m.logger.Error("session save after refresh failed", "error", err)
	}
	return s, true
}

// Establish replaces any existing session with the freshly authenticated one.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, r *http.Request, s Session) error {
	return m.store.Save(ctx, w, r, s)
}

// Destroy removes the persisted session. Safe to call when none exists.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return m.store.Clear(ctx, w, r)
}

// WithClock overrides the manager's clock for deterministic tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}
