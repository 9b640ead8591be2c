package sessionstore

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/pkg/util"
)

// MemoryStore is an in-process store with the same id-cookie contract as the
// Valkey store. Used in tests and when running without external dependencies.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	name     string
	maxAge   time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	session   session.Session
	expiresAt time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(cookieName string, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		name:     cookieName,
		maxAge:   maxAge,
		now:      util.NowUTC,
	}
}

func (s *MemoryStore) Load(_ context.Context, r *http.Request) (session.Session, bool, error) {
	cookie, err := r.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return session.Session{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[cookie.Value]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.sessions, cookie.Value)
		return session.Session{}, false, nil
	}
	return entry.session, true, nil
}

func (s *MemoryStore) Save(_ context.Context, w http.ResponseWriter, r *http.Request, sess session.Session) error {
	now := s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	id := ""
	if cookie, err := r.Cookie(s.name); err == nil && cookie.Value != "" {
		id = cookie.Value
	} else {
		id = uuid.NewString()
	}
	ttl := remainingAge(sess, s.maxAge, now)
	s.mu.Lock()
	s.sessions[id] = memoryEntry{session: sess, expiresAt: now.Add(ttl)}
	s.mu.Unlock()
	writeCookie(w, r, s.name, id, ttl)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(s.name); err == nil && cookie.Value != "" {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	expireCookie(w, r, s.name)
	return nil
}

var _ session.Store = (*MemoryStore)(nil)
