package sessionstore

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/pkg/util"
)

// ValkeyStore keeps sessions server-side; the cookie only carries an opaque
// id. Records are read-modify-written whole and expire with the session's
// absolute max age.
type ValkeyStore struct {
	client valkey.Client
	name   string
	prefix string
	maxAge time.Duration
	now    func() time.Time
}

// NewValkeyStore constructs a store backed by a Valkey-compatible database.
func NewValkeyStore(client valkey.Client, cookieName string, maxAge time.Duration) *ValkeyStore {
	return &ValkeyStore{
		client: client,
		name:   cookieName,
		prefix: "session",
		maxAge: maxAge,
		now:    util.NowUTC,
	}
}

type sessionRecord struct {
	UserID               string    `json:"userId"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	AccessToken          string    `json:"accessToken"`
	RefreshToken         string    `json:"refreshToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	CreatedAt            time.Time `json:"createdAt"`
	Error                string    `json:"error,omitempty"`
}

func (s *ValkeyStore) Load(ctx context.Context, r *http.Request) (session.Session, bool, error) {
	id, ok := s.cookieID(r)
	if !ok {
		return session.Session{}, false, nil
	}
	result := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, err
	}
	var record sessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return session.Session{}, false, nil
	}
	return session.Session{
		UserID:               record.UserID,
		Email:                record.Email,
		Name:                 record.Name,
		AccessToken:          record.AccessToken,
		RefreshToken:         record.RefreshToken,
		AccessTokenExpiresAt: record.AccessTokenExpiresAt,
		CreatedAt:            record.CreatedAt,
		Error:                record.Error,
	}, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, w http.ResponseWriter, r *http.Request, sess session.Session) error {
	now := s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	ttl := remainingAge(sess, s.maxAge, now)
	if ttl < time.Second {
		ttl = time.Second
	}
	id, ok := s.cookieID(r)
	if !ok {
		id = uuid.NewString()
	}
	payload, err := json.Marshal(sessionRecord{
		UserID:               sess.UserID,
		Email:                sess.Email,
		Name:                 sess.Name,
		AccessToken:          sess.AccessToken,
		RefreshToken:         sess.RefreshToken,
		AccessTokenExpiresAt: sess.AccessTokenExpiresAt,
		CreatedAt:            sess.CreatedAt,
		Error:                sess.Error,
	})
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key(id)).Value(string(payload)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return err
	}
	writeCookie(w, r, s.name, id, ttl)
	return nil
}

func (s *ValkeyStore) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if id, ok := s.cookieID(r); ok {
		if err := s.client.Do(ctx, s.client.B().Del().Key(s.key(id)).Build()).Error(); err != nil {
			return err
		}
	}
	expireCookie(w, r, s.name)
	return nil
}

func (s *ValkeyStore) cookieID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (s *ValkeyStore) key(id string) string {
	return s.prefix + ":" + id
}

var _ session.Store = (*ValkeyStore)(nil)
