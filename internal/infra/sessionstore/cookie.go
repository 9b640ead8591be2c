package sessionstore

import (
	"context"
	"net/http"
	"time"

	"github.com/yanqian/connect-gateway/internal/domain/session"
	"github.com/yanqian/connect-gateway/pkg/util"
)

// CookieStore keeps the whole session inside a sealed cookie. The browser is
// the storage; the seal makes it tamper-evident and hides the refresh token.
type CookieStore struct {
	codec *session.Codec
	name  string
	now   func() time.Time
}

// NewCookieStore constructs a store writing the named cookie.
func NewCookieStore(codec *session.Codec, name string) *CookieStore {
	return &CookieStore{codec: codec, name: name, now: util.NowUTC}
}

func (s *CookieStore) Load(_ context.Context, r *http.Request) (session.Session, bool, error) {
	cookie, err := r.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return session.Session{}, false, nil
	}
	opened, ok := s.codec.Open(cookie.Value, s.now())
	if !ok {
		return session.Session{}, false, nil
	}
	return opened, true, nil
}

func (s *CookieStore) Save(_ context.Context, w http.ResponseWriter, r *http.Request, sess session.Session) error {
	now := s.now()
	artifact, err := s.codec.Seal(sess, now)
	if err != nil {
		return err
	}
	writeCookie(w, r, s.name, artifact, remainingAge(sess, s.codec.MaxAge(), now))
	return nil
}

func (s *CookieStore) Clear(_ context.Context, w http.ResponseWriter, r *http.Request) error {
	expireCookie(w, r, s.name)
	return nil
}

var _ session.Store = (*CookieStore)(nil)
