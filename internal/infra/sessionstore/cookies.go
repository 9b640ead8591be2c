package sessionstore

import (
	"net/http"
	"time"

	"github.com/yanqian/connect-gateway/internal/domain/session"
)

func writeCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// remainingAge anchors the artifact lifetime to the session creation so that
// re-saving on refresh never extends the absolute 24h window.
func remainingAge(s session.Session, maxAge time.Duration, now time.Time) time.Duration {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	remaining := createdAt.Add(maxAge).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
