package session

import (
	"context"
	"net/http"
)

// Store persists exactly one session per browser context. Load treats a
// missing, expired, or tampered artifact identically: no session, no error.
type Store interface {
	Load(ctx context.Context, r *http.Request) (Session, bool, error)
	Save(ctx context.Context, w http.ResponseWriter, r *http.Request, s Session) error
	Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}
