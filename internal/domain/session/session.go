package session

import (
	"fmt"
	"time"
)

// RefreshAccessTokenError marks a session whose refresh token was rejected.
// It is sticky: only a fresh sign-in produces a session without it.
const RefreshAccessTokenError = "RefreshAccessTokenError"

// Session is the durable record of an authenticated user.
type Session struct {
	UserID               string
	Email                string
	Name                 string
	AccessToken          string
	RefreshToken         string
	AccessTokenExpiresAt time.Time
	CreatedAt            time.Time
	Error                string
}

// Expired reports whether the access token needs a refresh before use.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.AccessTokenExpiresAt)
}

// Usable reports whether the session may authorize backend calls. A session
// tagged with a refresh error counts as absent for gating purposes.
func (s Session) Usable() bool {
	return s.Error == "" && s.AccessToken != ""
}

// Bearer formats the Authorization header value for proxied requests.
func (s Session) Bearer() string {
	return fmt.Sprintf("Bearer %s", s.AccessToken)
}

// View is the client-safe projection of a session. The refresh token never
// leaves the trusted storage boundary.
type View struct {
	UserID               string    `json:"userId"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	Error                string    `json:"error,omitempty"`
}

// View projects the session for UI consumption.
func (s Session) View() View {
	return View{
		UserID:               s.UserID,
		Email:                s.Email,
		Name:                 s.Name,
		AccessTokenExpiresAt: s.AccessTokenExpiresAt,
		Error:                s.Error,
	}
}
