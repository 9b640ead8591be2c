package auth

import (
	"fmt"
	"time"
)

// Mode selects which backend credential endpoint handles the attempt.
type Mode string

const (
	ModeSignIn Mode = "signin"
	ModeSignUp Mode = "signup"
)

// Error codes produced by the authenticator. Classification of backend
// failures happens once here, at the network boundary; callers switch on
// codes, never on message substrings.
const (
	CodeInvalidInput              = "invalid_input"
	CodeAuthenticationFailed      = "authentication_failed"
	CodeEmailVerificationRequired = "email_verification_required"
	CodeUserAlreadyExists         = "user_already_exists"
)

// Config drives authentication behavior.
type Config struct {
	AccessTokenTTL time.Duration
}

// TokenGrant is the backend's answer to a successful credential exchange.
type TokenGrant struct {
	UserID       string
	Email        string
	Name         string
	AccessToken  string
	RefreshToken string
}

// TokenPair is the backend's answer to a successful refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// BackendError carries the backend's HTTP status and free-text detail.
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}
