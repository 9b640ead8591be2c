package auth

import "context"

// Backend abstracts the external auth endpoints the gateway fronts. Failures
// with a response body surface as *BackendError; transport faults surface as
// ordinary errors.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (TokenGrant, error)
	SignUp(ctx context.Context, email, password string) (TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	SignOut(ctx context.Context, accessToken string) error
}
