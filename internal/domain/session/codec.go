package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Codec seals sessions into a signed, tamper-evident string suitable for a
// cookie. The refresh token is additionally encrypted so the artifact never
// carries it in readable form. The artifact expires MaxAge after the session
// was created, independent of the access token expiry.
type Codec struct {
	signKey    []byte
	encryptKey []byte
	maxAge     time.Duration
}

// NewCodec derives independent signing and encryption keys from the secret.
func NewCodec(secret string, maxAge time.Duration) (*Codec, error) {
	signKey, err := deriveKey(secret, "connect-gateway/session-signing")
	if err != nil {
		return nil, err
	}
	encryptKey, err := deriveKey(secret, "connect-gateway/session-encryption")
	if err != nil {
		return nil, err
	}
	return &Codec{signKey: signKey, encryptKey: encryptKey, maxAge: maxAge}, nil
}

type sealedClaims struct {
	jwt.RegisteredClaims
	UserID          string `json:"userId"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	AccessToken     string `json:"accessToken"`
	SealedRefresh   string `json:"sealedRefresh"`
	AccessExpiresAt int64  `json:"accessExpiresAt"`
	ErrorMarker     string `json:"errorMarker,omitempty"`
}

// Seal serializes the session. The artifact expiry is anchored to the
// session's creation time so refreshing tokens never extends the 24h window.
func (c *Codec) Seal(s Session, now time.Time) (string, error) {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	sealedRefresh, err := encryptValue(c.encryptKey, s.RefreshToken)
	if err != nil {
		return "", err
	}
	claims := sealedClaims{
		UserID:          s.UserID,
		Email:           s.Email,
		Name:            s.Name,
		AccessToken:     s.AccessToken,
		SealedRefresh:   sealedRefresh,
		AccessExpiresAt: s.AccessTokenExpiresAt.Unix(),
		ErrorMarker:     s.Error,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(createdAt),
			ExpiresAt: jwt.NewNumericDate(createdAt.Add(c.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.signKey)
}

// Open verifies and deserializes the artifact. Any defect - bad signature,
// past max age, undecryptable refresh token - yields "no session".
func (c *Codec) Open(artifact string, now time.Time) (Session, bool) {
	if artifact == "" {
		return Session{}, false
	}
	parsed, err := jwt.ParseWithClaims(artifact, &sealedClaims{}, func(t *jwt.Token) (any, error) {
		return c.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return Session{}, false
	}
	claims, ok := parsed.Claims.(*sealedClaims)
	if !ok || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return Session{}, false
	}
	refreshToken, err := decryptValue(c.encryptKey, claims.SealedRefresh)
	if err != nil {
		return Session{}, false
	}
	return Session{
		UserID:               claims.UserID,
		Email:                claims.Email,
		Name:                 claims.Name,
		AccessToken:          claims.AccessToken,
		RefreshToken:         refreshToken,
		AccessTokenExpiresAt: time.Unix(claims.AccessExpiresAt, 0),
		CreatedAt:            claims.IssuedAt.Time,
		Error:                claims.ErrorMarker,
	}, true
}

// MaxAge exposes the absolute artifact lifetime for cookie attributes.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}
