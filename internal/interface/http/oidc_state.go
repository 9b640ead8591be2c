package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The provider round trip parks its state and PKCE verifier in a short-lived
// cookie. Five minutes outlives any realistic consent screen.
const (
	oidcStateCookieName = "connect_oidc_state"
	oidcStateTTLSeconds = 300
)

type oidcState struct {
	State        string `json:"state"`
	CodeVerifier string `json:"verifier"`
}

func writeOIDCState(c *gin.Context, state, codeVerifier string) {
	data, _ := json.Marshal(oidcState{State: state, CodeVerifier: codeVerifier})
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oidcStateCookieName, base64.RawURLEncoding.EncodeToString(data), oidcStateTTLSeconds, "/", "", c.Request.TLS != nil, true)
}

func clearOIDCState(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oidcStateCookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}

func readOIDCState(c *gin.Context) (oidcState, bool) {
	value, err := c.Cookie(oidcStateCookieName)
	if err != nil || value == "" {
		return oidcState{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return oidcState{}, false
	}
	var parked oidcState
	if err := json.Unmarshal(data, &parked); err != nil || parked.State == "" || parked.CodeVerifier == "" {
		return oidcState{}, false
	}
	return parked, true
}
