package http

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
)

// OIDCLogin starts the provider-managed sign-in flow with PKCE.
func (h *Handler) OIDCLogin(c *gin.Context) {
	if h.oidc == nil {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "oidc_disabled", "provider sign-in is not enabled", nil))
		return
	}
	state, err := randomToken()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "oidc_error", "failed to generate state", err))
		return
	}
	verifier, err := randomToken()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "oidc_error", "failed to generate verifier", err))
		return
	}
	writeOIDCState(c, state, verifier)
	c.Redirect(http.StatusFound, h.oidc.AuthURL(state, codeChallenge(verifier)))
}

// OIDCCallback finishes the flow and establishes the session.
func (h *Handler) OIDCCallback(c *gin.Context) {
	if h.oidc == nil {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "oidc_disabled", "provider sign-in is not enabled", nil))
		return
	}
	stored, ok := readOIDCState(c)
	clearOIDCState(c)
	if !ok || stored.State != c.Query("state") {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "oidc_state_mismatch", "oauth state missing or mismatched", nil))
		return
	}

	s, err := h.oidc.Exchange(c.Request.Context(), c.Query("code"), stored.CodeVerifier)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "authentication_failed", errMessage(err), err))
		return
	}
	if err := h.manager.Establish(c.Request.Context(), c.Writer, c.Request, s); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "session_error", "failed to establish session", err))
		return
	}
	c.Redirect(http.StatusFound, homePath)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func codeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
