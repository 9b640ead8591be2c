package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/connect-gateway/internal/domain/auth"
	apperrors "github.com/yanqian/connect-gateway/pkg/errors"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges credentials and establishes the session cookie.
func (h *Handler) SignIn(c *gin.Context) {
	h.authenticate(c, auth.ModeSignIn)
}

// SignUp registers the account. A backend that requires email confirmation
// yields a soft success without establishing a session.
func (h *Handler) SignUp(c *gin.Context) {
	h.authenticate(c, auth.ModeSignUp)
}

func (h *Handler) authenticate(c *gin.Context, mode auth.Mode) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	s, err := h.authSvc.Authenticate(c.Request.Context(), req.Email, req.Password, mode)
	if err != nil {
		switch {
		case apperrors.IsCode(err, auth.CodeEmailVerificationRequired):
			c.JSON(http.StatusOK, gin.H{"success": true, "verificationRequired": true, "message": "check your email to confirm the account"})
		case apperrors.IsCode(err, auth.CodeUserAlreadyExists):
			abortWithError(c, NewHTTPError(http.StatusConflict, auth.CodeUserAlreadyExists, errMessage(err), err))
		case apperrors.IsCode(err, auth.CodeInvalidInput):
			abortWithError(c, NewHTTPError(http.StatusBadRequest, auth.CodeInvalidInput, errMessage(err), err))
		default:
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, auth.CodeAuthenticationFailed, errMessage(err), err))
		}
		return
	}

	if err := h.manager.Establish(c.Request.Context(), c.Writer, c.Request, s); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "session_error", "failed to establish session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": s.View()})
}

// SignOut clears the session locally and notifies the backend best-effort.
func (h *Handler) SignOut(c *gin.Context) {
	ctx := c.Request.Context()
	if s, ok := h.manager.Resolve(ctx, c.Writer, c.Request); ok {
		h.authSvc.NotifySignOut(ctx, s.AccessToken)
	}
	if err := h.manager.Destroy(ctx, c.Writer, c.Request); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "session_error", "failed to clear session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session exposes the client-safe session view, including the sticky refresh
// error so the UI can force a re-authentication.
func (h *Handler) Session(c *gin.Context) {
	s, ok := h.manager.Resolve(c.Request.Context(), c.Writer, c.Request)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": s.Usable(), "session": s.View()})
}
