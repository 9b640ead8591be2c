package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/connect-gateway/internal/domain/session"
)

const sessionContextKey = "current_session"

func setSession(c *gin.Context, s session.Session) {
	c.Set(sessionContextKey, s)
}

func getSession(c *gin.Context) (session.Session, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := value.(session.Session)
	return s, ok
}
