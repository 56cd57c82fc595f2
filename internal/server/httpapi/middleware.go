package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/server/token"
)

const identityKey = "identity"

// authRequired decodes the access token from the Authorization header, or
// from the Authorization cookie set at login, and stores the identity
// snapshot in the request context. Expired and malformed tokens both end the
// request with 401.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			raw, _ = c.Cookie(accessCookieName)
		}
		raw = strings.TrimPrefix(raw, "Bearer ")
		if raw == "" {
			s.writeError(c, common.ErrInvalidToken)
			c.Abort()
			return
		}

		claims, err := s.codec.DecodeAccess(raw)
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(identityKey, claims.User)
		c.Next()
	}
}

func identityFrom(c *gin.Context) token.Identity {
	identity, _ := c.MustGet(identityKey).(token.Identity)
	return identity
}
