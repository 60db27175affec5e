package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth. Reaching it without an identity is
// a wiring mistake, so it answers 500 rather than a client error.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok {
			m.log.ErrorContext(c.Request.Context(), "admin gate reached without identity", "route", c.FullPath())
			abortError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}
		if !id.IsAdmin {
			m.prom.AuthRejected("forbidden")
			abortError(c, http.StatusForbidden, "forbidden", msgAccessDenied)
			return
		}
		c.Next()
	}
}
