package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/amnii/internal/actorctx"
	"github.com/geocoder89/amnii/internal/auth"
	"github.com/geocoder89/amnii/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
	prom   *observability.Prom
	log    *slog.Logger
}

func NewAuthMiddleware(tokens TokenVerifier, prom *observability.Prom, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{tokens: tokens, prom: prom, log: log}
}

const (
	msgNoToken      = "Access denied. No token provided."
	msgBadFormat    = "Access denied. Invalid token format."
	msgInvalidToken = "Invalid token."
	msgAccessDenied = "Access denied."

	bearerPrefix = "Bearer "
	authHeader   = "Authorization"
)

// RequireAuth verifies the bearer token and stores the caller identity on
// both the gin context and the request context. It never touches a store.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeader)
		if header == "" {
			m.prom.AuthRejected("missing_token")
			abortError(c, http.StatusUnauthorized, "missing_token", msgNoToken)
			return
		}

		raw, ok := bearerToken(header)
		if !ok {
			m.prom.AuthRejected("malformed_token")
			abortError(c, http.StatusUnauthorized, "malformed_token", msgBadFormat)
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			m.prom.AuthRejected("invalid_token")
			m.log.DebugContext(c.Request.Context(), "token rejected", "err", err)
			abortError(c, http.StatusUnauthorized, "invalid_token", msgInvalidToken)
			return
		}

		id := actorctx.Identity{SubjectID: claims.UserID, IsAdmin: claims.IsAdmin}

		c.Set(CtxUserID, id.SubjectID)
		c.Set(CtxIsAdmin, id.IsAdmin)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// bearerToken accepts exactly "Bearer <token>" with a non-empty token.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}

// Optional helpers so handlers don’t need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func IdentityFromContext(c *gin.Context) (actorctx.Identity, bool) {
	id, ok := UserIDFromContext(c)
	if !ok {
		return actorctx.Identity{}, false
	}
	admin, _ := c.Get(CtxIsAdmin)
	isAdmin, _ := admin.(bool)

	return actorctx.Identity{SubjectID: id, IsAdmin: isAdmin}, true
}
