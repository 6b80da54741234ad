package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/tasktracker/internal/actorctx"
	"github.com/geocoder89/tasktracker/internal/auth"
	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/identity"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/geocoder89/tasktracker/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionCookie holds the signed session token.
const SessionCookie = "session"

const LoginPath = "/login/"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

// AccountLookup loads the account behind a session so deactivated or
// deleted users lose access before their token expires.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	revoked  session.Revoker
	accounts AccountLookup
}

func NewAuthMiddleware(jwt TokenVerifier, revoked session.Revoker, accounts AccountLookup) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, revoked: revoked, accounts: accounts}
}

// TokenFromRequest prefers the session cookie and falls back to a bearer
// token.
func TokenFromRequest(c *gin.Context) string {
	if raw, err := c.Cookie(SessionCookie); err == nil && raw != "" {
		return raw
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Authenticate resolves the caller when a valid, unrevoked token belongs to
// an active account. It never rejects; anonymous requests continue with the
// zero identity.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFromRequest(c)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := m.jwt.VerifySessionToken(raw)
		if err != nil {
			c.Next()
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(c.Request.Context(), claims.JTI)
			if err != nil {
				// fail closed
				slog.Default().WarnContext(c.Request.Context(), "revocation lookup failed", "err", err)
				c.Next()
				return
			}
			if revoked {
				c.Next()
				return
			}
		}

		id, ok := m.resolve(c.Request.Context(), claims)
		if !ok {
			c.Next()
			return
		}

		c.Set(CtxIdentity, id)
		c.Set(CtxClaims, claims)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// resolve builds the caller from the stored account. Role and email come
// from the row, not the token, so manager edits apply on the next request.
func (m *AuthMiddleware) resolve(ctx context.Context, claims *auth.Claims) (policy.Identity, bool) {
	u, err := m.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			slog.Default().WarnContext(ctx, "session account lookup failed", "err", err, "user_id", claims.UserID)
		}
		return policy.Identity{}, false
	}
	if !u.IsActive {
		return policy.Identity{}, false
	}

	return identity.IdentityOf(u), true
}

// RequireAuth sends anonymous callers to the login page.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFromContext(c).IsAuthenticated() {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) policy.Identity {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return policy.Identity{}
	}
	id, _ := v.(policy.Identity)
	return id
}

func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := IdentityFromContext(c)
	return id.UserID, id.IsAuthenticated()
}
