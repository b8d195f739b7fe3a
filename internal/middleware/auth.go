package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"userhub/internal/roles"
	"userhub/internal/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRoles  = "user_roles"
)

type Auth struct {
	Issuer *tokens.Issuer
}

func NewAuth(issuer *tokens.Issuer) *Auth {
	return &Auth{Issuer: issuer}
}

// RequireAuth authenticates the bearer access token and stashes the caller
// identity in the request context. Missing or bad tokens are the
// "unauthenticated" signal: 401, fail closed.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Issuer.ParseAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}

		held := make([]roles.Role, 0, len(claims.Roles))
		for _, r := range claims.Roles {
			held = append(held, roles.Role(r))
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxRoles, held)

		return next(c)
	}
}

// RequireRole authorizes against the role hierarchy: the caller passes when
// any of its roles equals or transitively inherits the required one. An
// authenticated caller that fails the check gets the distinct "forbidden"
// signal: 403. The decision is recomputed per request from the token's
// embedded roles snapshot.
func RequireRole(required roles.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held, ok := c.Get(CtxRoles).([]roles.Role)
			if !ok || len(held) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing role claims")
			}
			if !roles.AnyInherits(held, required) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated caller's id set by RequireAuth.
func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserID).(string)
	return id
}
