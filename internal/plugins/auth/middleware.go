package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Context keys for storing session data in Echo context. Other plugins
// use these keys (via the exported getter functions below) to access
// the authenticated user's information.
const (
	contextKeySession = "auth_session"
	contextKeyUserID  = "auth_user_id"
)

// RequireAuth returns middleware that validates the session token from the
// Authorization header or the session cookie and injects the session into
// the request context. Missing or invalid sessions get a 401 JSON response.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return unauthenticated(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				// Invalid or expired session -- clear the stale cookie.
				clearSessionCookie(c)
				return unauthenticated(c)
			}

			SetSession(c, session)

			return next(c)
		}
	}
}

// RequireAdmin rejects sessions without the admin role. Must run after
// RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return unauthenticated(c)
			}
			if !session.IsAdmin() {
				return c.JSON(http.StatusForbidden, map[string]string{
					"message": "Admin access required",
				})
			}
			return next(c)
		}
	}
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"message": "Authentication required",
	})
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSession attaches an authenticated session to the Echo context.
func SetSession(c echo.Context, session *Session) {
	c.Set(contextKeySession, session)
	c.Set(contextKeyUserID, session.UserID)
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// getSessionToken prefers a bearer token and falls back to the cookie.
func getSessionToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
