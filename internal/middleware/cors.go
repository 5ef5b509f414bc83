package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the origins permitted to make cross-origin
	// requests, typically the admin dashboard and the customer site.
	// ["*"] allows any origin.
	AllowedOrigins []string

	// AllowCredentials lets the browser send the session cookie along with
	// cross-origin requests from the dashboard.
	AllowCredentials bool
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID",
	}, ", ")
)

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// for the JSON API. Requests from unknown origins pass through without CORS
// headers and are blocked by the browser.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[strings.TrimRight(o, "/")] = true
	}

	// A wildcard origin must never be combined with credentials.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS: wildcard origin with credentials is insecure, credentials disabled")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			if origin == "" || !(allowAll || originSet[origin]) {
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Add("Vary", "Origin")
			if cfg.AllowCredentials {
				res.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Allow-Methods", corsMethods)
				res.Header().Set("Access-Control-Allow-Headers", corsHeaders)
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			res.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
			return next(c)
		}
	}
}
