package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes sets up all auth routes under /api/auth. Login and the
// reset endpoints are public and rate-limited per IP; logout and me need a
// session.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService, rdb redis.UniversalClient) {
	g := e.Group("/api/auth")

	g.POST("/login", h.Login, middleware.RateLimit(rdb, "login", 10, time.Minute))
	g.POST("/forgot-password", h.ForgotPassword, middleware.RateLimit(rdb, "forgot-password", 5, time.Minute))
	g.POST("/verify-otp", h.VerifyOTP, middleware.RateLimit(rdb, "verify-otp", 10, time.Minute))
	g.PUT("/reset-password", h.ResetPassword, middleware.RateLimit(rdb, "reset-password", 10, time.Minute))

	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, RequireAuth(service))
}
