package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "inkwell_session"

// Handler handles HTTP requests for authentication and password reset.
// Handlers are thin: they bind the request, call the service, and write
// the JSON response. No business logic lives here.
type Handler struct {
	service    AuthService
	sessionTTL time.Duration
	secure     bool
}

// NewHandler creates a new auth handler. secure marks the session cookie
// Secure; it is set outside development.
func NewHandler(service AuthService, sessionTTL time.Duration, secure bool) *Handler {
	return &Handler{service: service, sessionTTL: sessionTTL, secure: secure}
}

// Login authenticates an admin (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successfully",
		Token:   token,
		User:    UserSummary{ID: user.ID, Username: user.Username, Role: user.Role},
	})
}

// Logout destroys the current session (POST /api/auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		if err := h.service.DestroySession(c.Request().Context(), token); err != nil {
			return err
		}
	}
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the current session's user (GET /api/auth/me).
func (h *Handler) Me(c echo.Context) error {
	session := GetSession(c)
	if session == nil {
		return apperror.NewUnauthorized("Authentication required")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user": UserSummary{ID: session.UserID, Username: session.Username, Role: session.Role},
	})
}

// ForgotPassword emails a reset code (POST /api/auth/forgot-password).
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if err := h.service.IssueOTP(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "OTP has been sent to your email"})
}

// VerifyOTP exchanges a code for a reset ticket (POST /api/auth/verify-otp).
func (h *Handler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	ticket, err := h.service.VerifyOTP(c.Request().Context(), string(req.OTP))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, VerifyResponse{
		Message:     "Valid OTP, please enter new password",
		ResetTicket: ticket,
	})
}

// ResetPassword sets a new password (PUT /api/auth/reset-password).
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	err := h.service.ResetPassword(c.Request().Context(), ResetInput{
		Ticket:          req.ResetTicket,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password changed successfully!"})
}

// --- Cookie helpers ---

func (h *Handler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
