// Package auth handles admin authentication, sessions, and the OTP password
// reset flow for Inkwell. Sessions are opaque tokens stored in Redis; reset
// codes are bcrypt-hashed on the user row and exchanged for a single-use
// signed ticket.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// RoleAdmin is the only role the dashboard knows.
const RoleAdmin = "admin"

// User represents an admin account (the credential store row).
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	OTPHash      *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PendingOTP is a user with a live reset code, as scanned by Verify.
type PendingOTP struct {
	UserID    string
	Email     string
	OTPHash   string
	ExpiresAt time.Time
}

// --- Request DTOs (bound from HTTP requests) ---

// LoginRequest holds the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// ForgotPasswordRequest starts a reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// VerifyOTPRequest submits the emailed code. The dashboard sends it either
// as a string or as a number.
type VerifyOTPRequest struct {
	OTP OTPCode `json:"otp" form:"otp"`
}

// ResetPasswordRequest finalizes a reset.
type ResetPasswordRequest struct {
	ResetTicket     string `json:"resetTicket" form:"resetTicket"`
	Email           string `json:"email" form:"email"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// OTPCode accepts a JSON string or number.
type OTPCode string

// UnmarshalJSON implements json.Unmarshaler.
func (o *OTPCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = OTPCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*o = OTPCode(n.String())
	return nil
}

// UnmarshalParam lets Echo bind form and query values.
func (o *OTPCode) UnmarshalParam(param string) error {
	*o = OTPCode(strings.TrimSpace(param))
	return nil
}

// --- Service inputs ---

// LoginInput is the input for authenticating a user.
type LoginInput struct {
	Username string
	Password string
}

// ResetInput is the input for finalizing a password reset.
type ResetInput struct {
	Ticket          string
	Email           string
	NewPassword     string
	ConfirmPassword string
}

// BootstrapInput describes the first admin created on an empty database.
type BootstrapInput struct {
	Username string
	Email    string
	Password string
}

// --- Responses ---

// UserSummary is the user shape returned by login and /me.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

// VerifyResponse is returned by POST /api/auth/verify-otp.
type VerifyResponse struct {
	Message     string `json:"message"`
	ResetTicket string `json:"resetTicket"`
}

// --- Session ---

// Session represents an authenticated admin session stored in Redis.
// The session token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the session belongs to an admin.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
