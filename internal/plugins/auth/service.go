package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/config"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
	"github.com/keyxmakerx/inkwell/internal/plugins/smtp"
	"github.com/keyxmakerx/inkwell/internal/templates/emails"
)

// Redis key prefixes for session data and the per-user session index.
const (
	sessionKeyPrefix      = "session:"
	userSessionsKeyPrefix = "user_sessions:"
)

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// Client-facing messages of the login and reset flows.
const (
	msgLoginIncomplete  = "Please enter complete information !"
	msgBadCredentials   = "Username or password is incorrect!!"
	msgEmailRequired    = "Please enter email !!"
	msgEmailUnknown     = "Email does not exist"
	msgOTPSendFailed    = "Error while sending OTP"
	msgOTPRequired      = "Please enter OTP"
	msgOTPInvalid       = "OTP is incorrect or expired"
	msgResetEmail       = "Email is required!"
	msgResetIncomplete  = "Please enter complete information"
	msgResetMismatch    = "Confirmed password does not match"
	msgResetTooShort    = "Password must be at least 6 characters"
	msgResetNoAccount   = "Account not found"
	msgResetTicketStale = "Reset ticket is invalid or expired"
)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (token string, user *User, err error)
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error
	DestroyUserSessions(ctx context.Context, userID string) error

	// IssueOTP emails a fresh reset code to the account with this email.
	IssueOTP(ctx context.Context, email string) error

	// VerifyOTP consumes a pending code and returns a reset ticket.
	VerifyOTP(ctx context.Context, code string) (ticket string, err error)

	// ResetPassword redeems a reset ticket and sets the new password.
	ResetPassword(ctx context.Context, input ResetInput) error

	// Bootstrap creates the first admin when the users table is empty.
	// Returns nil, nil when nothing was created.
	Bootstrap(ctx context.Context, input BootstrapInput) (*User, error)

	// AdminIDs lists every admin, for notification fan-out.
	AdminIDs(ctx context.Context) ([]string, error)
}

// authService implements AuthService with argon2id hashing and Redis sessions.
type authService struct {
	repo    UserRepository
	redis   redis.UniversalClient
	mail    smtp.MailService
	audit   audit.Recorder
	tickets *ticketSigner

	sessionTTL time.Duration
	otpTTL     time.Duration
	otpCost    int
	now        func() time.Time
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, rdb redis.UniversalClient, mail smtp.MailService, recorder audit.Recorder, cfg config.AuthConfig) AuthService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	s := &authService{
		repo:       repo,
		redis:      rdb,
		mail:       mail,
		audit:      recorder,
		sessionTTL: cfg.SessionTTL,
		otpTTL:     cfg.OTPTTL,
		otpCost:    bcrypt.DefaultCost,
		now:        time.Now,
	}
	s.tickets = &ticketSigner{
		secret: []byte(cfg.SecretKey),
		ttl:    cfg.ResetTicketTTL,
		store:  NewRedisTicketStore(rdb),
		now:    func() time.Time { return s.now() },
	}
	return s
}

// --- Login and sessions ---

// Login authenticates an admin by username and password. On success it
// creates a new session in Redis and returns the session token.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return "", nil, apperror.NewBadRequest(msgLoginIncomplete)
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		// Don't reveal whether the account exists.
		if apperror.IsNotFound(err) {
			return "", nil, apperror.NewUnauthorized(msgBadCredentials)
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return "", nil, apperror.NewUnauthorized(msgBadCredentials)
	}

	token, err := s.createSession(ctx, user)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	// Non-critical; the login already succeeded.
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return token, user, nil
}

// ValidateSession looks up a session token in Redis and returns the session
// data if it exists and hasn't expired.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// DestroySession removes a session from Redis, effectively logging out.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	var session Session
	if data, err := s.redis.Get(ctx, key).Bytes(); err == nil {
		_ = json.Unmarshal(data, &session)
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	if session.UserID != "" {
		pipe.SRem(ctx, userSessionsKeyPrefix+session.UserID, token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}
	return nil
}

// DestroyUserSessions logs a user out everywhere.
func (s *authService) DestroyUserSessions(ctx context.Context, userID string) error {
	indexKey := userSessionsKeyPrefix + userID

	tokens, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("listing user sessions: %w", err))
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionKeyPrefix+t)
	}
	keys = append(keys, indexKey)

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting user sessions: %w", err))
	}
	return nil
}

// createSession generates a random session token, stores the session data in
// Redis with the configured TTL, and indexes it under the user.
func (s *authService) createSession(ctx context.Context, user *User) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	session := Session{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: s.now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	indexKey := userSessionsKeyPrefix + user.ID
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+token, data, s.sessionTTL)
	pipe.SAdd(ctx, indexKey, token)
	pipe.Expire(ctx, indexKey, s.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, nil
}

// --- OTP password reset ---

// IssueOTP generates a six-digit code, stores its bcrypt hash with an
// expiry, and mails the code. A second call overwrites the first code.
func (s *authService) IssueOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperror.NewBadRequest(msgEmailRequired)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound(msgEmailUnknown)
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	code, err := generateOTP()
	if err != nil {
		return apperror.NewInternal(err)
	}
	otpHash, err := hashOTP(code, s.otpCost)
	if err != nil {
		return apperror.NewInternal(err)
	}

	expiresAt := s.now().UTC().Add(s.otpTTL)
	if err := s.repo.SetOTP(ctx, user.ID, otpHash, expiresAt); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing otp: %w", err))
	}

	body, err := emails.Render(ctx, emails.OTPEmail(code, s.otpTTL))
	if err != nil {
		return apperror.NewInternal(err)
	}
	if err := s.mail.SendMail(ctx, []string{user.Email}, emails.SubjectOTP, body); err != nil {
		slog.Error("failed to send otp email",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return apperror.NewDelivery(msgOTPSendFailed, err)
	}

	slog.Info("otp issued",
		slog.String("user_id", user.ID),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}

// VerifyOTP scans pending codes for a match. The matching code is cleared
// with a compare-and-clear so two concurrent requests cannot both succeed.
func (s *authService) VerifyOTP(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", apperror.NewBadRequest(msgOTPRequired)
	}

	now := s.now().UTC()
	pending, err := s.repo.ListPendingOTPs(ctx, now)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("listing pending otps: %w", err))
	}

	for _, p := range pending {
		if !now.Before(p.ExpiresAt) {
			continue
		}
		if !otpMatches(code, p.OTPHash) {
			continue
		}

		// The ticket is issued before the code is cleared so a store
		// failure leaves the code usable for a retry. A ticket issued to a
		// request that then loses the clear is never returned and expires.
		ticket, err := s.tickets.issue(ctx, p.UserID, p.Email)
		if err != nil {
			return "", apperror.NewInternal(fmt.Errorf("issuing reset ticket: %w", err))
		}

		cleared, err := s.repo.ClearOTP(ctx, p.UserID, p.OTPHash)
		if err != nil {
			return "", apperror.NewInternal(fmt.Errorf("clearing otp: %w", err))
		}
		if !cleared {
			break
		}

		slog.Info("otp verified", slog.String("user_id", p.UserID))
		return ticket, nil
	}

	return "", apperror.NewInvalidOrExpired(msgOTPInvalid)
}

// ResetPassword validates the request, redeems the reset ticket, and
// stores the new password. All sessions of the account are revoked.
func (s *authService) ResetPassword(ctx context.Context, input ResetInput) error {
	email := normalizeEmail(input.Email)
	if email == "" {
		return apperror.NewBadRequest(msgResetEmail)
	}
	if input.NewPassword == "" || input.ConfirmPassword == "" {
		return apperror.NewBadRequest(msgResetIncomplete)
	}
	if input.NewPassword != input.ConfirmPassword {
		return apperror.NewPasswordMismatch(msgResetMismatch)
	}
	if utf8.RuneCountInString(input.NewPassword) < minPasswordLength {
		return apperror.NewBadRequest(msgResetTooShort)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound(msgResetNoAccount)
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if err := s.tickets.redeem(ctx, input.Ticket, user.ID, user.Email); err != nil {
		if errors.Is(err, errInvalidTicket) {
			return apperror.NewInvalidOrExpired(msgResetTicketStale)
		}
		return apperror.NewInternal(err)
	}

	hash, err := hashPassword(input.NewPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}

	if err := s.DestroyUserSessions(ctx, user.ID); err != nil {
		slog.Warn("failed to revoke sessions after password reset",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     user.ID,
		Action:     audit.ActionPasswordReset,
		EntityType: "user",
		EntityID:   user.ID,
		EntityName: user.Username,
	})

	slog.Info("password reset", slog.String("user_id", user.ID))
	return nil
}

// --- Bootstrap ---

// Bootstrap creates the first admin account if the store is empty and all
// bootstrap fields are set.
func (s *authService) Bootstrap(ctx context.Context, input BootstrapInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, nil
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("counting users: %w", err))
	}
	if count > 0 {
		return nil, nil
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Role:         RoleAdmin,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating admin: %w", err))
	}

	slog.Info("bootstrap admin created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// AdminIDs lists the IDs of every admin account.
func (s *authService) AdminIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListIDsByRole(ctx, RoleAdmin)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing admins: %w", err))
	}
	return ids, nil
}

// --- Helpers ---

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// normalizeEmail trims and lowercases an address for lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
