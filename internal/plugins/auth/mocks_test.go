package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/config"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn          func(ctx context.Context, user *User) error
	findByIDFn        func(ctx context.Context, id string) (*User, error)
	findByEmailFn     func(ctx context.Context, email string) (*User, error)
	findByUsernameFn  func(ctx context.Context, username string) (*User, error)
	countUsersFn      func(ctx context.Context) (int, error)
	listIDsByRoleFn   func(ctx context.Context, role string) ([]string, error)
	updateLastLoginFn func(ctx context.Context, id string) error
	setOTPFn          func(ctx context.Context, userID, otpHash string, expiresAt time.Time) error
	listPendingOTPsFn func(ctx context.Context, now time.Time) ([]PendingOTP, error)
	clearOTPFn        func(ctx context.Context, userID, otpHash string) (bool, error)
	updatePasswordFn  func(ctx context.Context, userID, passwordHash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) CountUsers(ctx context.Context) (int, error) {
	if m.countUsersFn != nil {
		return m.countUsersFn(ctx)
	}
	return 0, nil
}

func (m *mockUserRepo) ListIDsByRole(ctx context.Context, role string) ([]string, error) {
	if m.listIDsByRoleFn != nil {
		return m.listIDsByRoleFn(ctx, role)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) SetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error {
	if m.setOTPFn != nil {
		return m.setOTPFn(ctx, userID, otpHash, expiresAt)
	}
	return nil
}

func (m *mockUserRepo) ListPendingOTPs(ctx context.Context, now time.Time) ([]PendingOTP, error) {
	if m.listPendingOTPsFn != nil {
		return m.listPendingOTPsFn(ctx, now)
	}
	return nil, nil
}

func (m *mockUserRepo) ClearOTP(ctx context.Context, userID, otpHash string) (bool, error) {
	if m.clearOTPFn != nil {
		return m.clearOTPFn(ctx, userID, otpHash)
	}
	return true, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHash)
	}
	return nil
}

// --- In-memory repository ---

// memUserRepo is a stateful UserRepository with the same OTP semantics as
// the SQL implementation, for end-to-end reset scenarios.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemUserRepo(users ...*User) *memUserRepo {
	r := &memUserRepo{users: map[string]*User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) find(match func(*User) bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (r *memUserRepo) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	return r.find(func(u *User) bool { return u.ID == id })
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	return r.find(func(u *User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	return r.find(func(u *User) bool { return u.Username == username })
}

func (r *memUserRepo) CountUsers(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *memUserRepo) ListIDsByRole(_ context.Context, role string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, u := range r.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (r *memUserRepo) UpdateLastLogin(context.Context, string) error { return nil }

func (r *memUserRepo) SetOTP(_ context.Context, userID, otpHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	u.OTPHash = &otpHash
	u.OTPExpiresAt = &expiresAt
	return nil
}

func (r *memUserRepo) ListPendingOTPs(_ context.Context, now time.Time) ([]PendingOTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PendingOTP
	for _, u := range r.users {
		if u.OTPHash != nil && u.OTPExpiresAt != nil && u.OTPExpiresAt.After(now) {
			out = append(out, PendingOTP{UserID: u.ID, Email: u.Email, OTPHash: *u.OTPHash, ExpiresAt: *u.OTPExpiresAt})
		}
	}
	return out, nil
}

func (r *memUserRepo) ClearOTP(_ context.Context, userID, otpHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.OTPHash == nil || *u.OTPHash != otpHash {
		return false, nil
	}
	u.OTPHash = nil
	u.OTPExpiresAt = nil
	return true, nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	u.PasswordHash = passwordHash
	u.OTPHash = nil
	u.OTPExpiresAt = nil
	return nil
}

// --- Mock Mail Sender ---

// mockMailSender implements smtp.MailService for testing.
type mockMailSender struct {
	sendMailFn func(ctx context.Context, to []string, subject, body string) error
	// Capture fields for assertions.
	lastTo      []string
	lastSubject string
	lastBody    string
	sendCount   int
}

func (m *mockMailSender) SendMail(ctx context.Context, to []string, subject, body string) error {
	m.lastTo = to
	m.lastSubject = subject
	m.lastBody = body
	m.sendCount++
	if m.sendMailFn != nil {
		return m.sendMailFn(ctx, to, subject, body)
	}
	return nil
}

func (m *mockMailSender) IsConfigured(context.Context) bool { return true }

// --- Mock audit recorder ---

type mockRecorder struct {
	entries []audit.AuditEntry
}

func (m *mockRecorder) Record(_ context.Context, entry *audit.AuditEntry) {
	m.entries = append(m.entries, *entry)
}

// --- Test Helpers ---

const testSecret = "test-secret-key-that-is-at-least-32-chars"

// testClock is a settable clock shared by the service and its ticket signer.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestAuthService wires an authService against miniredis with a fixed
// clock and the cheapest bcrypt cost.
func newTestAuthService(t *testing.T, repo UserRepository, mail *mockMailSender) (*authService, *testClock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	if mail == nil {
		mail = &mockMailSender{}
	}
	svc := NewAuthService(repo, rdb, mail, audit.Nop{}, config.AuthConfig{
		SecretKey:      testSecret,
		SessionTTL:     time.Hour,
		OTPTTL:         5 * time.Minute,
		ResetTicketTTL: 10 * time.Minute,
	}).(*authService)

	clock := &testClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	svc.now = clock.now
	svc.otpCost = bcrypt.MinCost
	return svc, clock, mr
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// assertAppErrorType checks the error type and client message.
func assertAppErrorType(t *testing.T, err error, errType, message string) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Type != errType {
		t.Errorf("expected type %q, got %q", errType, appErr.Type)
	}
	if message != "" && appErr.Message != message {
		t.Errorf("expected message %q, got %q", message, appErr.Message)
	}
}
