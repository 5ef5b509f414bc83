package expertforms

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
)

// memFormRepo is an in-memory FormRepository.
type memFormRepo struct {
	forms    map[string]*ExpertForm
	replyErr error
}

func newMemFormRepo() *memFormRepo {
	return &memFormRepo{forms: make(map[string]*ExpertForm)}
}

func (m *memFormRepo) Create(_ context.Context, f *ExpertForm) error {
	cp := *f
	cp.Replies = []Reply{}
	m.forms[f.ID] = &cp
	return nil
}

func (m *memFormRepo) FindByID(_ context.Context, id string) (*ExpertForm, error) {
	f, ok := m.forms[id]
	if !ok {
		return nil, apperror.NewNotFound("Question not found")
	}
	cp := *f
	cp.Replies = append([]Reply{}, f.Replies...)
	return &cp, nil
}

func (m *memFormRepo) List(_ context.Context) ([]ExpertForm, error) {
	out := []ExpertForm{}
	for _, f := range m.forms {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memFormRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.forms[id]; !ok {
		return apperror.NewNotFound("Question not found")
	}
	delete(m.forms, id)
	return nil
}

func (m *memFormRepo) AddReply(_ context.Context, rp *Reply) error {
	if m.replyErr != nil {
		return m.replyErr
	}
	f := m.forms[rp.FormID]
	f.Replies = append(f.Replies, *rp)
	f.IsHandled = true
	f.HandledBy = rp.RepliedBy
	at := rp.RepliedAt
	f.HandledAt = &at
	return nil
}

type mockMailSender struct {
	sendMailFn func(ctx context.Context, to []string, subject, body string) error
	sent       []sentMail
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

func (m *mockMailSender) SendMail(ctx context.Context, to []string, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	if m.sendMailFn != nil {
		return m.sendMailFn(ctx, to, subject, body)
	}
	return nil
}

func (m *mockMailSender) IsConfigured(_ context.Context) bool { return true }

type mockNotifier struct {
	userIDs []string
	formID  string
	message string
	err     error
}

func (m *mockNotifier) CreateForUsers(_ context.Context, userIDs []string, formID, message string) error {
	m.userIDs, m.formID, m.message = userIDs, formID, message
	return m.err
}

type staticAdmins []string

func (s staticAdmins) AdminIDs(context.Context) ([]string, error) { return s, nil }

type mockRecorder struct {
	entries []audit.AuditEntry
}

func (m *mockRecorder) Record(_ context.Context, e *audit.AuditEntry) {
	m.entries = append(m.entries, *e)
}

type testEnv struct {
	svc      *formService
	repo     *memFormRepo
	mail     *mockMailSender
	notifier *mockNotifier
	recorder *mockRecorder
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:     newMemFormRepo(),
		mail:     &mockMailSender{},
		notifier: &mockNotifier{},
		recorder: &mockRecorder{},
	}
	env.svc = NewFormService(env.repo, env.mail, env.notifier, staticAdmins{"admin-1", "admin-2"}, env.recorder).(*formService)
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return env
}

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
