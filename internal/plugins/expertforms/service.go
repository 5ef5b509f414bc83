package expertforms

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
	"github.com/keyxmakerx/inkwell/internal/plugins/notifications"
	"github.com/keyxmakerx/inkwell/internal/plugins/smtp"
	"github.com/keyxmakerx/inkwell/internal/sanitize"
	"github.com/keyxmakerx/inkwell/internal/templates/emails"
)

const (
	msgMissingInfo  = "Missing required information"
	msgInvalidEmail = "Invalid email address"
	msgReplyEmpty   = "Please enter a reply"
	msgReplyMailErr = "Reply saved, but the email could not be sent"
)

// AdminDirectory lists who should hear about new questions.
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]string, error)
}

// FormService handles business logic for expert forms.
type FormService interface {
	Submit(ctx context.Context, req SubmitRequest) (*ExpertForm, error)
	List(ctx context.Context) ([]ExpertForm, error)
	Delete(ctx context.Context, id, userID string) error

	// Reply persists the answer first, then emails it. A mail failure is
	// reported after the reply is already stored.
	Reply(ctx context.Context, id, message, adminID string) (*ExpertForm, error)
}

// formService implements FormService.
type formService struct {
	repo     FormRepository
	mail     smtp.MailService
	notifier notifications.Notifier
	admins   AdminDirectory
	audit    audit.Recorder
	now      func() time.Time
}

// NewFormService creates a new expert form service.
func NewFormService(repo FormRepository, mailer smtp.MailService, notifier notifications.Notifier, admins AdminDirectory, recorder audit.Recorder) FormService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &formService{
		repo:     repo,
		mail:     mailer,
		notifier: notifier,
		admins:   admins,
		audit:    recorder,
		now:      time.Now,
	}
}

// Submit stores a question, confirms it to the sender, and alerts admins.
func (s *formService) Submit(ctx context.Context, req SubmitRequest) (*ExpertForm, error) {
	form := &ExpertForm{
		ID:       uuid.New().String(),
		Name:     sanitize.PlainText(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    sanitize.PlainText(req.Phone),
		Question: sanitize.PlainText(req.Question),
		Topic:    sanitize.PlainText(req.Topic),
		Replies:  []Reply{},
	}
	if form.Name == "" || form.Email == "" || form.Phone == "" || form.Question == "" || form.Topic == "" {
		return nil, apperror.NewBadRequest(msgMissingInfo)
	}
	if addr, err := mail.ParseAddress(form.Email); err != nil || addr.Address != form.Email {
		return nil, apperror.NewBadRequest(msgInvalidEmail)
	}

	form.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, apperror.NewInternal(err)
	}

	s.sendConfirmation(ctx, form)
	s.notifyAdmins(ctx, form)

	slog.Info("expert form submitted",
		slog.String("form_id", form.ID),
		slog.String("topic", form.Topic),
	)
	return form, nil
}

// sendConfirmation mails the sender. Failures are logged only.
func (s *formService) sendConfirmation(ctx context.Context, form *ExpertForm) {
	body, err := emails.Render(ctx, emails.ExpertConfirmation(form.Name, form.Topic, form.Question))
	if err == nil {
		err = s.mail.SendMail(ctx, []string{form.Email}, emails.SubjectExpertConfirmation, body)
	}
	if err != nil {
		slog.Warn("expert form confirmation not sent",
			slog.String("form_id", form.ID),
			slog.Any("error", err),
		)
	}
}

// notifyAdmins fans a notification out to every admin. Failures are logged.
func (s *formService) notifyAdmins(ctx context.Context, form *ExpertForm) {
	ids, err := s.admins.AdminIDs(ctx)
	if err != nil {
		slog.Warn("listing admins for notification failed", slog.Any("error", err))
		return
	}
	message := fmt.Sprintf("You have a new question from %s about %q.", form.Name, form.Topic)
	if err := s.notifier.CreateForUsers(ctx, ids, form.ID, message); err != nil {
		slog.Warn("expert form notification failed",
			slog.String("form_id", form.ID),
			slog.Any("error", err),
		)
	}
}

// List returns every form with its replies.
func (s *formService) List(ctx context.Context) ([]ExpertForm, error) {
	forms, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return forms, nil
}

// Delete removes a form and its replies.
func (s *formService) Delete(ctx context.Context, id, userID string) error {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     userID,
		Action:     audit.ActionExpertFormDeleted,
		EntityType: "expert_form",
		EntityID:   form.ID,
		EntityName: form.Topic,
	})
	return nil
}

// Reply stores an answer, marks the form handled, and emails the sender.
func (s *formService) Reply(ctx context.Context, id, message, adminID string) (*ExpertForm, error) {
	message = sanitize.PlainText(message)
	if message == "" {
		return nil, apperror.NewBadRequest(msgReplyEmpty)
	}

	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reply := Reply{
		ID:        uuid.New().String(),
		FormID:    form.ID,
		Message:   message,
		RepliedAt: now,
	}
	if adminID != "" {
		reply.RepliedBy = &adminID
	}
	if err := s.repo.AddReply(ctx, &reply); err != nil {
		return nil, apperror.NewInternal(err)
	}

	form.Replies = append(form.Replies, reply)
	form.IsHandled = true
	form.HandledBy = reply.RepliedBy
	form.HandledAt = &now

	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     adminID,
		Action:     audit.ActionExpertFormReplied,
		EntityType: "expert_form",
		EntityID:   form.ID,
		EntityName: form.Topic,
	})

	body, err := emails.Render(ctx, emails.ExpertReply(form.Name, form.Question, message))
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if err := s.mail.SendMail(ctx, []string{form.Email}, emails.SubjectExpertReply, body); err != nil {
		slog.Error("expert reply email failed",
			slog.String("form_id", form.ID),
			slog.Any("error", err),
		)
		return nil, apperror.NewDelivery(msgReplyMailErr, err)
	}
	return form, nil
}
