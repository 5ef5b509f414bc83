package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// perPage is the number of audit entries returned per page.
const perPage = 50

// Recorder is the cross-plugin contract for writing audit entries. Services
// call Record after a successful mutation; it never returns an error.
type Recorder interface {
	Record(ctx context.Context, entry *AuditEntry)
}

// AuditService handles business logic for the audit log.
type AuditService interface {
	Recorder

	// Log validates and persists an entry, returning any failure.
	Log(ctx context.Context, entry *AuditEntry) error

	// List returns one page of the activity feed. Pages are 1-indexed.
	List(ctx context.Context, page int) (*ActivityPage, error)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Log validates and persists an audit entry.
func (s *auditService) Log(ctx context.Context, entry *AuditEntry) error {
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}
	return nil
}

// Record is the fire-and-forget form of Log. Failures are logged.
func (s *auditService) Record(ctx context.Context, entry *AuditEntry) {
	if err := s.Log(ctx, entry); err != nil {
		slog.Warn("failed to write audit log entry",
			slog.String("action", entry.Action),
			slog.String("entity_id", entry.EntityID),
			slog.Any("error", err),
		)
	}
}

// List returns the paginated activity feed. Invalid pages clamp to 1.
func (s *auditService) List(ctx context.Context, page int) (*ActivityPage, error) {
	if page < 1 {
		page = 1
	}

	entries, total, err := s.repo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing activity: %w", err))
	}

	return &ActivityPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Nop is a Recorder that discards entries. Used in tests and by callers
// that run without an audit store.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, *AuditEntry) {}
