package expertforms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// FormRepository defines the data access contract for expert forms.
type FormRepository interface {
	Create(ctx context.Context, form *ExpertForm) error
	FindByID(ctx context.Context, id string) (*ExpertForm, error)

	// List returns every form newest first, each with its replies oldest first.
	List(ctx context.Context) ([]ExpertForm, error)

	// Delete removes a form; its replies go with it via the FK cascade.
	Delete(ctx context.Context, id string) error

	// AddReply stores a reply and marks the form handled in one transaction.
	AddReply(ctx context.Context, reply *Reply) error
}

// formRepository implements FormRepository with MariaDB queries.
type formRepository struct {
	db *sql.DB
}

// NewFormRepository creates a new expert form repository.
func NewFormRepository(db *sql.DB) FormRepository {
	return &formRepository{db: db}
}

const formColumns = `id, name, email, phone, question, topic, is_handled, handled_by, handled_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(s rowScanner) (*ExpertForm, error) {
	f := &ExpertForm{Replies: []Reply{}}
	var handledBy sql.NullString
	var handledAt sql.NullTime
	err := s.Scan(&f.ID, &f.Name, &f.Email, &f.Phone, &f.Question, &f.Topic,
		&f.IsHandled, &handledBy, &handledAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if handledBy.Valid {
		f.HandledBy = &handledBy.String
	}
	if handledAt.Valid {
		f.HandledAt = &handledAt.Time
	}
	return f, nil
}

// Create inserts a new form.
func (r *formRepository) Create(ctx context.Context, f *ExpertForm) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expert_forms (id, name, email, phone, question, topic, is_handled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, FALSE, ?)`,
		f.ID, f.Name, f.Email, f.Phone, f.Question, f.Topic, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting expert form: %w", err)
	}
	return nil
}

// FindByID retrieves a form with its replies.
func (r *formRepository) FindByID(ctx context.Context, id string) (*ExpertForm, error) {
	f, err := scanForm(r.db.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM expert_forms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Question not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying expert form: %w", err)
	}

	replies, err := r.replies(ctx, `WHERE form_id = ?`, id)
	if err != nil {
		return nil, err
	}
	f.Replies = append(f.Replies, replies[id]...)
	return f, nil
}

// List returns all forms with their replies.
func (r *formRepository) List(ctx context.Context) ([]ExpertForm, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+formColumns+` FROM expert_forms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing expert forms: %w", err)
	}
	defer rows.Close()

	forms := []ExpertForm{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expert form: %w", err)
		}
		forms = append(forms, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expert forms: %w", err)
	}
	if len(forms) == 0 {
		return forms, nil
	}

	replies, err := r.replies(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range forms {
		forms[i].Replies = append(forms[i].Replies, replies[forms[i].ID]...)
	}
	return forms, nil
}

// replies loads replies grouped by form ID, oldest first.
func (r *formRepository) replies(ctx context.Context, where string, args ...any) (map[string][]Reply, error) {
	query := `SELECT id, form_id, message, replied_by, replied_at FROM expert_form_replies`
	if where != "" {
		query += " " + where
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY replied_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing replies: %w", err)
	}
	defer rows.Close()

	byForm := make(map[string][]Reply)
	for rows.Next() {
		var rp Reply
		var repliedBy sql.NullString
		if err := rows.Scan(&rp.ID, &rp.FormID, &rp.Message, &repliedBy, &rp.RepliedAt); err != nil {
			return nil, fmt.Errorf("scanning reply: %w", err)
		}
		if repliedBy.Valid {
			rp.RepliedBy = &repliedBy.String
		}
		byForm[rp.FormID] = append(byForm[rp.FormID], rp)
	}
	return byForm, rows.Err()
}

// Delete removes a form.
func (r *formRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expert_forms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting expert form: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("Question not found")
	}
	return nil
}

// AddReply appends a reply and flags the form handled by the replier.
func (r *formRepository) AddReply(ctx context.Context, rp *Reply) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expert_form_replies (id, form_id, message, replied_by, replied_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rp.ID, rp.FormID, rp.Message, rp.RepliedBy, rp.RepliedAt)
	if err != nil {
		return fmt.Errorf("inserting reply: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE expert_forms SET is_handled = TRUE, handled_by = ?, handled_at = ? WHERE id = ?`,
		rp.RepliedBy, rp.RepliedAt, rp.FormID)
	if err != nil {
		return fmt.Errorf("marking form handled: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reply: %w", err)
	}
	return nil
}
