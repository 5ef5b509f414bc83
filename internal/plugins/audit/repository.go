package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditRepository defines the data access contract for audit log operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type AuditRepository interface {
	// Log inserts a new audit entry into the database.
	Log(ctx context.Context, entry *AuditEntry) error

	// List returns audit entries most recent first, joined with usernames,
	// plus the total count for pagination.
	List(ctx context.Context, limit, offset int) ([]AuditEntry, int, error)
}

// auditRepository implements AuditRepository with MariaDB queries.
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new repository backed by the given DB pool.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log inserts a new audit entry. The details map is serialized to JSON
// before storage. Nil details are stored as SQL NULL.
func (r *auditRepository) Log(ctx context.Context, entry *AuditEntry) error {
	query := `INSERT INTO audit_log (user_id, action, entity_type, entity_id, entity_name, details, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.Action,
		entry.EntityType, entry.EntityID, entry.EntityName,
		detailsJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting audit entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// List returns audit entries ordered by most recent first.
func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]AuditEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting audit entries: %w", err)
	}

	query := `SELECT a.id, a.user_id, a.action,
	                 a.entity_type, a.entity_id, a.entity_name,
	                 a.details, a.created_at,
	                 COALESCE(u.username, 'system') AS user_name
	          FROM audit_log a
	          LEFT JOIN users u ON u.id = a.user_id
	          ORDER BY a.created_at DESC, a.id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// scanAuditRows scans rows from an audit_log query into AuditEntry slices.
// Expects columns: id, user_id, action, entity_type, entity_id,
// entity_name, details, created_at, user_name.
func scanAuditRows(rows *sql.Rows) ([]AuditEntry, error) {
	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var detailsJSON sql.NullString
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Action,
			&e.EntityType, &e.EntityID, &e.EntityName,
			&detailsJSON, &e.CreatedAt, &e.UserName,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &e.Details); err != nil {
				// Non-fatal: a bad row must not break the feed.
				e.Details = map[string]any{"_parse_error": "invalid JSON"}
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}
