package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// MediaRepository defines the data access contract for media file records.
type MediaRepository interface {
	Create(ctx context.Context, file *MediaFile) error
	FindByID(ctx context.Context, id string) (*MediaFile, error)
	Delete(ctx context.Context, id string) error
}

// mediaRepository implements MediaRepository with MariaDB queries.
type mediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new media repository.
func NewMediaRepository(db *sql.DB) MediaRepository {
	return &mediaRepository{db: db}
}

// Create inserts a new media file record.
func (r *mediaRepository) Create(ctx context.Context, file *MediaFile) error {
	thumbJSON, err := json.Marshal(file.ThumbnailKeys)
	if err != nil {
		return fmt.Errorf("marshaling thumbnail keys: %w", err)
	}

	query := `INSERT INTO media_files (id, uploaded_by, storage_key, original_name,
	          mime_type, file_size, kind, thumbnail_keys, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		file.ID, file.UploadedBy, file.StorageKey, file.OriginalName,
		file.MimeType, file.FileSize, file.Kind, string(thumbJSON),
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting media file: %w", err)
	}
	return nil
}

// FindByID retrieves a media file by its UUID.
func (r *mediaRepository) FindByID(ctx context.Context, id string) (*MediaFile, error) {
	query := `SELECT id, uploaded_by, storage_key, original_name,
	                 mime_type, file_size, kind, thumbnail_keys, created_at
	          FROM media_files WHERE id = ?`

	file := &MediaFile{}
	var thumbJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.UploadedBy, &file.StorageKey, &file.OriginalName,
		&file.MimeType, &file.FileSize, &file.Kind, &thumbJSON,
		&file.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("media file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying media file by id: %w", err)
	}

	file.ThumbnailKeys = make(map[string]string)
	if len(thumbJSON) > 0 {
		if err := json.Unmarshal(thumbJSON, &file.ThumbnailKeys); err != nil {
			return nil, fmt.Errorf("unmarshaling thumbnail keys: %w", err)
		}
	}
	return file, nil
}

// Delete removes a media file record.
func (r *mediaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting media file: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("media file not found")
	}
	return nil
}
