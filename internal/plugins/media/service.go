package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"path"
	"time"

	// Register the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// thumbnailSizes are the longest-edge sizes generated for raster images.
var thumbnailSizes = []int{300, 800}

// MediaService handles business logic for media file operations.
type MediaService interface {
	Upload(ctx context.Context, input UploadInput) (*MediaFile, error)
	GetByID(ctx context.Context, id string) (*MediaFile, error)
	Delete(ctx context.Context, id string) error
	URL(key string) string
}

// mediaService implements MediaService.
type mediaService struct {
	repo    MediaRepository
	storage Storage
	maxSize int64
	now     func() time.Time
}

// NewMediaService creates a new media service.
func NewMediaService(repo MediaRepository, storage Storage, maxSize int64) MediaService {
	return &mediaService{
		repo:    repo,
		storage: storage,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Upload validates, stores, and records a new media file.
func (s *mediaService) Upload(ctx context.Context, input UploadInput) (*MediaFile, error) {
	kind := kindOf(input.MimeType)
	if kind == "" || (input.Kind != "" && input.Kind != kind) {
		return nil, apperror.NewBadRequest("unsupported file type: " + input.MimeType)
	}

	size := int64(len(input.FileBytes))
	if size > s.maxSize {
		return nil, apperror.NewBadRequest(fmt.Sprintf("file too large; maximum size is %d MB", s.maxSize/(1024*1024)))
	}

	if !validateMagicBytes(input.FileBytes, input.MimeType) {
		return nil, apperror.NewBadRequest("file content does not match declared type")
	}

	id := uuid.New().String()
	now := s.now().UTC()
	dir := now.Format("2006/01")
	ext := extensionFor(input.MimeType, input.OriginalName)

	file := &MediaFile{
		ID:            id,
		StorageKey:    path.Join(dir, id+ext),
		OriginalName:  input.OriginalName,
		MimeType:      input.MimeType,
		FileSize:      size,
		Kind:          kind,
		ThumbnailKeys: make(map[string]string),
		CreatedAt:     now,
	}
	if input.UploadedBy != "" {
		file.UploadedBy = &input.UploadedBy
	}

	if err := s.storage.Put(ctx, file.StorageKey, input.MimeType, input.FileBytes); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing media object: %w", err))
	}

	// Thumbnails are best-effort; a failed size is skipped.
	if kind == KindImage && input.MimeType != "image/gif" {
		for _, maxDim := range thumbnailSizes {
			data, thumbExt, err := generateThumbnail(input.FileBytes, ext, maxDim)
			if err != nil {
				slog.Debug("thumbnail skipped",
					slog.String("file_id", id),
					slog.Int("size", maxDim),
					slog.Any("error", err),
				)
				continue
			}
			key := path.Join(dir, fmt.Sprintf("%s_%d%s", id, maxDim, thumbExt))
			if err := s.storage.Put(ctx, key, thumbnailMIME(thumbExt), data); err != nil {
				slog.Warn("storing thumbnail failed",
					slog.String("file_id", id),
					slog.Int("size", maxDim),
					slog.Any("error", err),
				)
				continue
			}
			file.ThumbnailKeys[fmt.Sprint(maxDim)] = key
		}
	}

	if err := s.repo.Create(ctx, file); err != nil {
		s.removeObjects(ctx, file)
		return nil, apperror.NewInternal(fmt.Errorf("saving media record: %w", err))
	}

	file.URL = s.storage.URL(file.StorageKey)
	slog.Info("media file uploaded",
		slog.String("id", id),
		slog.String("mime_type", input.MimeType),
		slog.Int64("size", size),
	)
	return file, nil
}

// GetByID retrieves a media file by ID.
func (s *mediaService) GetByID(ctx context.Context, id string) (*MediaFile, error) {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	file.URL = s.storage.URL(file.StorageKey)
	return file, nil
}

// Delete removes a media file record, its object, and its thumbnails.
func (s *mediaService) Delete(ctx context.Context, id string) error {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeObjects(ctx, file)

	slog.Info("media file deleted", slog.String("id", id))
	return nil
}

// URL returns the public link for a storage key.
func (s *mediaService) URL(key string) string {
	return s.storage.URL(key)
}

// removeObjects deletes every stored object of a file, logging failures.
func (s *mediaService) removeObjects(ctx context.Context, file *MediaFile) {
	for _, key := range file.Keys() {
		if err := s.storage.Delete(ctx, key); err != nil {
			slog.Warn("removing media object failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}
}

// generateThumbnail returns a resized copy of an image no larger than maxDim
// on its longest edge, with the extension it was encoded as.
func generateThumbnail(data []byte, ext string, maxDim int) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return nil, "", fmt.Errorf("image already smaller than %d", maxDim)
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, dst)
	case ".gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		// JPEG and WebP sources both get JPEG thumbnails.
		ext = ".jpg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, "", fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), ext, nil
}

func thumbnailMIME(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// validateMagicBytes checks that the file content's magic bytes match the
// declared MIME type, so a spoofed Content-Type is rejected.
func validateMagicBytes(data []byte, declaredMIME string) bool {
	if len(data) < 4 {
		return false
	}
	switch declaredMIME {
	case "image/jpeg":
		return data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
	case "image/png":
		return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
	case "image/gif":
		return bytes.HasPrefix(data, []byte("GIF8"))
	case "image/webp":
		return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
	case "video/webm":
		return bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3})
	case "video/mp4":
		return len(data) >= 8 && string(data[4:8]) == "ftyp"
	case "video/quicktime":
		if len(data) < 8 {
			return false
		}
		switch string(data[4:8]) {
		case "ftyp", "moov", "mdat", "wide", "free", "skip":
			return true
		}
		return false
	default:
		return false
	}
}
