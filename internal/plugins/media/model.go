// Package media stores blog images and videos. Objects live behind a Storage
// backend (local disk or S3-compatible) in a date-based key layout, and every
// upload is recorded in media_files. Images get resized thumbnails.
package media

import (
	"path"
	"strings"
	"time"
)

// Media kinds.
const (
	KindImage = "image"
	KindVideo = "video"
)

// MediaFile represents an uploaded object.
type MediaFile struct {
	ID            string            `json:"id"`
	UploadedBy    *string           `json:"uploadedBy,omitempty"`
	StorageKey    string            `json:"storageKey"`   // e.g. "2026/05/<uuid>.jpg".
	OriginalName  string            `json:"originalName"` // User's original filename.
	MimeType      string            `json:"mimeType"`
	FileSize      int64             `json:"fileSize"`
	Kind          string            `json:"kind"`
	ThumbnailKeys map[string]string `json:"thumbnailKeys"` // size -> storage key.
	CreatedAt     time.Time         `json:"createdAt"`

	// URL is the public link, filled in by the service.
	URL string `json:"url"`
}

// UploadInput holds the validated input for creating a media file.
type UploadInput struct {
	UploadedBy   string
	OriginalName string
	MimeType     string
	FileBytes    []byte

	// Kind restricts the upload to images or videos; empty accepts either.
	Kind string
}

// --- MIME Type Validation ---

// imageTypes and videoTypes map accepted MIME types to file extensions.
var (
	imageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	videoTypes = map[string]string{
		"video/mp4":       ".mp4",
		"video/webm":      ".webm",
		"video/quicktime": ".mov",
	}
)

// kindOf returns the media kind for a MIME type, or "" when unsupported.
func kindOf(mimeType string) string {
	if _, ok := imageTypes[mimeType]; ok {
		return KindImage
	}
	if _, ok := videoTypes[mimeType]; ok {
		return KindVideo
	}
	return ""
}

// extensionFor returns the canonical extension for a supported MIME type,
// falling back to the original filename's extension.
func extensionFor(mimeType, originalName string) string {
	if ext, ok := imageTypes[mimeType]; ok {
		return ext
	}
	if ext, ok := videoTypes[mimeType]; ok {
		return ext
	}
	return strings.ToLower(path.Ext(originalName))
}

// IsImage returns true if the file is an image.
func (f *MediaFile) IsImage() bool {
	return f.Kind == KindImage
}

// Keys returns the storage keys of the object and all of its thumbnails.
func (f *MediaFile) Keys() []string {
	keys := []string{f.StorageKey}
	for _, k := range f.ThumbnailKeys {
		keys = append(keys, k)
	}
	return keys
}
