package storage

import (
	"context"
)

// LogoUploader defines the interface for uploading publication logos
// This interface allows for easy mocking in tests
type LogoUploader interface {
	UploadLogo(ctx context.Context, imageData []byte, publicationID, originalFilename string) (*UploadResult, error)
}

// FileDeleter removes a previously stored object by key. Backends that can
// clean up replaced logos implement it alongside LogoUploader.
type FileDeleter interface {
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements both interfaces
var _ LogoUploader = (*S3Uploader)(nil)
var _ FileDeleter = (*S3Uploader)(nil)
