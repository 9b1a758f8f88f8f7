package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"clinic_backend/internal/repositories"
	"clinic_backend/internal/storage"
	"clinic_backend/pkg/utils"

	"github.com/google/uuid"
)

// FileStore uploads binary content. *storage.ObjectStore satisfies it.
type FileStore interface {
	Enabled() bool
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// FileUpload is one multipart file handed over by a handler.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// detectedType prefers the declared content type and falls back to the file extension.
func (f FileUpload) detectedType() string {
	ct := strings.TrimSpace(f.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
}

type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func objectKey(prefix, fileName, fallback string) string {
	return fmt.Sprintf("%s/%s_%s", prefix, uuid.NewString(), utils.SafeFileName(fileName, fallback))
}

func putFile(ctx context.Context, store FileStore, key, contentType string, file FileUpload) (string, error) {
	if store == nil || !store.Enabled() {
		return "", ErrStorageUnavailable
	}
	url, err := store.Put(ctx, key, contentType, file.Body, file.Size)
	if err != nil {
		if errors.Is(err, storage.ErrStorageDisabled) {
			return "", ErrStorageUnavailable
		}
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return url, nil
}

// ProcedureMediaService stores before/after pictures referenced by procedures.
type ProcedureMediaService interface {
	UploadImage(ctx context.Context, accountID, doctorID, patientID int64, file FileUpload) (*UploadResponse, error)
}

type procedureMediaService struct {
	patientRepo repositories.PatientRepository
	store       FileStore
}

func NewProcedureMediaService(patientRepo repositories.PatientRepository, store FileStore) ProcedureMediaService {
	return &procedureMediaService{patientRepo: patientRepo, store: store}
}

func (s *procedureMediaService) UploadImage(ctx context.Context, accountID, doctorID, patientID int64, file FileUpload) (*UploadResponse, error) {
	contentType := file.detectedType()
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %q is not an image", ErrUnsupportedMediaType, file.Name)
	}
	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}

	key := objectKey(fmt.Sprintf("procedures/user_%d/patient_%d", accountID, patientID), file.Name, "image")
	url, err := putFile(ctx, s.store, key, contentType, file)
	if err != nil {
		return nil, err
	}
	return &UploadResponse{URL: url, Key: key}, nil
}
