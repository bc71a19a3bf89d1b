package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/eslsoft/untranslatable/internal/infrastructure/config"
	"github.com/eslsoft/untranslatable/internal/usecase"
)

var _ usecase.AudioStorage = (*CloudinaryStorage)(nil)

var errNotConfigured = errors.New("audio storage is not configured")

// CloudinaryStorage uploads pronunciations to a Cloudinary folder.
type CloudinaryStorage struct {
	cld          *cloudinary.Cloudinary
	folder       string
	format       string
	resourceType string
}

// NewCloudinaryStorage builds the storage from config. Missing credentials are not an
// error at startup; uploads then fail with a 500 while the rest of the API keeps working.
func NewCloudinaryStorage(cfg *config.Config) (*CloudinaryStorage, error) {
	s := &CloudinaryStorage{
		folder:       cfg.Audio.Folder,
		format:       cfg.Audio.Format,
		resourceType: cfg.Audio.ResourceType,
	}
	if cfg.Audio.CloudName == "" || cfg.Audio.APIKey == "" || cfg.Audio.APISecret == "" {
		return s, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.Audio.CloudName, cfg.Audio.APIKey, cfg.Audio.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	s.cld = cld
	return s, nil
}

func (s *CloudinaryStorage) Upload(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if s.cld == nil {
		return "", errNotConfigured
	}
	resp, err := s.cld.Upload.Upload(ctx, audio, uploader.UploadParams{
		Folder:       s.folder,
		Format:       s.format,
		ResourceType: s.resourceType,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %q: %w", filename, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %q: %s", filename, resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload %q: empty url in response", filename)
	}
	return resp.SecureURL, nil
}
