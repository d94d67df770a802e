package services

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageUploader stores an image somewhere public and returns its URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, filename string) (string, error)
}

type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryService(cloudName, apiKey, apiSecret, folder string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryService{
		cld:    cld,
		folder: folder,
	}, nil
}

// UploadImage implements ImageUploader.
func (s *CloudinaryService) UploadImage(ctx context.Context, file io.Reader, filename string) (string, error) {
	uploadResult, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         s.folder,
		ResourceType:   "image",
		UniqueFilename: boolPtr(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to Cloudinary: %w", filename, err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected %s: %s", filename, uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}

func boolPtr(b bool) *bool {
	return &b
}
