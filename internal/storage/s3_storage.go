package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/grocerly/grocerly-backend/config"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

const (
	MaxDocumentSize = 10 << 20
	presignExpiry   = 15 * time.Minute
)

var (
	ErrUnsupportedType = errors.New("content type is not allowed")
	ErrFileTooLarge    = errors.New("file exceeds the 10MB limit")
	ErrInvalidKind     = errors.New("unknown document kind")
)

// AllowedContentTypes maps each accepted content type to its canonical extension.
var AllowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentStorage hands out direct-to-bucket upload URLs for verification documents.
type DocumentStorage interface {
	PresignDocument(ctx context.Context, kind model.DocumentKind, filename, contentType string, size int64) (*PresignedUpload, error)
}

type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Storage(ctx context.Context, cfg config.S3Config) *S3Storage {
	var awsCfg aws.Config

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			loaded = aws.Config{Region: cfg.Region}
		}
		awsCfg = loaded
	}

	return &S3Storage{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// PresignDocument validates the upload and returns a PUT URL for
// applications/<kind>/<uuid><ext>, valid for 15 minutes.
func (s *S3Storage) PresignDocument(ctx context.Context, kind model.DocumentKind, filename, contentType string, size int64) (*PresignedUpload, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}
	if err := ValidateFileSize(size); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = AllowedContentTypes[contentType]
	}
	key := fmt.Sprintf("applications/%s/%s%s", kind, uuid.New().String(), ext)

	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		logger.Error("Failed to presign document upload", err, map[string]interface{}{
			"kind": kind,
		})
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}

// ValidateFileSize accepts unknown sizes (zero) and rejects anything over the limit.
func ValidateFileSize(size int64) error {
	if size > MaxDocumentSize {
		return ErrFileTooLarge
	}
	return nil
}

func ValidateContentType(contentType string) error {
	if _, ok := AllowedContentTypes[strings.ToLower(contentType)]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return nil
}
