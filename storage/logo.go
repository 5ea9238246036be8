// Package storage uploads business logos to S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"talktrack-backend/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxLogoBytes caps a single logo upload.
const MaxLogoBytes = 2 << 20

var (
	ErrDisabled           = errors.New("storage: logo bucket not configured")
	ErrUnsupportedType    = errors.New("storage: unsupported image type")
	ErrTooLarge           = errors.New("storage: logo exceeds size limit")
	allowedLogoExtensions = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
)

// S3API is the subset of the S3 client used by LogoStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type LogoStore struct {
	s3Client      S3API
	bucket        string
	publicBaseURL string
	logger        *logging.Logger
}

// NewLogoStore builds a store. publicBaseURL defaults to the bucket's
// virtual-hosted S3 address in region.
func NewLogoStore(client S3API, bucket, region, publicBaseURL string, logger *logging.Logger) *LogoStore {
	if logger == nil {
		logger = logging.Default()
	}
	if publicBaseURL == "" && bucket != "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &LogoStore{
		s3Client:      client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

func (s *LogoStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Upload stores one logo image and returns its public URL.
func (s *LogoStore) Upload(ctx context.Context, businessID uint, contentType string, size int64, body io.Reader) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	ext, ok := allowedLogoExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if size > MaxLogoBytes {
		return "", ErrTooLarge
	}

	key := fmt.Sprintf("logos/%d/%s%s", businessID, uuid.NewString(), ext)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          io.LimitReader(body, MaxLogoBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	s.logger.Info("uploaded business logo", "business_id", businessID, "s3_key", key, "bytes", size)
	return s.publicBaseURL + "/" + key, nil
}
