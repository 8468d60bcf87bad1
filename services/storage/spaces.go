package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// SpacesClient stores slide images on S3-compatible object storage
type SpacesClient struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
	cdnURL   string
}

// SpacesConfig holds configuration for the Spaces client
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// NewSpacesClient creates a new Spaces client
func NewSpacesClient(config SpacesConfig) (*SpacesClient, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return &SpacesClient{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
		cdnURL:   config.CDNURL,
	}, nil
}

// UploadSlide uploads a slide image for a case and returns the storage
// key plus its public URL. Keys are namespaced per case.
func (s *SpacesClient) UploadSlide(ctx context.Context, caseID uint, filename string, data io.Reader) (string, string, error) {
	contentType := imageContentType(filename)
	if contentType == "" {
		return "", "", fmt.Errorf("unsupported image type %q", filepath.Ext(filename))
	}

	key := fmt.Sprintf("slides/%d/%s%s", caseID, uuid.New().String(), strings.ToLower(filepath.Ext(filename)))

	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload slide: %w", err)
	}

	return key, s.FileURL(key), nil
}

// DeleteFile removes an object from the bucket
func (s *SpacesClient) DeleteFile(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// FileURL returns the public URL for a stored object
func (s *SpacesClient) FileURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

// PresignedURL generates a temporary access URL
func (s *SpacesClient) PresignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

func imageContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}
