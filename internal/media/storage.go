package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/rkoshti/cliptube-be/internal/apperr"
)

// Uploader pushes a locally staged file to hosted storage and returns its
// public URL. Handlers depend on this interface so tests can fake it.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Options configures the S3-compatible media store.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Storage uploads media files to an S3-compatible bucket (MinIO in
// development, any S3 endpoint in production).
type Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewStorage builds the S3 client from static credentials and a custom
// endpoint.
func NewStorage(ctx context.Context, opts Options) (*Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true // MinIO serves buckets by path, not subdomain
	})

	return &Storage{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// Upload puts the staged file into the bucket and returns its public URL.
// The staged file is removed afterwards whether or not the upload succeeded.
func (s *Storage) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDependency, "staged file unreadable", err)
	}
	defer f.Close()

	key := storageKey(localPath)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if contentType := mime.TypeByExtension(filepath.Ext(localPath)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", apperr.Wrap(apperr.KindDependency, "media upload failed", err)
	}

	return s.publicURL + "/" + key, nil
}

// storageKey builds a date-partitioned object key that keeps the original
// file extension but never its name.
func storageKey(localPath string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), filepath.Ext(localPath))
}
