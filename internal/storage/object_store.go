package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"clinic_backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrStorageDisabled is returned when no bucket is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// S3API is the subset of the S3 client used by ObjectStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ObjectStore uploads exam documents and procedure images.
type ObjectStore struct {
	client  S3API
	bucket  string
	baseURL string
}

// NewObjectStore builds a store. publicBaseURL, when set, prefixes returned URLs.
func NewObjectStore(client S3API, bucket, publicBaseURL string) *ObjectStore {
	return &ObjectStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewS3Client loads AWS configuration for the given settings. Static
// credentials and a custom endpoint are only applied when provided.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if strings.TrimSpace(cfg.AccessKeyID) != "" && strings.TrimSpace(cfg.SecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *ObjectStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.client != nil
}

// Put uploads body under key and returns its public URL.
func (s *ObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageDisabled
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrStorageDisabled
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public address of key.
func (s *ObjectStore) URL(key string) string {
	escaped := escapeKey(key)
	if s.baseURL != "" {
		return s.baseURL + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, escaped)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
