// Package storage sets up the S3-compatible object store (Tigris, MinIO,
// AWS) shared by the lead archive and the IP blocklist.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jmylchreest/leadchat-api/internal/config"
)

// Service wraps the S3 client.
type Service struct {
	client  *s3.Client
	bucket  string
	enabled bool
	logger  *slog.Logger
}

// New creates the storage service. A config without bucket and endpoint
// yields a disabled service with a nil client.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.StorageEnabled {
		logger.Info("object storage disabled - no bucket configured")
		return &Service{logger: logger}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.StorageRegion),
	}
	// Static keys when given, otherwise the default chain (IAM role, profile).
	if cfg.StorageAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		o.UsePathStyle = true // Required for some S3-compatible services
	})

	logger.Info("object storage initialized",
		"bucket", cfg.StorageBucket,
		"endpoint", cfg.StorageEndpoint,
	)

	return &Service{
		client:  client,
		bucket:  cfg.StorageBucket,
		enabled: true,
		logger:  logger,
	}, nil
}

// IsEnabled returns whether storage is configured.
func (s *Service) IsEnabled() bool {
	return s != nil && s.enabled
}

// Client returns the underlying S3 client (nil when disabled).
func (s *Service) Client() *s3.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Bucket returns the configured bucket name.
func (s *Service) Bucket() string {
	if s == nil {
		return ""
	}
	return s.bucket
}

// Ping checks that the bucket is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if !s.IsEnabled() {
		return nil
	}
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}
