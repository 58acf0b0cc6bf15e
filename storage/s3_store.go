package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store keeps checkpoints in an S3 bucket
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates a checkpoint store backed by the given bucket
func NewS3Store(ctx context.Context, bucket, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Save uploads the blob and returns its s3:// location
func (s *S3Store) Save(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload checkpoint: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Load downloads a blob previously saved by this store
func (s *S3Store) Load(ctx context.Context, location string) ([]byte, error) {
	trimmed := strings.TrimPrefix(location, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid s3 location %q", location)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &parts[0],
		Key:    &parts[1],
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download checkpoint: %w", err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
