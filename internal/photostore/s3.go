// Package photostore reads photo blobs from an S3-compatible object store
// (MinIO in the compose setup). Keys are opaque; the data store owns the
// mapping from users to keys.
package photostore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Zalthoryn/DatingBot/internal/config"
)

type Store struct {
	client *s3.Client
	bucket string
}

// New builds an S3 client against the configured endpoint. Static credentials
// are used when provided (MinIO); otherwise the default AWS chain applies.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3.Region))
	if cfg.S3.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			// MinIO serves buckets on the path, not a subdomain
			o.UsePathStyle = true
		}
	})

	return &Store{client: client, bucket: cfg.S3.Bucket}, nil
}

// Fetch downloads one photo blob by key.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	blob, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return blob, nil
}
