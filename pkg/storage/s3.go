package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store is an object-store-backed Store, matching spec.md §6's
// `jacs_default_storage: "aws"` option.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3StoreConfig configures an S3Store, including custom endpoints for
// S3-compatible services (MinIO, LocalStack).
type S3StoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// NewS3Store loads the default AWS config and returns a store targeting
// the configured bucket.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	clientOpts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, clientOpts),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3Store) key(agentID, version string) string {
	return s.prefix + agentID + ":" + version + ".json"
}

func (s *S3Store) Put(ctx context.Context, agentID, version string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(agentID, version)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 put failed: %w", err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, agentID, version string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(agentID, version)),
	})
	if err != nil {
		return nil, notFound(agentID, version)
	}
	defer func() { _ = result.Body.Close() }()
	return io.ReadAll(result.Body)
}

func (s *S3Store) List(ctx context.Context, agentID string) ([]VersionRef, error) {
	prefix := s.prefix
	if agentID != "" {
		prefix += agentID + ":"
	}

	var out []VersionRef
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: s3 list failed: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			name = strings.TrimSuffix(name, ".json")
			idx := strings.LastIndex(name, ":")
			if idx < 0 {
				continue
			}
			out = append(out, VersionRef{AgentID: name[:idx], Version: name[idx+1:]})
		}
	}
	return out, nil
}

func (s *S3Store) Delete(ctx context.Context, agentID, version string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(agentID, version)),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete failed: %w", err)
	}
	return nil
}
