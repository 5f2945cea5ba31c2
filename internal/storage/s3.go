package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/relayline-ai/relayline/internal/index"
)

const (
	vectorsKey = "index_vectors.bin"
	idsKey     = "index_ids.json"
)

// Config holds S3 connection settings. Endpoint is optional and supports
// S3-compatible stores like MinIO.
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	KeyPrefix       string
}

// S3SnapshotStore persists index snapshots as a pair of S3 objects, so every
// replica behind a load balancer restores the same index.
type S3SnapshotStore struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3SnapshotStore(ctx context.Context, cfg Config) (*S3SnapshotStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3SnapshotStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.KeyPrefix,
	}, nil
}

func (s *S3SnapshotStore) Load(ctx context.Context) (*index.Snapshot, error) {
	vectors, err := s.getObject(ctx, vectorsKey)
	if err != nil {
		return nil, err
	}
	ids, err := s.getObject(ctx, idsKey)
	if err != nil {
		return nil, err
	}
	return index.DecodeSnapshot(vectors, ids)
}

func (s *S3SnapshotStore) Save(ctx context.Context, snap *index.Snapshot) error {
	vectors, ids, err := index.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.putObject(ctx, vectorsKey, vectors); err != nil {
		return err
	}
	return s.putObject(ctx, idsKey, ids)
}

func (s *S3SnapshotStore) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, index.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get s3 object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object %s: %w", key, err)
	}
	return data, nil
}

func (s *S3SnapshotStore) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %s: %w", key, err)
	}
	return nil
}

func (s *S3SnapshotStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
