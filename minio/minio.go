package minio

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/parlorchat/parlor/types"
)

type Minio struct {
	baseCtx        context.Context
	cleanupTimeout time.Duration
	client         *minio.Client
	errChan        chan error
}

func New(ctx context.Context, client *minio.Client, cleanupTimeout time.Duration) *Minio {
	return &Minio{
		baseCtx:        ctx,
		cleanupTimeout: cleanupTimeout,
		client:         client,
		errChan:        make(chan error, 1),
	}
}

func (m *Minio) Errs() <-chan error {
	return m.errChan
}

// Upload stores the attachment and returns a cleanup func that removes the
// object again, for rolling back when the enclosing operation fails.
func (m *Minio) Upload(ctx context.Context, bucket string, file types.Attachment) (func(), error) {
	info, err := m.client.PutObject(ctx, bucket, file.Path, file.Reader(), int64(file.FileSize), minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(m.baseCtx, m.cleanupTimeout)
		defer cancel()

		if err := m.client.RemoveObject(ctx, bucket, file.Path, minio.RemoveObjectOptions{
			VersionID: info.VersionID,
		}); err != nil {
			m.errChan <- fmt.Errorf("remove object %s: %w", file.Path, err)
		}
	}, nil
}

// CreateReadOnlyBucket creates a bucket and sets up read-only public access policy
func (m *Minio) CreateReadOnlyBucket(ctx context.Context, bucketName string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("check bucket exists: %w", err)
	}

	if !exists {
		err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}

	readOnlyPolicy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": "*",
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, bucketName)

	err = m.client.SetBucketPolicy(ctx, bucketName, readOnlyPolicy)
	if err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}

	return nil
}
