// Package objectstore provides the raw-payload store on any S3-compatible
// endpoint (MinIO in local development).
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/etrm-io/backoffice/pkg/config"
	"github.com/etrm-io/backoffice/pkg/logger"
)

// Client implements contracts.ObjectStore against a single bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	log    *logger.Logger
}

// New creates an object store client from config.
func New(cfg config.S3Config, log *logger.Logger) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket, log: log}, nil
}

// EnsureBucket creates the bucket if it does not exist. Failure is logged but
// not fatal: the bucket may already be provisioned with credentials that
// cannot create buckets.
func (c *Client) EnsureBucket(ctx context.Context) {
	err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, existsErr := c.mc.BucketExists(ctx, c.bucket)
		if existsErr == nil && exists {
			c.log.Debugf("bucket %s already exists", c.bucket)
			return
		}
		c.log.WithError(err).Warnf("could not create bucket %s", c.bucket)
		return
	}
	c.log.Infof("created bucket %s", c.bucket)
}

// BucketExists reports whether the configured bucket is reachable.
func (c *Client) BucketExists(ctx context.Context) (bool, error) {
	return c.mc.BucketExists(ctx, c.bucket)
}

// Put stores data under key.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	c.log.Debugf("uploaded object %s to bucket %s", key, c.bucket)
	return nil
}

// Get retrieves the payload stored under key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}

	return data, nil
}

// Exists reports whether an object is stored under key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", key, err)
	}
	return true, nil
}
