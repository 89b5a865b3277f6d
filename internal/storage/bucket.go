package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/brightpath/learning-core/internal/logger"
)

// BucketConfig selects the object-storage bucket all records live in.
// Keys map one-to-one onto object names, so prefix listing rides directly
// on the bucket's native prefix queries.
type BucketConfig struct {
	BucketName string
	// Endpoint overrides the API endpoint, for emulators.
	Endpoint string
}

// BucketBackend persists records as JSON blobs in a GCS bucket.
type BucketBackend struct {
	client *gcs.Client
	bucket string
	log    *logger.Logger
}

func NewBucketBackend(ctx context.Context, baseLog *logger.Logger, cfg BucketConfig) (*BucketBackend, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket backend requires a bucket name")
	}
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &BucketBackend{
		client: client,
		bucket: cfg.BucketName,
		log:    baseLog.With("backend", "bucket", "bucket_name", cfg.BucketName),
	}, nil
}

func (b *BucketBackend) Name() string { return "bucket" }

func (b *BucketBackend) Close() error { return b.client.Close() }

func (b *BucketBackend) Save(ctx context.Context, key string, value []byte, _ Options) error {
	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return wrapErr("bucket.save", err)
	}
	if err := w.Close(); err != nil {
		return wrapErr("bucket.save", err)
	}
	return nil
}

func (b *BucketBackend) Load(ctx context.Context, key string, _ Options) ([]byte, bool, error) {
	rd, err := b.client.Bucket(b.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr("bucket.load", err)
	}
	defer rd.Close()
	value, err := io.ReadAll(rd)
	if err != nil {
		return nil, false, wrapErr("bucket.load", err)
	}
	return value, true, nil
}

func (b *BucketBackend) Delete(ctx context.Context, key string, _ Options) error {
	err := b.client.Bucket(b.bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return wrapErr("bucket.delete", err)
}

// List reads every object under the prefix. GCS lists lexicographically by
// object name, which matches the memory backend's documented order.
func (b *BucketBackend) List(ctx context.Context, prefix string, _ Options) ([][]byte, error) {
	it := b.client.Bucket(b.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	var out [][]byte
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapErr("bucket.list", err)
		}
		value, ok, err := b.Load(ctx, attrs.Name, Options{})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, value)
		}
	}
	return out, nil
}
