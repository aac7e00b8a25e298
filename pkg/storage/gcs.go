package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	bucket *gcs.BucketHandle
}

// NewGCS opens a client with ambient credentials and binds it to bucket.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCS{bucket: client.Bucket(bucket)}, nil
}

func (g *GCS) Save(ctx context.Context, path string, data []byte) error {
	w := g.bucket.Object(path).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return &UploadError{Path: path, Err: err}
	}
	if err := w.Close(); err != nil {
		return &UploadError{Path: path, Err: err}
	}
	return nil
}

func (g *GCS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return g.bucket.Object(path).NewReader(ctx)
}

func (g *GCS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.bucket.Object(path).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, err
}

func (g *GCS) Delete(ctx context.Context, path string) error {
	err := g.bucket.Object(path).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}
