package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSArchiver copies finalized tracks into a Google Cloud Storage bucket.
type GCSArchiver struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
}

func NewGCSArchiver(ctx context.Context, bucketName, objectPrefix, credentialsFile string) (*GCSArchiver, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("gcs archive requires a bucket name")
	}

	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		// Use application default credentials
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSArchiver{
		client:       client,
		bucket:       bucketName,
		objectPrefix: objectPrefix,
	}, nil
}

func (a *GCSArchiver) Archive(ctx context.Context, localPath string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open track: %w", err)
	}
	defer src.Close()

	objectName := path.Join(a.objectPrefix, filepath.Base(localPath))

	writer := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(writer, src); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload track: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

// Close releases the underlying GCS client.
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
