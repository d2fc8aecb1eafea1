package storage

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GCSArchiver stores generated reports in a Cloud Storage bucket
type GCSArchiver struct {
	client *storage.Client
	bucket string
}

// NewGCSArchiver connects to Cloud Storage using application default credentials
func NewGCSArchiver(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("report bucket is empty")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log.Printf("✅ Report archive bucket: %s", bucket)
	return &GCSArchiver{client: client, bucket: bucket}, nil
}

// Archive uploads data under name and returns its gs:// location
func (a *GCSArchiver) Archive(ctx context.Context, name string, data []byte) (string, error) {
	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = xlsxContentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return Location(a.bucket, name), nil
}

// Close releases the storage client
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

// Location formats a gs:// URL
func Location(bucket, name string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, name)
}
