package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// GCSReceiptStorage stores receipt images in Google Cloud Storage.
// It assumes Application Default Credentials are configured (gcloud auth application-default login).
type GCSReceiptStorage struct {
	client *storage.Client
}

// NewGCSReceiptStorage creates a storage client shared by all calls.
func NewGCSReceiptStorage(ctx context.Context) (*GCSReceiptStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSReceiptStorage: create storage client: %w", err)
	}
	return &GCSReceiptStorage{client: client}, nil
}

// Close releases the storage client.
func (s *GCSReceiptStorage) Close() error {
	return s.client.Close()
}

// UploadReceipt uploads a local file to a GCS bucket under the given object name.
func (s *GCSReceiptStorage) UploadReceipt(ctx context.Context, bucketName, objectName, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("UploadReceipt: open file %q: %w", filePath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = ContentTypeFor(filePath)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadReceipt: copy file to GCS writer: %w", err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadReceipt: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", bucketName, objectName), nil
}

// FetchReceipt downloads the object at gcsURI. The content type comes from
// the object metadata, falling back to the file extension.
func (s *GCSReceiptStorage) FetchReceipt(ctx context.Context, gcsURI string) (domain.ReceiptUpload, error) {
	bucketName, objectPath, err := ParseURI(gcsURI)
	if err != nil {
		return domain.ReceiptUpload{}, err
	}

	rc, err := s.client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return domain.ReceiptUpload{}, fmt.Errorf("FetchReceipt: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.ReceiptUpload{}, fmt.Errorf("FetchReceipt: reading bytes: %w", err)
	}

	contentType := rc.Attrs.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(objectPath)
	}

	return domain.ReceiptUpload{
		Filename:    FilenameFromURI(gcsURI),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ParseURI splits gs://bucket/path/to/file into bucket and object path.
func ParseURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// FilenameFromURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/receipt.jpg" → "receipt.jpg"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// ObjectName builds a unique object path for a user's receipt:
// receipts/<user>/<yyyy>/<mm>/<dd>/<uuid>-<file>.
func ObjectName(userID, filePath string, now time.Time) string {
	return fmt.Sprintf("receipts/%s/%s/%s-%s", userID, now.Format("2006/01/02"), uuid.NewString(), filepath.Base(filePath))
}

// ContentTypeFor guesses a MIME type from the file extension.
func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
