package gcsuploader

import (
	"context"

	"github.com/dvloznov/receipt-ledger/internal/domain"
)

// ReceiptStorage provides an interface for receipt archive operations.
// This interface enables mocking and testing of storage functionality.
type ReceiptStorage interface {
	// UploadReceipt uploads a local file and returns its gs:// URI.
	UploadReceipt(ctx context.Context, bucketName, objectName, filePath string) (string, error)

	// FetchReceipt downloads a receipt image from the given gs:// URI.
	FetchReceipt(ctx context.Context, gcsURI string) (domain.ReceiptUpload, error)

	Close() error
}

var _ ReceiptStorage = (*GCSReceiptStorage)(nil)
