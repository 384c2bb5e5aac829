package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/gcsuploader"
)

// fileList is a repeatable flag that also splits comma-separated values.
type fileList []string

func (f *fileList) String() string {
	return strings.Join(*f, ",")
}

func (f *fileList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*f = append(*f, part)
		}
	}
	return nil
}

// readLocalUploads loads each path in order as a receipt upload.
func readLocalUploads(paths []string) ([]domain.ReceiptUpload, error) {
	uploads := make([]domain.ReceiptUpload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("readLocalUploads: %w", err)
		}
		name := filepath.Base(p)
		uploads = append(uploads, domain.ReceiptUpload{
			Filename:    name,
			ContentType: gcsuploader.ContentTypeFor(name),
			Data:        data,
		})
	}
	return uploads, nil
}
