package domain

import "image"

// ReceiptUpload is a raw image blob as received from a caller.
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReceiptImage is a decoded receipt photo. It is never persisted.
type ReceiptImage struct {
	Filename string
	MIMEType string
	Data     []byte
	Image    image.Image
}
