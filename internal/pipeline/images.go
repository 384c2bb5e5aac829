package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// MaxImagePixels caps width*height of an upload before its pixels are decoded.
const MaxImagePixels = 50_000_000

var formatMIMETypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ValidateUserID checks that the caller supplied a well formed user id.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.InvalidInputf("ValidateUserID", "user_id is required")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return domain.InvalidInputf("ValidateUserID", "user_id %q is not a valid UUID", userID)
	}
	return nil
}

// DecodeImages decodes every upload in order. The first blob that is not a
// decodable raster image fails the whole set.
func DecodeImages(uploads []domain.ReceiptUpload) ([]domain.ReceiptImage, error) {
	if len(uploads) == 0 {
		return nil, domain.InvalidInputf("DecodeImages", "at least one receipt image is required")
	}

	images := make([]domain.ReceiptImage, 0, len(uploads))
	for i, up := range uploads {
		name := up.Filename
		if name == "" {
			name = fmt.Sprintf("image #%d", i+1)
		}

		if len(up.Data) == 0 {
			return nil, domain.InvalidInputf("DecodeImages", "image %q is empty", name)
		}

		cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
		if err != nil {
			return nil, domain.InvalidInputf("DecodeImages", "image %q could not be decoded: %v", name, err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
			return nil, domain.InvalidInputf("DecodeImages", "image %q is %dx%d, over the %d pixel limit", name, cfg.Width, cfg.Height, MaxImagePixels)
		}

		img, format, err := image.Decode(bytes.NewReader(up.Data))
		if err != nil {
			return nil, domain.InvalidInputf("DecodeImages", "image %q could not be decoded: %v", name, err)
		}

		images = append(images, domain.ReceiptImage{
			Filename: name,
			MIMEType: resolveMIMEType(up.ContentType, format),
			Data:     up.Data,
			Image:    img,
		})
	}

	return images, nil
}

// resolveMIMEType prefers the declared type when it names an image.
func resolveMIMEType(declared, format string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(declared, ";"); i != -1 {
		declared = strings.TrimSpace(declared[:i])
	}
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if mt, ok := formatMIMETypes[format]; ok {
		return mt
	}
	return "image/" + format
}
