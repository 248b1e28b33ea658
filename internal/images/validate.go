package images

import (
	"encoding/base64"
	"strings"

	"github.com/lehigh-university-libraries/storeadmin/internal/models"
)

// MaxFileSize is the largest accepted upload (10MB)
const MaxFileSize = 10 * 1024 * 1024

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Validate checks the declared type and size of f. It never reads the file.
func Validate(f File) error {
	mimeType := strings.ToLower(strings.TrimSpace(f.Type))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !allowedTypes[mimeType] {
		return models.Invalid(f.Name, "invalid format, use JPG, PNG or WEBP")
	}
	if f.Size > MaxFileSize {
		return models.Invalid(f.Name, "image too large, maximum is 10MB")
	}
	return nil
}

// ToPreview encodes f as a base64 data URL suitable for display
func ToPreview(f File) (string, error) {
	data, err := f.ReadAll()
	if err != nil {
		return "", err
	}
	return "data:" + f.Type + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
