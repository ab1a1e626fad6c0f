package uploads

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the hard cap on accepted payload size.
const MaxUploadBytes = 100 << 20

var allowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"doc":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
	"tiff": {},
	"tif":  {},
	"heif": {},
	"heic": {},
}

func validate(fileName string, sizeBytes int64) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrValidation)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: file type %q is not supported", ErrValidation, ext)
	}
	if sizeBytes <= 0 {
		return fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if sizeBytes > MaxUploadBytes {
		return fmt.Errorf("%w: file exceeds the 100 MB limit", ErrValidation)
	}
	return nil
}
