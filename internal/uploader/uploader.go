package uploader

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

// MaxFileSize is the largest image accepted for upload.
const MaxFileSize = 10 << 20

var allowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/avif",
}

// File is one image to upload. ContentType is filled in by Validate from the
// file's content, not from what the client declared.
type File struct {
	Name        string
	ContentType string
	Extension   string
	Data        []byte
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// Validate sniffs the content type of f and enforces the size limit and the
// image allowlist.
func Validate(f *File) error {
	if len(f.Data) == 0 {
		return apperrors.InvalidInput(fmt.Sprintf("file %q is empty", f.Name))
	}
	if len(f.Data) > MaxFileSize {
		return apperrors.InvalidInput(fmt.Sprintf("file %q exceeds maximum size of %d bytes", f.Name, MaxFileSize))
	}

	mtype := mimetype.Detect(f.Data)
	for _, allowed := range allowedContentTypes {
		if mtype.Is(allowed) {
			f.ContentType = allowed
			f.Extension = mtype.Extension()
			return nil
		}
	}

	return apperrors.InvalidInput(fmt.Sprintf("file %q has unsupported content type %q", f.Name, mtype.String()))
}
