package uploader

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryUploader keeps uploaded files in memory and serves them under
// baseURL. It stands in for the media service in development.
type MemoryUploader struct {
	mu      sync.RWMutex
	files   map[string]File
	baseURL string
}

// NewMemoryUploader creates an empty in-memory uploader.
func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{
		files:   make(map[string]File),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (u *MemoryUploader) Upload(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	url := u.baseURL + "/media/variants/" + uuid.NewString() + f.Extension

	u.mu.Lock()
	defer u.mu.Unlock()
	u.files[url] = f

	return url, nil
}

// Get returns the file stored under url.
func (u *MemoryUploader) Get(url string) (File, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	f, ok := u.files[url]
	return f, ok
}
