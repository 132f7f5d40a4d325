package services

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"sync"
)

// MockPhotoStorage is the mock-mode photo store: photos are acknowledged
// but never persisted, and the returned URL is a deterministic static
// asset path.
type MockPhotoStorage struct {
	mu       sync.Mutex
	uploaded map[string][]string // order id -> uploaded photo URLs
}

// NewMockPhotoStorage creates a new mock photo storage
func NewMockPhotoStorage() *MockPhotoStorage {
	return &MockPhotoStorage{
		uploaded: make(map[string][]string),
	}
}

// UploadPhoto records the upload and returns a static asset path
func (m *MockPhotoStorage) UploadPhoto(orderID string, fileHeader *multipart.FileHeader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url := fmt.Sprintf("/assets/photos/%s/%d_%s", orderID, len(m.uploaded[orderID])+1, filepath.Base(fileHeader.Filename))
	m.uploaded[orderID] = append(m.uploaded[orderID], url)
	return url, nil
}

// UploadedPhotos returns the URLs recorded for an order (for test assertions)
func (m *MockPhotoStorage) UploadedPhotos(orderID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.uploaded[orderID]...)
}
