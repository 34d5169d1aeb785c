// mock_storage.go - Mock template store implementation for testing
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/storage"
)

// MockStorage implements storage.Store for testing. Unlike LocalStore it
// accepts any byte content, so tests can exercise paths a real image
// upload would reject.
type MockStorage struct {
	mu        sync.RWMutex
	templates map[string]*models.TemplateInfo
	data      map[string][]byte
	tempDir   string // when set, GetImagePath serves real files
}

// NewMockStorage creates a new in-memory mock store
func NewMockStorage() *MockStorage {
	return &MockStorage{
		templates: make(map[string]*models.TemplateInfo),
		data:      make(map[string][]byte),
	}
}

// NewMockStorageWithTempDir creates a mock store that also writes template
// bytes to disk, for tests that read the image back through a file path.
func NewMockStorageWithTempDir(tempDir string) *MockStorage {
	s := NewMockStorage()
	s.tempDir = tempDir
	return s
}

func (m *MockStorage) SaveBytes(name string, data []byte) (*models.TemplateInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := generateTestID()
	info := &models.TemplateInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}

	if m.tempDir != "" {
		if err := os.WriteFile(filepath.Join(m.tempDir, id), data, 0644); err != nil {
			return nil, err
		}
	}

	m.templates[id] = info
	m.data[id] = data
	return info, nil
}

func (m *MockStorage) Get(id string) (*models.TemplateInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.templates[id]
	if !ok {
		return nil, errors.New("template not found")
	}
	return info, nil
}

func (m *MockStorage) List(limit int) ([]*models.TemplateInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]*models.TemplateInfo, 0, len(m.templates))
	for _, info := range m.templates {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UploadedAt.After(infos[j].UploadedAt)
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.templates[id]; !exists {
		return errors.New("template not found")
	}
	if m.tempDir != "" {
		os.Remove(filepath.Join(m.tempDir, id))
	}
	delete(m.templates, id)
	delete(m.data, id)
	return nil
}

func (m *MockStorage) GetImagePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.templates[id]; !ok {
		return "", errors.New("template not found")
	}
	if m.tempDir != "" {
		return filepath.Join(m.tempDir, id), nil
	}
	return "/mock/path/" + id, nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddTemplate adds a template with a fixed id directly to the mock
func (m *MockStorage) AddTemplate(id string, name string, data []byte) *models.TemplateInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &models.TemplateInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}
	if m.tempDir != "" {
		if err := os.WriteFile(filepath.Join(m.tempDir, id), data, 0644); err != nil {
			panic(fmt.Sprintf("failed to write test template: %v", err))
		}
	}
	m.templates[id] = info
	m.data[id] = data
	return info
}

// GetTemplateData returns the raw stored bytes
func (m *MockStorage) GetTemplateData(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, errors.New("template not found")
	}
	return data, nil
}

// TemplateCount returns the number of stored templates
func (m *MockStorage) TemplateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates)
}

// Clear removes all templates
func (m *MockStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = make(map[string]*models.TemplateInfo)
	m.data = make(map[string][]byte)
}

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
