package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/google/uuid"
)

// Store defines the interface for template image storage.
type Store interface {
	SaveBytes(name string, data []byte) (*models.TemplateInfo, error)
	Get(id string) (*models.TemplateInfo, error)
	List(limit int) ([]*models.TemplateInfo, error)
	Delete(id string) error
	GetImagePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu          sync.RWMutex
	templateDir string
	templates   map[string]*models.TemplateInfo
}

// NewLocalStore creates a new LocalStore. Template files already in
// templateDir are indexed so uploads survive a server restart.
func NewLocalStore(templateDir string) (*LocalStore, error) {
	if err := os.MkdirAll(templateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating template directory: %w", err)
	}

	s := &LocalStore{
		templateDir: templateDir,
		templates:   make(map[string]*models.TemplateInfo),
	}
	if err := s.rescan(); err != nil {
		return nil, err
	}
	return s, nil
}

// rescan rebuilds the in-memory index from the files on disk. Uploads
// are stored under their UUID, so the filename is the template ID; the
// original upload name is not kept on disk and comes back as the ID.
func (s *LocalStore) rescan() error {
	entries, err := os.ReadDir(s.templateDir)
	if err != nil {
		return fmt.Errorf("scanning template directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := entry.Name()
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		s.templates[id] = &models.TemplateInfo{
			ID:         id,
			Name:       id,
			Size:       fi.Size(),
			UploadedAt: fi.ModTime(),
			Status:     "uploaded",
		}
	}
	return nil
}

// SaveBytes validates and stores one template image.
func (s *LocalStore) SaveBytes(name string, data []byte) (*models.TemplateInfo, error) {
	// Reject anything the renderer could not decode later.
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("not a decodable image: %w", err)
	}

	id := uuid.New().String()
	path := filepath.Join(s.templateDir, id)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing template file: %w", err)
	}

	info := &models.TemplateInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[id] = info

	return info, nil
}

// Get retrieves template metadata by ID.
func (s *LocalStore) Get(id string) (*models.TemplateInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", id)
	}

	return info, nil
}

// List returns the most recently uploaded templates.
func (s *LocalStore) List(limit int) ([]*models.TemplateInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*models.TemplateInfo
	for _, info := range s.templates {
		list = append(list, info)
	}

	// Sort by UploadedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a template from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("template not found: %s", id)
	}

	path := filepath.Join(s.templateDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting template file: %w", err)
	}

	delete(s.templates, id)
	return nil
}

// GetImagePath returns the absolute path to a template image. The path
// doubles as the template URL handed to the render loader.
func (s *LocalStore) GetImagePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.templates[id]; !ok {
		return "", fmt.Errorf("template not found: %s", id)
	}

	return filepath.Join(s.templateDir, id), nil
}
