package editor

import (
	"fmt"
	"sync"
	"time"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/render"
	"github.com/google/uuid"
)

// MaxSessions limits concurrent edit sessions to keep preview memory bounded.
const MaxSessions = 20

// SessionKeepAliveWindow is how long a session survives after its last use.
const SessionKeepAliveWindow = 5 * time.Minute

// SaveFunc receives the field list on an explicit save. Persistence is the
// caller's concern (the settings collaborator); the editor never autosaves.
type SaveFunc func(fields []models.Field)

// Manager owns the active edit sessions.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	fonts       *render.FontProvider
	fallbackURL string
	onSave      SaveFunc
}

// NewManager creates an edit session manager. fallbackURL is the default
// template substituted when a session's primary template fails to load.
func NewManager(fonts *render.FontProvider, fallbackURL string, onSave SaveFunc) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		fonts:       fonts,
		fallbackURL: fallbackURL,
		onSave:      onSave,
	}
}

// OpenSession creates a session seeded from the given settings and starts
// loading its template image.
func (m *Manager) OpenSession(settings *models.CouponSettings) (*Session, error) {
	m.cleanupIfAtCapacity()

	id := uuid.New().String()
	loader := render.NewTemplateLoader(m.fallbackURL)
	s := newSession(id, settings, loader, m.fonts, m.onSave)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	url := settings.TemplateURL
	if url == "" {
		url = m.fallbackURL
	}
	if url != "" {
		loader.Request(url)
	}

	fmt.Printf("[Editor %s] session opened (%d fields)\n", id[:8], len(s.Fields()))
	return s, nil
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// TouchSession refreshes a session's keep-alive timestamp.
func (m *Manager) TouchSession(id string) bool {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	s.lastAccessed = time.Now()
	s.mu.Unlock()
	return true
}

// CloseSession discards a session and its unsaved edits.
func (m *Manager) CloseSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// CleanupOldSessions drops sessions idle longer than maxAge.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, s := range m.sessions {
		s.mu.Lock()
		last := s.lastAccessed
		s.mu.Unlock()
		if last.Before(cutoff) {
			delete(m.sessions, id)
			fmt.Printf("[Editor %s] cleaned up idle session (last used %s ago)\n",
				id[:8], time.Since(last).Round(time.Second))
		}
	}
}

// cleanupIfAtCapacity evicts the least recently used session when the
// session map is full.
func (m *Manager) cleanupIfAtCapacity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	var oldestID string
	var oldest time.Time
	for id, s := range m.sessions {
		s.mu.Lock()
		last := s.lastAccessed
		s.mu.Unlock()
		if oldestID == "" || last.Before(oldest) {
			oldestID, oldest = id, last
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		fmt.Printf("[Editor %s] evicted session to stay under capacity\n", oldestID[:8])
	}
}
