// manager_test.go - Tests for the edit session manager
package editor

import (
	"testing"
	"time"

	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/render"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	fonts, err := render.NewFontProvider()
	if err != nil {
		t.Fatalf("NewFontProvider: %v", err)
	}
	return NewManager(fonts, "", nil)
}

func TestManager_OpenAndGet(t *testing.T) {
	m := newTestManager(t)

	s, err := m.OpenSession(&models.CouponSettings{})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected session id")
	}

	got, ok := m.GetSession(s.ID)
	if !ok || got != s {
		t.Error("GetSession did not return the opened session")
	}

	if _, ok := m.GetSession("nonexistent"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestManager_DefaultFieldsWhenUnpersisted(t *testing.T) {
	m := newTestManager(t)

	s, err := m.OpenSession(&models.CouponSettings{})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	// No persisted layout: built-in five-field defaults apply.
	if got := len(s.Fields()); got != 5 {
		t.Errorf("expected 5 default fields, got %d", got)
	}
}

func TestManager_TouchAndCleanup(t *testing.T) {
	m := newTestManager(t)

	s, _ := m.OpenSession(&models.CouponSettings{})

	if !m.TouchSession(s.ID) {
		t.Error("TouchSession failed for live session")
	}
	if m.TouchSession("nonexistent") {
		t.Error("TouchSession succeeded for unknown id")
	}

	// Nothing is old enough to clean yet.
	m.CleanupOldSessions(time.Hour)
	if _, ok := m.GetSession(s.ID); !ok {
		t.Fatal("fresh session was cleaned up")
	}

	// Force the session to look idle.
	s.mu.Lock()
	s.lastAccessed = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	m.CleanupOldSessions(time.Hour)
	if _, ok := m.GetSession(s.ID); ok {
		t.Error("idle session survived cleanup")
	}
}

func TestManager_CloseDiscardsSession(t *testing.T) {
	m := newTestManager(t)

	s, _ := m.OpenSession(&models.CouponSettings{})
	m.CloseSession(s.ID)

	if _, ok := m.GetSession(s.ID); ok {
		t.Error("closed session still retrievable")
	}
}
