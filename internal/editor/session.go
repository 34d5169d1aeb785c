// Package editor implements the interactive layout editor: per-session
// gesture state, numeric field edits, zoom, and preview redraws against a
// live template image.
package editor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/coupon-studio/backend/internal/geom"
	"github.com/coupon-studio/backend/internal/layout"
	"github.com/coupon-studio/backend/internal/models"
	"github.com/coupon-studio/backend/internal/render"
)

// Gesture is the editor's pointer state.
type Gesture int

const (
	GestureIdle Gesture = iota
	GestureDragging
	GestureResizing
)

// ResizeHandleSize is the side length of the resize handle square, in
// template-space pixels, anchored at the selected field's bottom-right
// corner.
const ResizeHandleSize = 8.0

// Session is one operator's editing session over a layout. All pointer
// coordinates arriving from the frontend are in view space; the session
// converts them to template space before hit-testing or applying deltas.
type Session struct {
	ID string

	mu           sync.Mutex
	fields       []models.Field
	qrEnabled    bool
	amountShown  bool
	selectedID   string
	gesture      Gesture
	anchor       geom.Point
	zoom         float64
	editMode     bool
	loader       *render.TemplateLoader
	fonts        *render.FontProvider
	lastAccessed time.Time
	onSave       func(fields []models.Field)
}

// FieldEdit is a partial numeric-panel update for the selected field. Nil
// members are left untouched.
type FieldEdit struct {
	X          *float64           `json:"x,omitempty"`
	Y          *float64           `json:"y,omitempty"`
	Width      *float64           `json:"width,omitempty"`
	Height     *float64           `json:"height,omitempty"`
	FontSize   *float64           `json:"fontSize,omitempty"`
	Color      *string            `json:"color,omitempty"`
	FontWeight *models.FontWeight `json:"fontWeight,omitempty"`
}

// State is a snapshot of the session for the frontend.
type State struct {
	ID         string         `json:"id"`
	Fields     []models.Field `json:"fields"`
	SelectedID string         `json:"selectedId,omitempty"`
	Zoom       float64        `json:"zoom"`
	EditMode   bool           `json:"editMode"`
	Dragging   bool           `json:"dragging"`
	Resizing   bool           `json:"resizing"`
}

func newSession(id string, settings *models.CouponSettings, loader *render.TemplateLoader, fonts *render.FontProvider, onSave func([]models.Field)) *Session {
	return &Session{
		ID:           id,
		fields:       layout.EffectiveFields(settings),
		qrEnabled:    settings.QREnabled,
		amountShown:  settings.AmountShown(),
		zoom:         geom.DefaultZoom,
		editMode:     true,
		loader:       loader,
		fonts:        fonts,
		lastAccessed: time.Now(),
		onSave:       onSave,
	}
}

// PointerDown starts a gesture. Hit-testing walks the field list in order
// and the first match wins, so earlier fields occlude later ones. A press
// on empty area keeps the current selection. No-op when edit mode is off.
func (s *Session) PointerDown(viewX, viewY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editMode || !finite(viewX) || !finite(viewY) {
		return
	}

	p := geom.ToTemplate(geom.Point{X: viewX, Y: viewY}, s.zoom)

	// The selected field's resize handle has priority over body hits.
	if sel := layout.FindByID(s.fields, s.selectedID); sel != nil && inResizeHandle(sel, p) {
		s.gesture = GestureResizing
		return
	}

	for i := range s.fields {
		f := &s.fields[i]
		if f.Contains(p.X, p.Y) {
			s.selectedID = f.ID
			s.anchor = geom.Point{X: p.X - f.X, Y: p.Y - f.Y}
			s.gesture = GestureDragging
			return
		}
	}
}

// PointerMove applies the active gesture's delta in template space.
func (s *Session) PointerMove(viewX, viewY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editMode || s.gesture == GestureIdle || !finite(viewX) || !finite(viewY) {
		return
	}

	f := layout.FindByID(s.fields, s.selectedID)
	if f == nil {
		s.gesture = GestureIdle
		return
	}

	p := geom.ToTemplate(geom.Point{X: viewX, Y: viewY}, s.zoom)

	switch s.gesture {
	case GestureDragging:
		f.X = p.X - s.anchor.X
		f.Y = p.Y - s.anchor.Y
		f.ClampPosition()
	case GestureResizing:
		f.Width = p.X - f.X
		f.Height = p.Y - f.Y
		f.ClampSize()
	}
}

// PointerUp ends the active gesture. Selection persists.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gesture = GestureIdle
}

// PointerLeave behaves like PointerUp: leaving the preview area drops the
// gesture but keeps the selection.
func (s *Session) PointerLeave() {
	s.PointerUp()
}

// SetZoom snaps the zoom into the editor's stepped range.
func (s *Session) SetZoom(zoom float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = geom.ClampZoom(zoom)
	return s.zoom
}

// SetEditMode toggles edit mode. Turning it off drops any active gesture.
func (s *Session) SetEditMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = on
	if !on {
		s.gesture = GestureIdle
	}
}

// Select sets the selection directly (edit-mode list clicks). Unknown ids
// clear the selection.
func (s *Session) Select(fieldID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if layout.FindByID(s.fields, fieldID) == nil {
		s.selectedID = ""
		return
	}
	s.selectedID = fieldID
}

// UpdateField applies a numeric-panel edit to the selected field. Edits
// addressed to any other field are rejected; non-finite values coerce to
// zero, then position and size clamps apply. Never leaves NaN in a Field.
func (s *Session) UpdateField(fieldID string, edit FieldEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fieldID != s.selectedID {
		return fmt.Errorf("field %q is not selected", fieldID)
	}
	f := layout.FindByID(s.fields, fieldID)
	if f == nil {
		return fmt.Errorf("field %q not found", fieldID)
	}

	if edit.X != nil {
		f.X = zeroIfNonFinite(*edit.X)
	}
	if edit.Y != nil {
		f.Y = zeroIfNonFinite(*edit.Y)
	}
	if edit.Width != nil {
		f.Width = zeroIfNonFinite(*edit.Width)
	}
	if edit.Height != nil {
		f.Height = zeroIfNonFinite(*edit.Height)
	}
	if edit.FontSize != nil {
		if v := zeroIfNonFinite(*edit.FontSize); v > 0 {
			f.FontSize = v
		}
	}
	if edit.Color != nil && *edit.Color != "" {
		f.Color = *edit.Color
	}
	if edit.FontWeight != nil {
		if *edit.FontWeight == models.FontWeightBold {
			f.FontWeight = models.FontWeightBold
		} else {
			f.FontWeight = models.FontWeightNormal
		}
	}

	f.ClampPosition()
	f.ClampSize()
	return nil
}

// SetToggles re-reconciles the field set against new optional-field
// toggles. A cleared selection id (field removed by the toggle) resets.
func (s *Session) SetToggles(qrEnabled, amountVisible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.qrEnabled = qrEnabled
	s.amountShown = amountVisible
	s.fields = layout.Reconcile(s.fields, qrEnabled, amountVisible)
	if layout.FindByID(s.fields, s.selectedID) == nil {
		s.selectedID = ""
	}
}

// SetFields replaces the working field set from an external source and
// reconciles it. Used when the settings collaborator pushes a new layout.
func (s *Session) SetFields(fields []models.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields = layout.Reconcile(layout.Sanitize(fields), s.qrEnabled, s.amountShown)
	if layout.FindByID(s.fields, s.selectedID) == nil {
		s.selectedID = ""
	}
}

// Fields returns a copy of the working field set.
func (s *Session) Fields() []models.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// State returns a snapshot for the frontend.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make([]models.Field, len(s.fields))
	copy(fields, s.fields)
	return State{
		ID:         s.ID,
		Fields:     fields,
		SelectedID: s.selectedID,
		Zoom:       s.zoom,
		EditMode:   s.editMode,
		Dragging:   s.gesture == GestureDragging,
		Resizing:   s.gesture == GestureResizing,
	}
}

// Save hands the current field list to the settings collaborator. There
// is no autosave; unsaved edits are discardable with the session.
func (s *Session) Save() []models.Field {
	fields := s.Fields()
	if s.onSave != nil {
		s.onSave(fields)
	}
	return fields
}

// RequestTemplate starts loading a new template image for the preview.
func (s *Session) RequestTemplate(url string) {
	s.loader.Request(url)
}

func inResizeHandle(f *models.Field, p geom.Point) bool {
	right := f.X + f.Width
	bottom := f.Y + f.Height
	return p.X >= right-ResizeHandleSize && p.X <= right &&
		p.Y >= bottom-ResizeHandleSize && p.Y <= bottom
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func zeroIfNonFinite(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return v
}
