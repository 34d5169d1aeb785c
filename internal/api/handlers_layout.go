// handlers_layout.go - Persisted coupon layout and preset handlers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/coupon-studio/backend/internal/layout"
	"github.com/coupon-studio/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// layoutState is the settings document persisted to disk. Fields stay nil
// until a layout is first saved; readers substitute defaults.
type layoutState struct {
	Settings   models.CouponSettings `json:"settings"`
	TemplateID string                `json:"templateId,omitempty"`
}

// LayoutHandlerImpl implements the LayoutHandler interface
type LayoutHandlerImpl struct {
	mu    sync.RWMutex
	state layoutState
	path  string
}

// NewLayoutHandler creates a layout handler backed by a JSON settings file
// under dataDir. A missing or unreadable file starts from empty state.
func NewLayoutHandler(dataDir string) *LayoutHandlerImpl {
	h := &LayoutHandlerImpl{
		path: filepath.Join(dataDir, "settings.json"),
	}
	if data, err := os.ReadFile(h.path); err == nil {
		if err := json.Unmarshal(data, &h.state); err != nil {
			fmt.Printf("[Layout] ignoring corrupt settings file: %v\n", err)
			h.state = layoutState{}
		}
	}
	return h
}

// persist must be called with the lock held.
func (h *LayoutHandlerImpl) persist() {
	data, err := json.MarshalIndent(&h.state, "", "  ")
	if err != nil {
		fmt.Printf("[Layout] failed to encode settings: %v\n", err)
		return
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		fmt.Printf("[Layout] failed to write settings: %v\n", err)
	}
}

// Snapshot returns a copy of the current settings and the active template ID.
func (h *LayoutHandlerImpl) Snapshot() (models.CouponSettings, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := h.state.Settings
	s.Fields = append([]models.Field(nil), h.state.Settings.Fields...)
	return s, h.state.TemplateID
}

// SetActiveTemplate records the active template. Empty arguments clear it.
func (h *LayoutHandlerImpl) SetActiveTemplate(templateID, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.TemplateID = templateID
	h.state.Settings.TemplateURL = url
	h.persist()
}

// ApplyFields replaces the persisted field list. Used as the editor's save
// callback.
func (h *LayoutHandlerImpl) ApplyFields(fields []models.Field) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Settings.Fields = append([]models.Field(nil), fields...)
	h.persist()
	fmt.Printf("[Layout] saved %d fields\n", len(fields))
}

// HandleGetLayout returns the effective layout: persisted fields reconciled
// with the toggles, or defaults when nothing has been saved yet.
func (h *LayoutHandlerImpl) HandleGetLayout(c echo.Context) error {
	h.mu.RLock()
	settings := h.state.Settings
	settings.Fields = append([]models.Field(nil), h.state.Settings.Fields...)
	templateID := h.state.TemplateID
	h.mu.RUnlock()

	fields := layout.EffectiveFields(&settings)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"fields":        fields,
		"qrEnabled":     settings.QREnabled,
		"amountVisible": settings.AmountShown(),
		"templateId":    templateID,
		"templateUrl":   settings.TemplateURL,
	})
}

type saveLayoutRequest struct {
	Fields        []models.Field `json:"fields"`
	QREnabled     bool           `json:"qrEnabled"`
	AmountVisible *bool          `json:"amountVisible"`
}

// HandleSaveLayout persists a new field list and toggle state. Incoming
// coordinates are sanitized and the list reconciled before saving.
func (h *LayoutHandlerImpl) HandleSaveLayout(c echo.Context) error {
	var req saveLayoutRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	amountVisible := req.AmountVisible == nil || *req.AmountVisible
	fields := layout.Reconcile(layout.Sanitize(req.Fields), req.QREnabled, amountVisible)

	h.mu.Lock()
	h.state.Settings.Fields = fields
	h.state.Settings.QREnabled = req.QREnabled
	h.state.Settings.AmountVisible = req.AmountVisible
	h.persist()
	h.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"fields":        fields,
		"qrEnabled":     req.QREnabled,
		"amountVisible": amountVisible,
	})
}

// HandleReconcileLayout reconciles a field list against toggles without
// persisting anything. The frontend uses it to preview toggle changes.
func (h *LayoutHandlerImpl) HandleReconcileLayout(c echo.Context) error {
	var req saveLayoutRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	amountVisible := req.AmountVisible == nil || *req.AmountVisible
	fields := layout.Reconcile(layout.Sanitize(req.Fields), req.QREnabled, amountVisible)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"fields": fields,
	})
}

// HandleGetPresets returns the built-in layout preset catalog.
func (h *LayoutHandlerImpl) HandleGetPresets(c echo.Context) error {
	presets, err := layout.BuiltinPresets()
	if err != nil {
		return NewInternalError("failed to load presets", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"presets": presets,
	})
}

type applyPresetRequest struct {
	Name string `json:"name"`
}

// HandleApplyPreset replaces the persisted fields with a preset's fields.
func (h *LayoutHandlerImpl) HandleApplyPreset(c echo.Context) error {
	var req applyPresetRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	presets, err := layout.BuiltinPresets()
	if err != nil {
		return NewInternalError("failed to load presets", err)
	}

	for _, p := range presets {
		if p.Name != req.Name {
			continue
		}

		h.mu.Lock()
		qr := h.state.Settings.QREnabled
		amount := h.state.Settings.AmountShown()
		fields := layout.Reconcile(layout.Sanitize(p.Fields), qr, amount)
		h.state.Settings.Fields = fields
		h.persist()
		h.mu.Unlock()

		return c.JSON(http.StatusOK, map[string]interface{}{
			"fields": fields,
		})
	}

	return NewNotFoundError("preset", req.Name)
}
