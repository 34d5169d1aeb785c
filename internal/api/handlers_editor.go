// handlers_editor.go - Interactive edit session handlers
package api

import (
	"bytes"
	"image/png"
	"net/http"

	"github.com/coupon-studio/backend/internal/editor"
	"github.com/coupon-studio/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// EditorHandlerImpl implements the EditorHandler interface
type EditorHandlerImpl struct {
	manager *editor.Manager
	layout  LayoutHandler
	store   storage.Store
}

// NewEditorHandler creates a new editor handler instance
func NewEditorHandler(manager *editor.Manager, layout LayoutHandler, store storage.Store) *EditorHandlerImpl {
	return &EditorHandlerImpl{
		manager: manager,
		layout:  layout,
		store:   store,
	}
}

type openSessionRequest struct {
	TemplateID string `json:"templateId,omitempty"`
}

// HandleOpenSession opens an edit session seeded from the persisted layout.
// An explicit templateId overrides the active template for this session.
func (h *EditorHandlerImpl) HandleOpenSession(c echo.Context) error {
	var req openSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	settings, activeID := h.layout.Snapshot()

	// The session loader reads the template straight from disk.
	templateID := req.TemplateID
	if templateID == "" {
		templateID = activeID
	}
	settings.TemplateURL = ""
	if templateID != "" {
		path, err := h.store.GetImagePath(templateID)
		if err != nil {
			return NewNotFoundError("template", templateID)
		}
		settings.TemplateURL = path
	}

	s, err := h.manager.OpenSession(&settings)
	if err != nil {
		return NewServiceUnavailableError("could not open edit session")
	}

	return c.JSON(http.StatusCreated, s.State())
}

func (h *EditorHandlerImpl) session(c echo.Context) (*editor.Session, *APIError) {
	id := c.Param("sessionId")
	s, ok := h.manager.GetSession(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return s, nil
}

// HandleGetSession returns the current session state.
func (h *EditorHandlerImpl) HandleGetSession(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}
	return c.JSON(http.StatusOK, s.State())
}

type pointerEventRequest struct {
	Event string  `json:"event"` // "down", "move", "up", "leave"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// HandlePointerEvent feeds a view-space pointer event into the session's
// gesture state machine and returns the resulting state.
func (h *EditorHandlerImpl) HandlePointerEvent(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	var req pointerEventRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	switch req.Event {
	case "down":
		s.PointerDown(req.X, req.Y)
	case "move":
		s.PointerMove(req.X, req.Y)
	case "up":
		s.PointerUp()
	case "leave":
		s.PointerLeave()
	default:
		return NewValidationError("event")
	}

	return c.JSON(http.StatusOK, s.State())
}

type updateFieldRequest struct {
	FieldID string           `json:"fieldId"`
	Edit    editor.FieldEdit `json:"edit"`
}

// HandleUpdateField applies a numeric-panel edit to the selected field.
func (h *EditorHandlerImpl) HandleUpdateField(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	var req updateFieldRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.FieldID == "" {
		return NewValidationError("fieldId")
	}

	if err := s.UpdateField(req.FieldID, req.Edit); err != nil {
		return NewConflictError(err.Error())
	}
	return c.JSON(http.StatusOK, s.State())
}

type selectFieldRequest struct {
	FieldID string `json:"fieldId"`
}

// HandleSelectField changes the selection. An empty fieldId deselects.
func (h *EditorHandlerImpl) HandleSelectField(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	var req selectFieldRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	s.Select(req.FieldID)
	return c.JSON(http.StatusOK, s.State())
}

type setZoomRequest struct {
	Zoom float64 `json:"zoom"`
}

// HandleSetZoom sets the session zoom, clamped and snapped server side.
func (h *EditorHandlerImpl) HandleSetZoom(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	var req setZoomRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	zoom := s.SetZoom(req.Zoom)
	return c.JSON(http.StatusOK, map[string]float64{"zoom": zoom})
}

type setModeRequest struct {
	EditMode bool `json:"editMode"`
}

// HandleSetMode toggles edit mode.
func (h *EditorHandlerImpl) HandleSetMode(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	var req setModeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	s.SetEditMode(req.EditMode)
	return c.JSON(http.StatusOK, s.State())
}

type setTogglesRequest struct {
	QREnabled     bool `json:"qrEnabled"`
	AmountVisible bool `json:"amountVisible"`
}

// HandleSetToggles updates the QR and amount toggles, reconciling the
// session's field list.
func (h *EditorHandlerImpl) HandleSetToggles(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	var req setTogglesRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	s.SetToggles(req.QREnabled, req.AmountVisible)
	return c.JSON(http.StatusOK, s.State())
}

// HandleSessionPreview renders the session's current preview as a PNG.
func (h *EditorHandlerImpl) HandleSessionPreview(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	img := s.RenderPreview()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return NewInternalError("failed to encode preview", err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// HandleSaveSession persists the session's fields through the save callback.
func (h *EditorHandlerImpl) HandleSaveSession(c echo.Context) error {
	s, apiErr := h.session(c)
	if apiErr != nil {
		return apiErr
	}

	fields := s.Save()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"saved":  true,
		"fields": fields,
	})
}

// HandleSessionKeepAlive extends session lifetime for active editing
func (h *EditorHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.manager.TouchSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleCloseSession discards a session.
func (h *EditorHandlerImpl) HandleCloseSession(c echo.Context) error {
	id := c.Param("sessionId")
	h.manager.CloseSession(id)
	return c.JSON(http.StatusOK, map[string]string{"closed": id})
}

// sessionByID is used by the websocket channel.
func (h *EditorHandlerImpl) sessionByID(id string) (*editor.Session, bool) {
	return h.manager.GetSession(id)
}
