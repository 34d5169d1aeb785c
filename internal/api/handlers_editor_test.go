package api

import (
	"bytes"
	"image/png"
	"net/http"
	"testing"

	"github.com/coupon-studio/backend/internal/editor"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSession(t *testing.T, e *echo.Echo, h *Handlers) editor.State {
	t.Helper()

	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions", map[string]string{}, nil, h.Editor.HandleOpenSession)
	require.Equal(t, http.StatusCreated, rec.Code)

	var state editor.State
	decodeJSON(t, rec, &state)
	require.NotEmpty(t, state.ID)
	return state
}

func postPointer(t *testing.T, e *echo.Echo, h *Handlers, sessionID, event string, x, y float64) editor.State {
	t.Helper()

	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+sessionID+"/pointer",
		pointerEventRequest{Event: event, X: x, Y: y},
		map[string]string{"sessionId": sessionID}, h.Editor.HandlePointerEvent)
	require.Equal(t, http.StatusOK, rec.Code)

	var state editor.State
	decodeJSON(t, rec, &state)
	return state
}

func TestOpenSessionSeedsDefaults(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)

	state := openTestSession(t, e, h)
	assert.Len(t, state.Fields, 5)
	assert.Equal(t, 0.5, state.Zoom)
	assert.True(t, state.EditMode)
	assert.Empty(t, state.SelectedID)
}

func TestPointerDragOverHTTP(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)
	state := openTestSession(t, e, h)

	// Default name field sits at (241, 326) 300x50 in template space.
	// At zoom 0.5 its center is near view (195, 175).
	state = postPointer(t, e, h, state.ID, "down", 195, 175)
	assert.Equal(t, "name", state.SelectedID)
	assert.True(t, state.Dragging)

	state = postPointer(t, e, h, state.ID, "move", 245, 200)
	name := fieldByID(state.Fields, "name")
	require.NotNil(t, name)
	assert.InDelta(t, 341.0, name.X, 0.001)
	assert.InDelta(t, 376.0, name.Y, 0.001)

	state = postPointer(t, e, h, state.ID, "up", 0, 0)
	assert.False(t, state.Dragging)
	assert.Equal(t, "name", state.SelectedID)
}

func TestPointerRejectsUnknownEvent(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)
	state := openTestSession(t, e, h)

	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+state.ID+"/pointer",
		pointerEventRequest{Event: "hover", X: 1, Y: 1},
		map[string]string{"sessionId": state.ID}, h.Editor.HandlePointerEvent)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetZoomSnapsToSteps(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)
	state := openTestSession(t, e, h)

	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+state.ID+"/zoom",
		setZoomRequest{Zoom: 0.8},
		map[string]string{"sessionId": state.ID}, h.Editor.HandleSetZoom)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]float64
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 0.75, resp["zoom"])
}

func TestUpdateFieldRequiresSelection(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)
	state := openTestSession(t, e, h)

	x := 120.0
	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+state.ID+"/field",
		updateFieldRequest{FieldID: "name", Edit: editor.FieldEdit{X: &x}},
		map[string]string{"sessionId": state.ID}, h.Editor.HandleUpdateField)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Select, then the edit lands.
	rec = doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+state.ID+"/select",
		selectFieldRequest{FieldID: "name"},
		map[string]string{"sessionId": state.ID}, h.Editor.HandleSelectField)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+state.ID+"/field",
		updateFieldRequest{FieldID: "name", Edit: editor.FieldEdit{X: &x}},
		map[string]string{"sessionId": state.ID}, h.Editor.HandleUpdateField)
	require.Equal(t, http.StatusOK, rec.Code)

	var after editor.State
	decodeJSON(t, rec, &after)
	name := fieldByID(after.Fields, "name")
	require.NotNil(t, name)
	assert.Equal(t, 120.0, name.X)
}

func TestSessionPreviewIsPNG(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)
	state := openTestSession(t, e, h)

	rec := doJSON(t, e, http.MethodGet, "/api/editor/sessions/"+state.ID+"/preview", nil,
		map[string]string{"sessionId": state.ID}, h.Editor.HandleSessionPreview)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	// Default zoom 0.5 halves the template canvas.
	assert.Equal(t, 524, img.Bounds().Dx())
	assert.Equal(t, 299, img.Bounds().Dy())
}

func TestSaveSessionPersistsFields(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)
	state := openTestSession(t, e, h)

	// Drag the name field, then save.
	postPointer(t, e, h, state.ID, "down", 195, 175)
	postPointer(t, e, h, state.ID, "move", 245, 200)
	postPointer(t, e, h, state.ID, "up", 0, 0)

	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+state.ID+"/save", nil,
		map[string]string{"sessionId": state.ID}, h.Editor.HandleSaveSession)
	require.Equal(t, http.StatusOK, rec.Code)

	settings, _ := h.Layout.Snapshot()
	name := fieldByID(settings.Fields, "name")
	require.NotNil(t, name)
	assert.InDelta(t, 341.0, name.X, 0.001)
}

func TestSessionKeepAliveAndClose(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)
	state := openTestSession(t, e, h)

	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions/"+state.ID+"/keepalive", nil,
		map[string]string{"sessionId": state.ID}, h.Editor.HandleSessionKeepAlive)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, "/api/editor/sessions/"+state.ID, nil,
		map[string]string{"sessionId": state.ID}, h.Editor.HandleCloseSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/editor/sessions/"+state.ID, nil,
		map[string]string{"sessionId": state.ID}, h.Editor.HandleGetSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenSessionUnknownTemplate(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(t)

	rec := doJSON(t, e, http.MethodPost, "/api/editor/sessions",
		openSessionRequest{TemplateID: "missing"}, nil, h.Editor.HandleOpenSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
